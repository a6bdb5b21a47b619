// Package assemble renders retrieved matches into a bounded context block.
package assemble

import (
	"strings"

	"github.com/kailas-cloud/supportdesk/internal/domain/match"
)

// Separator joins rendered records.
const Separator = "\n\n"

// Assembler builds the context string handed to the model.
type Assembler struct {
	estimator LengthEstimator
}

// New creates an Assembler. A nil estimator uses CharRatio(CharsPerToken).
func New(estimator LengthEstimator) *Assembler {
	if estimator == nil {
		estimator = CharRatio(CharsPerToken)
	}
	return &Assembler{estimator: estimator}
}

// Assemble renders matches in order, drops empty renders, joins them with a blank
// line and truncates the result to maxApproxTokens.
func (a *Assembler) Assemble(matches []match.Match, maxApproxTokens int) string {
	if len(matches) == 0 {
		return ""
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if text := m.Record().Render(); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	return a.estimator.Truncate(strings.Join(parts, Separator), maxApproxTokens)
}
