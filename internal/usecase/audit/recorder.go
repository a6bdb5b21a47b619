// Package audit records one row per chat turn, best-effort.
package audit

import (
	"context"

	"go.uber.org/zap"

	domaudit "github.com/kailas-cloud/supportdesk/internal/domain/audit"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
)

// Appender writes an audit row to a sink (spreadsheet, stream).
type Appender interface {
	Append(ctx context.Context, rec *domaudit.Record) error
}

// Recorder swallows sink failures so auditing never affects the response.
type Recorder struct {
	appender Appender
	logger   *zap.Logger
}

// NewRecorder creates a recorder. A nil appender disables auditing.
func NewRecorder(appender Appender, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{appender: appender, logger: logger}
}

// Record appends the row. Returns false when the row was not written.
func (r *Recorder) Record(ctx context.Context, rec *domaudit.Record) bool {
	if r == nil || r.appender == nil {
		return false
	}
	if err := r.appender.Append(ctx, rec); err != nil {
		metrics.SinkFailuresTotal.WithLabelValues("audit").Inc()
		r.logger.Warn("audit append failed",
			zap.String("session_id", rec.SessionID),
			zap.Error(err),
		)
		return false
	}
	return true
}
