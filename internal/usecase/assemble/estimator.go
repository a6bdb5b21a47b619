package assemble

// CharsPerToken is the fixed approximation: 4 characters ≈ 1 token.
const CharsPerToken = 4

// LengthEstimator caps text to an approximate token budget.
// Implementations must return a prefix of text.
type LengthEstimator interface {
	Truncate(text string, maxTokens int) string
}

// CharRatio estimates tokens as a fixed number of characters each.
type CharRatio int

// Truncate cuts text at maxTokens × ratio characters. The cut is not word-aware
// but never splits a multi-byte character.
func (r CharRatio) Truncate(text string, maxTokens int) string {
	limit := maxTokens * int(r)
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text // byte length bounds rune count
	}

	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}
