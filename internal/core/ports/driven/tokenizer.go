package driven

// TokenCounter measures text in model tokens.
// The same counter must be used for chunk sizing and context budgeting so
// the two stay consistent.
type TokenCounter interface {
	// Count returns the number of tokens in text.
	Count(text string) int
}
