package driven

// Tokenizer counts tokens the way a model budget is measured.
// CountTokens must be a pure function of its input.
type Tokenizer interface {
	Name() string
	CountTokens(text string) int
}
