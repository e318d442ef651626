package driven

// Tokenizer measures and truncates text in model tokens.
type Tokenizer interface {
	// Name returns the encoding name, or "whitespace" for the fallback.
	Name() string

	// Count returns the number of tokens in text.
	Count(text string) int

	// Truncate returns the longest prefix of text holding at most max tokens.
	// The cut is made on a token boundary so the result stays decodable.
	Truncate(text string, max int) string
}
