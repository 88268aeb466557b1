package provider

// CompletionRequest is a provider-neutral single-turn prompt.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completion is the raw text a reasoning engine returned.
type Completion struct {
	Text     string
	Provider string
	Model    string
}
