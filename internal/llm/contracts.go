package llm

import "context"

// CompletionRequest is a single text-in, text-out chat completion.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int64
	JSONObject  bool // ask the provider for a JSON object response
}

// Completer is the interface the extraction layer depends on. The
// OpenAI client implements it; tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
