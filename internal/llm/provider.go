package llm

import "context"

// TextCompletionProvider is the interface the generation flow depends on.
// This abstraction allows swapping completion providers (Groq, OpenAI, a test
// fake, etc.) without changing business logic.
type TextCompletionProvider interface {
	// Complete sends one system+user exchange and returns the model's raw text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest carries one completion exchange
type CompletionRequest struct {
	// System establishes the assistant persona and output format requirements
	System string
	// Prompt is the fully assembled user instruction
	Prompt string
}
