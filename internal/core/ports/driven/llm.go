package driven

import "context"

// LLMService provides chat completion for answer generation.
//
// Implementations may include:
//   - OpenAI (GPT-4, GPT-4o-mini)
//   - Ollama (local models)
type LLMService interface {
	// Chat conducts a conversation and returns the completion together
	// with backend-reported token usage.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResult, error)

	// ModelName returns the name of the model being used.
	ModelName() string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// ChatResult is a completion plus the usage metrics the backend reported.
type ChatResult struct {
	// Text is the generated completion.
	Text string

	// Token usage as reported by the backend.
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
