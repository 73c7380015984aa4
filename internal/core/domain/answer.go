package domain

import "time"

// AnswerMode identifies which answering strategy produced a result.
type AnswerMode string

// The three answer strategies compared by the system.
const (
	// ModeGrounded answers only from retrieved document context.
	ModeGrounded AnswerMode = "grounded"

	// ModeGenerative answers from model knowledge alone (control baseline).
	ModeGenerative AnswerMode = "generative"

	// ModeHybrid grounds on retrieved context but may supplement with
	// general knowledge.
	ModeHybrid AnswerMode = "hybrid"
)

// RetrievedChunk pairs a chunk with the similarity score it received
// against a query vector.
type RetrievedChunk struct {
	Chunk Chunk

	// Similarity is the cosine similarity against the query (0-1).
	Similarity float64

	// Truncated is set when the context assembler had to cut the chunk
	// text to fit the token budget.
	Truncated bool
}

// Answer is the uniform result of any answer mode. Every mode returns the
// same metric set so the strategies can be compared empirically.
type Answer struct {
	// Text is the generated answer, or a degraded message on failure.
	Text string

	// Model is the generation model identifier, or "none" when no
	// generation call was made.
	Model string

	// Mode records the strategy that produced this answer.
	Mode AnswerMode

	// ChunksUsed is the number of chunks packed into the context.
	ChunksUsed int

	// ContextTokens is the token count of the packed context.
	ContextTokens int

	// Citations lists the chunks included in the context, in packing order.
	Citations []RetrievedChunk

	// Duration is the wall-clock time of the generation call.
	Duration time.Duration

	// Token usage reported by the generation backend. Zero on failure.
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
