package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations classify remote failures by wrapping domain.ErrTransient
// (rate limits, timeouts, server errors) or domain.ErrPermanent (auth,
// malformed requests) so the pipeline can decide between skipping a chunk
// and aborting a document.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
