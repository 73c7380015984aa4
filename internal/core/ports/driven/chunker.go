package driven

import "github.com/custodia-labs/docqa/internal/core/domain"

// Chunker splits extracted text into token-bounded chunks.
// Chunking is deterministic: the same text always yields the same chunks.
type Chunker interface {
	// Chunk splits text into ordered chunks for the given document.
	// Returns an empty slice for whitespace-only input.
	Chunk(documentID, text string) []domain.Chunk
}
