package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite for metadata and embedding storage.
type DocumentStore interface {
	// AddDocument registers a document, deduplicating on fingerprint.
	// When a document with the same fingerprint already exists, the
	// existing record is returned and created reports false.
	AddDocument(ctx context.Context, doc *domain.Document) (stored *domain.Document, created bool, err error)

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByFingerprint retrieves a document by content fingerprint.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocumentByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error)

	// ListDocuments returns documents ordered by creation time. A
	// non-empty status restricts the result to documents in that state.
	ListDocuments(ctx context.Context, status domain.DocumentStatus) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// SetStatus transitions a document's lifecycle state. The message is
	// stored as the failure reason when status is failed.
	SetStatus(ctx context.Context, id string, status domain.DocumentStatus, message string) error

	// SetPageCount records the extractor-reported page count.
	SetPageCount(ctx context.Context, id string, pages int) error

	// AddChunks stores chunks for a document atomically and updates the
	// document's chunk count. Either all chunks persist or none do.
	AddChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetEmbeddedChunks retrieves all chunks across completed documents
	// that carry an embedding, ordered by document then index.
	GetEmbeddedChunks(ctx context.Context) ([]domain.Chunk, error)

	// CountEmbeddedChunks reports how many chunks carry an embedding.
	CountEmbeddedChunks(ctx context.Context) (int, error)

	// Stats reports document counts per status and the total chunk count.
	Stats(ctx context.Context) (map[domain.DocumentStatus]int, int, error)

	// Close releases database resources.
	Close() error
}
