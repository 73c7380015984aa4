package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IngestionPipeline accepts documents and processes them asynchronously.
type IngestionPipeline interface {
	// Start launches the worker pool. Calling Start on a running
	// pipeline is a no-op.
	Start()

	// Stop drains workers and rejects further submissions. Workers
	// finish their current document; queued work is abandoned. Stop
	// waits up to the configured shutdown timeout.
	Stop()

	// QueueDocument fingerprints the file at path and enqueues it for
	// processing. For already-completed content the returned channel
	// carries a single completed event. The channel is closed when the
	// document reaches a terminal state.
	QueueDocument(ctx context.Context, path, name string) (string, <-chan domain.ProgressEvent, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns known documents, optionally restricted to a
	// single status. An empty status means all documents.
	ListDocuments(ctx context.Context, status domain.DocumentStatus) ([]domain.Document, error)

	// GetDocument returns a single document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks returns a document's chunks ordered by index, embeddings
	// included.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Stats reports document counts, chunk totals and queue state.
	Stats(ctx context.Context) (*domain.Stats, error)
}
