package domain

import "time"

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

// Document lifecycle states. Completed and Failed are terminal.
const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// IsTerminal reports whether the status is a final state.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsValid reports whether the status is one of the known states.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Document represents an ingested source document and its processing state.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Name is the human-readable display name (usually the filename).
	Name string

	// Fingerprint is the SHA-256 hex digest of the raw bytes.
	// It is the uniqueness key: identical bytes resolve to the same record.
	Fingerprint string

	// Size is the raw byte size of the source.
	Size int64

	// PageCount is the number of pages reported by the extractor.
	PageCount int

	// ChunkCount is the number of persisted chunks.
	ChunkCount int

	// Status is the current lifecycle state.
	Status DocumentStatus

	// Error holds the failure message when Status is failed.
	Error string

	// CreatedAt is when the document was first submitted.
	CreatedAt time.Time

	// CompletedAt is set when processing finishes successfully.
	CompletedAt *time.Time
}

// Chunk is a contiguous, token-bounded segment of a document's text.
// Chunks are identified by (DocumentID, Index); indices are contiguous
// and monotonically increasing within a document.
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the ordinal position within the document.
	Index int

	// Text is the chunk content.
	Text string

	// TokenCount is the tokenizer-reported size of Text.
	TokenCount int

	// StartSentence and EndSentence are indices into the original
	// sentence sequence, kept for citation purposes.
	StartSentence int
	EndSentence   int

	// Embedding is the vector representation. Nil until the chunk has
	// been embedded; never mutated afterwards.
	Embedding []float32
}

// ProgressEvent is a transient notification emitted during ingestion.
// Events are delivered best-effort to at most one observer per document.
type ProgressEvent struct {
	DocumentID string
	Status     DocumentStatus
	Percent    int
	Message    string
}

// Stats summarises pipeline and store state for monitoring.
type Stats struct {
	// DocumentsByStatus counts documents per lifecycle state.
	DocumentsByStatus map[DocumentStatus]int

	// TotalChunks is the number of persisted chunks across all documents.
	TotalChunks int

	// QueueDepth is the number of jobs waiting to be processed.
	QueueDepth int

	// Workers is the configured worker count.
	Workers int
}
