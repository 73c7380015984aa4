package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// AnswerService answers questions over the ingested corpus.
type AnswerService interface {
	// Answer responds to a query using the given strategy. Generation
	// failures are reported inside the Answer rather than as an error so
	// the caller always receives comparable metrics.
	Answer(ctx context.Context, query string, mode domain.AnswerMode) (*domain.Answer, error)

	// Summarise produces a document-corpus summary using a fixed
	// summary query over a wider retrieval window.
	Summarise(ctx context.Context) (*domain.Answer, error)
}
