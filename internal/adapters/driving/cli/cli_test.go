package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockPipeline implements driving.IngestionPipeline for command tests.
type mockPipeline struct {
	docs   []domain.Document
	chunks []domain.Chunk
	stats  *domain.Stats

	deleted []string
}

func (m *mockPipeline) Start() {}
func (m *mockPipeline) Stop()  {}

func (m *mockPipeline) QueueDocument(_ context.Context, _, _ string) (string, <-chan domain.ProgressEvent, error) {
	ch := make(chan domain.ProgressEvent)
	close(ch)
	return "doc-1", ch, nil
}

func (m *mockPipeline) DeleteDocument(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockPipeline) ListDocuments(_ context.Context, status domain.DocumentStatus) ([]domain.Document, error) {
	if status == "" {
		return m.docs, nil
	}
	var filtered []domain.Document
	for _, d := range m.docs {
		if d.Status == status {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

func (m *mockPipeline) GetChunks(context.Context, string) ([]domain.Chunk, error) {
	return m.chunks, nil
}

func (m *mockPipeline) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPipeline) Stats(context.Context) (*domain.Stats, error) {
	return m.stats, nil
}

// mockAnswers implements driving.AnswerService for command tests.
type mockAnswers struct {
	answer *domain.Answer

	lastQuery string
	lastMode  domain.AnswerMode
}

func (m *mockAnswers) Answer(_ context.Context, query string, mode domain.AnswerMode) (*domain.Answer, error) {
	m.lastQuery = query
	m.lastMode = mode
	return m.answer, nil
}

func (m *mockAnswers) Summarise(context.Context) (*domain.Answer, error) {
	return m.answer, nil
}

// execute runs the root command with args and captures output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		listStatus = ""
		SetServices(nil, nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docqa version")
}

func TestDocumentsListEmpty(t *testing.T) {
	SetServices(&mockPipeline{}, nil)

	out, err := execute(t, "documents", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents ingested")
}

func TestDocumentsList(t *testing.T) {
	now := time.Now()
	SetServices(&mockPipeline{docs: []domain.Document{
		{ID: "doc-1", Name: "contract.pdf", Status: domain.StatusCompleted, ChunkCount: 12, CreatedAt: now},
		{ID: "doc-2", Name: "broken.pdf", Status: domain.StatusFailed, Error: "no text extracted", CreatedAt: now},
	}}, nil)

	out, err := execute(t, "documents", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "contract.pdf")
	assert.Contains(t, out, "no text extracted")
	assert.Contains(t, out, "Total: 2 documents")
}

func TestDocumentsListStatusFilter(t *testing.T) {
	now := time.Now()
	SetServices(&mockPipeline{docs: []domain.Document{
		{ID: "doc-1", Name: "contract.pdf", Status: domain.StatusCompleted, CreatedAt: now},
		{ID: "doc-2", Name: "broken.pdf", Status: domain.StatusFailed, Error: "no text extracted", CreatedAt: now},
	}}, nil)

	out, err := execute(t, "documents", "list", "--status", "failed")
	require.NoError(t, err)
	assert.Contains(t, out, "broken.pdf")
	assert.NotContains(t, out, "contract.pdf")
	assert.Contains(t, out, "Total: 1 documents")
}

func TestDocumentsListRejectsUnknownStatus(t *testing.T) {
	SetServices(&mockPipeline{}, nil)

	_, err := execute(t, "documents", "list", "--status", "bogus")
	assert.Error(t, err)
}

func TestDocumentsChunks(t *testing.T) {
	SetServices(&mockPipeline{chunks: []domain.Chunk{
		{DocumentID: "doc-1", Index: 0, Text: "First clause.", TokenCount: 3, StartSentence: 0, EndSentence: 0, Embedding: []float32{1, 0}},
		{DocumentID: "doc-1", Index: 1, Text: "Second clause.", TokenCount: 3, StartSentence: 1, EndSentence: 1},
	}}, nil)

	out, err := execute(t, "documents", "chunks", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "First clause.")
	assert.Contains(t, out, "2 dims")
	assert.Contains(t, out, "not embedded")
	assert.Contains(t, out, "Total: 2 chunks")
}

func TestDocumentsDelete(t *testing.T) {
	pipeline := &mockPipeline{}
	SetServices(pipeline, nil)

	out, err := execute(t, "documents", "delete", "doc-9")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted doc-9")
	assert.Equal(t, []string{"doc-9"}, pipeline.deleted)
}

func TestStatsCommand(t *testing.T) {
	SetServices(&mockPipeline{stats: &domain.Stats{
		DocumentsByStatus: map[domain.DocumentStatus]int{
			domain.StatusCompleted: 3,
			domain.StatusFailed:    1,
		},
		TotalChunks: 42,
		QueueDepth:  2,
		Workers:     4,
	}}, nil)

	out, err := execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "completed:  3")
	assert.Contains(t, out, "Chunks:      42")
	assert.Contains(t, out, "Queue depth: 2")
}

func TestAskCommand(t *testing.T) {
	answers := &mockAnswers{answer: &domain.Answer{
		Text:  "42 days.",
		Model: "mock",
		Mode:  domain.ModeHybrid,
		Citations: []domain.RetrievedChunk{
			{Chunk: domain.Chunk{DocumentID: "doc-1", Index: 3}, Similarity: 0.91, Truncated: true},
		},
	}}
	SetServices(nil, answers)

	out, err := execute(t, "ask", "--mode", "hybrid", "what", "is", "the", "notice", "period")
	require.NoError(t, err)

	assert.Equal(t, "what is the notice period", answers.lastQuery)
	assert.Equal(t, domain.ModeHybrid, answers.lastMode)
	assert.Contains(t, out, "42 days.")
	assert.Contains(t, out, "doc-1, chunk 3")
	assert.Contains(t, out, "(truncated)")
}

func TestAskWithoutServiceFails(t *testing.T) {
	_, err := execute(t, "ask", "anything")
	assert.Error(t, err)
}

func TestStatsWithoutServiceFails(t *testing.T) {
	_, err := execute(t, "stats")
	assert.Error(t, err)
}
