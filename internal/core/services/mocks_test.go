package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockEmbedder returns canned vectors or errors.
type mockEmbedder struct {
	mu      sync.Mutex
	vec     []float32
	err     error
	calls   int
	byInput map[string][]float32

	// failSubstring triggers failErr for any input containing it.
	failSubstring string
	failErr       error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.failSubstring != "" && strings.Contains(text, m.failSubstring) {
		return nil, m.failErr
	}
	if m.byInput != nil {
		if v, ok := m.byInput[text]; ok {
			return v, nil
		}
	}
	if m.vec == nil {
		return []float32{1, 0}, nil
	}
	return m.vec, nil
}

func (m *mockEmbedder) Dimensions() int   { return 2 }
func (m *mockEmbedder) ModelName() string { return "mock-embedder" }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// stubDocumentStore satisfies driven.DocumentStore with no-op methods.
// Test doubles embed it and override what they need.
type stubDocumentStore struct{}

func (stubDocumentStore) AddDocument(context.Context, *domain.Document) (*domain.Document, bool, error) {
	return nil, false, domain.ErrNotFound
}

func (stubDocumentStore) GetDocument(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (stubDocumentStore) GetDocumentByFingerprint(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (stubDocumentStore) ListDocuments(context.Context, domain.DocumentStatus) ([]domain.Document, error) {
	return nil, nil
}

func (stubDocumentStore) DeleteDocument(context.Context, string) error {
	return nil
}

func (stubDocumentStore) SetStatus(context.Context, string, domain.DocumentStatus, string) error {
	return nil
}

func (stubDocumentStore) SetPageCount(context.Context, string, int) error {
	return nil
}

func (stubDocumentStore) AddChunks(context.Context, string, []domain.Chunk) error {
	return nil
}

func (stubDocumentStore) GetChunks(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}

func (stubDocumentStore) GetEmbeddedChunks(context.Context) ([]domain.Chunk, error) {
	return nil, nil
}

func (stubDocumentStore) CountEmbeddedChunks(context.Context) (int, error) {
	return 0, nil
}

func (stubDocumentStore) Stats(context.Context) (map[domain.DocumentStatus]int, int, error) {
	return map[domain.DocumentStatus]int{}, 0, nil
}

func (stubDocumentStore) Close() error {
	return nil
}
