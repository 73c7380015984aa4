package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// mockRetriever returns canned retrieval results and records calls.
type mockRetriever struct {
	results []domain.RetrievedChunk
	err     error

	calls          int
	lastQuery      string
	lastTopK       int
	lastNeighbours bool
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, topK int, includeNeighbours bool) ([]domain.RetrievedChunk, error) {
	m.calls++
	m.lastQuery = query
	m.lastTopK = topK
	m.lastNeighbours = includeNeighbours
	return m.results, m.err
}

// mockLLM returns a canned completion and records the request.
type mockLLM struct {
	result *driven.ChatResult
	err    error

	calls        int
	lastMessages []driven.ChatMessage
	lastOpts     driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (*driven.ChatResult, error) {
	m.calls++
	m.lastMessages = messages
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &driven.ChatResult{
		Text:             "canned answer",
		PromptTokens:     100,
		CompletionTokens: 20,
		TotalTokens:      120,
	}, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func retrievedChunk(doc string, idx int, words int, score float64) domain.RetrievedChunk {
	text := strings.TrimSpace(strings.Repeat(fmt.Sprintf("w%d ", idx), words))
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{
			DocumentID: doc,
			Index:      idx,
			Text:       text,
			TokenCount: words,
		},
		Similarity: score,
	}
}

func newAnswerer(retriever ChunkRetriever, llm driven.LLMService, cfg AnswererConfig) *Answerer {
	return NewAnswerer(retriever, llm, wordCount{}, cfg)
}

func TestAnswerGrounded(t *testing.T) {
	retriever := &mockRetriever{results: []domain.RetrievedChunk{
		retrievedChunk("doc-a", 0, 30, 0.9),
		retrievedChunk("doc-a", 1, 30, 0.8),
	}}
	llm := &mockLLM{}
	a := newAnswerer(retriever, llm, AnswererConfig{})

	answer, err := a.Answer(context.Background(), "what is the notice period?", domain.ModeGrounded)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeGrounded, answer.Mode)
	assert.Equal(t, "canned answer", answer.Text)
	assert.Equal(t, "mock-llm", answer.Model)
	assert.Equal(t, 2, answer.ChunksUsed)
	assert.Len(t, answer.Citations, 2)
	assert.Greater(t, answer.ContextTokens, 0)
	assert.Equal(t, 120, answer.TotalTokens)

	assert.True(t, retriever.lastNeighbours)
	require.Len(t, llm.lastMessages, 2)
	assert.Equal(t, groundedSystemPrompt, llm.lastMessages[0].Content)
	assert.Contains(t, llm.lastMessages[1].Content, "w0")
	assert.Contains(t, llm.lastMessages[1].Content, "what is the notice period?")
	assert.InDelta(t, groundedTemperature, llm.lastOpts.Temperature, 0.001)
}

func TestAnswerGroundedEmptyRetrievalSkipsGeneration(t *testing.T) {
	llm := &mockLLM{}
	a := newAnswerer(&mockRetriever{}, llm, AnswererConfig{})

	answer, err := a.Answer(context.Background(), "anything at all?", domain.ModeGrounded)
	require.NoError(t, err)

	assert.Zero(t, llm.calls, "no generation call without grounding context")
	assert.Equal(t, insufficientContextAnswer, answer.Text)
	assert.Equal(t, "none", answer.Model)
	assert.Equal(t, domain.ModeGrounded, answer.Mode)
	assert.Zero(t, answer.ChunksUsed)
	assert.Zero(t, answer.TotalTokens)
}

func TestAnswerGenerativeSkipsRetrieval(t *testing.T) {
	retriever := &mockRetriever{}
	llm := &mockLLM{}
	a := newAnswerer(retriever, llm, AnswererConfig{})

	answer, err := a.Answer(context.Background(), "capital of France?", domain.ModeGenerative)
	require.NoError(t, err)

	assert.Zero(t, retriever.calls)
	assert.Equal(t, domain.ModeGenerative, answer.Mode)
	assert.Zero(t, answer.ChunksUsed)
	assert.Equal(t, generativeSystemPrompt, llm.lastMessages[0].Content)
	assert.Equal(t, "capital of France?", llm.lastMessages[1].Content)
}

func TestAnswerHybrid(t *testing.T) {
	retriever := &mockRetriever{results: []domain.RetrievedChunk{
		retrievedChunk("doc-a", 0, 20, 0.7),
	}}
	llm := &mockLLM{}
	a := newAnswerer(retriever, llm, AnswererConfig{})

	answer, err := a.Answer(context.Background(), "question", domain.ModeHybrid)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeHybrid, answer.Mode)
	assert.Equal(t, hybridSystemPrompt, llm.lastMessages[0].Content)
	assert.InDelta(t, hybridTemperature, llm.lastOpts.Temperature, 0.001)
}

func TestAnswerHybridEmptyRetrievalDegradesToGenerative(t *testing.T) {
	llm := &mockLLM{}
	a := newAnswerer(&mockRetriever{}, llm, AnswererConfig{})

	answer, err := a.Answer(context.Background(), "question", domain.ModeHybrid)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeGenerative, answer.Mode)
	assert.Equal(t, generativeSystemPrompt, llm.lastMessages[0].Content)
	assert.Zero(t, answer.ChunksUsed)
}

func TestAnswerGenerationFailureIsStructured(t *testing.T) {
	retriever := &mockRetriever{results: []domain.RetrievedChunk{
		retrievedChunk("doc-a", 0, 10, 0.9),
	}}
	llm := &mockLLM{err: fmt.Errorf("%w: model overloaded", domain.ErrTransient)}
	a := newAnswerer(retriever, llm, AnswererConfig{})

	answer, err := a.Answer(context.Background(), "question", domain.ModeGrounded)
	require.NoError(t, err, "generation failures surface inside the answer")

	assert.Contains(t, answer.Text, "Error generating answer")
	assert.Contains(t, answer.Text, "model overloaded")
	assert.Equal(t, "mock-llm", answer.Model)
	assert.Zero(t, answer.PromptTokens)
	assert.Zero(t, answer.CompletionTokens)
	assert.Zero(t, answer.TotalTokens)
	assert.GreaterOrEqual(t, answer.Duration.Nanoseconds(), int64(0))
}

func TestAnswerContextBudget(t *testing.T) {
	retriever := &mockRetriever{results: []domain.RetrievedChunk{
		retrievedChunk("doc-a", 0, 400, 0.9),
		retrievedChunk("doc-a", 1, 500, 0.8),
		retrievedChunk("doc-a", 2, 500, 0.7),
	}}
	llm := &mockLLM{}
	a := newAnswerer(retriever, llm, AnswererConfig{
		MaxContextTokens: 1000,
		ResponseReserve:  100,
	})

	answer, err := a.Answer(context.Background(), "question", domain.ModeGrounded)
	require.NoError(t, err)

	// First chunk fits whole, second is cut, third never packs.
	require.Len(t, answer.Citations, 2)
	assert.False(t, answer.Citations[0].Truncated)
	assert.True(t, answer.Citations[1].Truncated)
	assert.Contains(t, llm.lastMessages[1].Content, truncateSuffix)
	assert.NotContains(t, llm.lastMessages[1].Content, "[Source 3")

	available := a.cfg.MaxContextTokens - a.cfg.ResponseReserve -
		wordCount{}.Count(groundedSystemPrompt) - wordCount{}.Count("question") - formattingPad
	assert.LessOrEqual(t, answer.ContextTokens, available)
}

func TestAnswerValidatesInput(t *testing.T) {
	a := newAnswerer(&mockRetriever{}, &mockLLM{}, AnswererConfig{})

	_, err := a.Answer(context.Background(), "   ", domain.ModeGrounded)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = a.Answer(context.Background(), "question", domain.AnswerMode("creative"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSummarise(t *testing.T) {
	retriever := &mockRetriever{results: []domain.RetrievedChunk{
		retrievedChunk("doc-a", 0, 50, 0.9),
		retrievedChunk("doc-b", 4, 50, 0.8),
	}}
	llm := &mockLLM{result: &driven.ChatResult{
		Text:             "The corpus covers service agreements.",
		PromptTokens:     200,
		CompletionTokens: 40,
		TotalTokens:      240,
	}}
	a := newAnswerer(retriever, llm, AnswererConfig{})

	answer, err := a.Summarise(context.Background())
	require.NoError(t, err)

	assert.Equal(t, summaryQuery, retriever.lastQuery)
	assert.Equal(t, DefaultSummaryChunks, retriever.lastTopK)
	assert.False(t, retriever.lastNeighbours, "summaries skip neighbour expansion")

	assert.Equal(t, "The corpus covers service agreements.", answer.Text)
	assert.Equal(t, 2, answer.ChunksUsed)
	assert.Equal(t, DefaultSummaryTokens, llm.lastOpts.MaxTokens)
	assert.InDelta(t, summaryTemperature, llm.lastOpts.Temperature, 0.001)
}

func TestSummariseEmptyCorpus(t *testing.T) {
	llm := &mockLLM{}
	a := newAnswerer(&mockRetriever{}, llm, AnswererConfig{})

	answer, err := a.Summarise(context.Background())
	require.NoError(t, err)
	assert.Zero(t, llm.calls)
	assert.Equal(t, insufficientContextAnswer, answer.Text)
	assert.Equal(t, "none", answer.Model)
}
