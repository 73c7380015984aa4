package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Default answering configuration values.
const (
	DefaultMaxContextTokens = 8000
	DefaultResponseReserve  = 2000
	DefaultSummaryChunks    = 10
	DefaultSummaryTokens    = 800

	// formattingPad covers chunk headers and message scaffolding that
	// the per-chunk token counts do not account for.
	formattingPad = 100

	// minTruncateTokens is the smallest remaining budget worth filling
	// with a truncated chunk. Below this the fragment adds noise, not
	// context.
	minTruncateTokens = 200

	// truncateSuffix marks a chunk cut to fit the budget.
	truncateSuffix = "... [truncated]"
)

// Generation temperatures per answer mode.
const (
	groundedTemperature   = 0.2
	generativeTemperature = 0.2
	hybridTemperature     = 0.3
	summaryTemperature    = 0.3
)

// summaryQuery drives retrieval for corpus summaries.
const summaryQuery = "What is this document about? What are the main topics and key provisions?"

// insufficientContextAnswer is returned in grounded mode when nothing
// relevant was retrieved. No generation call is made.
const insufficientContextAnswer = "I don't have enough information in the ingested documents to answer this question."

// System prompts per answer mode.
const (
	groundedSystemPrompt = "You are a helpful assistant that answers questions using only the provided document context. " +
		"If the context does not contain the answer, say so plainly. Cite the sources you use by their numbers."

	generativeSystemPrompt = "You are a helpful assistant. Answer the question from your general knowledge."

	hybridSystemPrompt = "You are a helpful assistant. Prefer the provided document context when answering and " +
		"supplement it with general knowledge where the context is incomplete. Make clear which parts come from the documents."

	summarySystemPrompt = "You are a helpful assistant that summarises document collections. " +
		"Describe what the documents cover and their main topics based only on the provided context."
)

// ChunkRetriever finds relevant chunks for a query.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, query string, topK int, includeNeighbours bool) ([]domain.RetrievedChunk, error)
}

// AnswererConfig configures the answer service.
type AnswererConfig struct {
	// MaxContextTokens is the model's context window size.
	MaxContextTokens int

	// ResponseReserve is held back from the window for the completion.
	ResponseReserve int

	// TopK is the number of chunks retrieved per question.
	TopK int

	// SummaryChunks is the retrieval width for summaries.
	SummaryChunks int

	// SummaryTokens caps the summary completion length.
	SummaryTokens int
}

// Answerer implements the three answer strategies over a shared
// retrieval and context assembly path.
type Answerer struct {
	retriever ChunkRetriever
	llm       driven.LLMService
	counter   driven.TokenCounter
	cfg       AnswererConfig
}

var _ driving.AnswerService = (*Answerer)(nil)

// NewAnswerer creates an answer service. Zero-valued config fields take
// defaults.
func NewAnswerer(retriever ChunkRetriever, llm driven.LLMService, counter driven.TokenCounter, cfg AnswererConfig) *Answerer {
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = DefaultMaxContextTokens
	}
	if cfg.ResponseReserve <= 0 {
		cfg.ResponseReserve = DefaultResponseReserve
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.SummaryChunks <= 0 {
		cfg.SummaryChunks = DefaultSummaryChunks
	}
	if cfg.SummaryTokens <= 0 {
		cfg.SummaryTokens = DefaultSummaryTokens
	}

	return &Answerer{
		retriever: retriever,
		llm:       llm,
		counter:   counter,
		cfg:       cfg,
	}
}

// Answer responds to a query using the given strategy.
func (a *Answerer) Answer(ctx context.Context, query string, mode domain.AnswerMode) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	switch mode {
	case domain.ModeGrounded, domain.ModeGenerative, domain.ModeHybrid:
	default:
		return nil, fmt.Errorf("%w: unknown answer mode %q", domain.ErrInvalidInput, mode)
	}

	var retrieved []domain.RetrievedChunk
	if mode != domain.ModeGenerative {
		var err error
		retrieved, err = a.retriever.Retrieve(ctx, query, a.cfg.TopK, true)
		if err != nil {
			return nil, fmt.Errorf("retrieving context: %w", err)
		}
	}

	if len(retrieved) == 0 {
		switch mode {
		case domain.ModeGrounded:
			// Refusing beats hallucinating when nothing was found.
			return &domain.Answer{
				Text:  insufficientContextAnswer,
				Model: "none",
				Mode:  domain.ModeGrounded,
			}, nil
		case domain.ModeHybrid:
			// Nothing to ground on; degrade to the generative strategy.
			logger.Debug("hybrid mode degrading to generative: empty retrieval")
			mode = domain.ModeGenerative
		}
	}

	systemPrompt, temperature := modeParameters(mode)

	var (
		contextBlock  string
		citations     []domain.RetrievedChunk
		contextTokens int
	)
	if mode != domain.ModeGenerative {
		contextBlock, citations, contextTokens = a.assembleContext(systemPrompt, query, retrieved, a.cfg.ResponseReserve)
	}

	userContent := query
	if contextBlock != "" {
		userContent = fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, query)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userContent},
	}

	answer := a.generate(ctx, messages, driven.ChatOptions{
		MaxTokens:   a.cfg.ResponseReserve,
		Temperature: temperature,
	})
	answer.Mode = mode
	answer.ChunksUsed = len(citations)
	answer.ContextTokens = contextTokens
	answer.Citations = citations
	return answer, nil
}

// Summarise produces a corpus summary over a wider retrieval window.
func (a *Answerer) Summarise(ctx context.Context) (*domain.Answer, error) {
	retrieved, err := a.retriever.Retrieve(ctx, summaryQuery, a.cfg.SummaryChunks, false)
	if err != nil {
		return nil, fmt.Errorf("retrieving summary context: %w", err)
	}

	if len(retrieved) == 0 {
		return &domain.Answer{
			Text:  insufficientContextAnswer,
			Model: "none",
			Mode:  domain.ModeGrounded,
		}, nil
	}

	contextBlock, citations, contextTokens := a.assembleContext(summarySystemPrompt, summaryQuery, retrieved, a.cfg.SummaryTokens)

	messages := []driven.ChatMessage{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, summaryQuery)},
	}

	answer := a.generate(ctx, messages, driven.ChatOptions{
		MaxTokens:   a.cfg.SummaryTokens,
		Temperature: summaryTemperature,
	})
	answer.Mode = domain.ModeGrounded
	answer.ChunksUsed = len(citations)
	answer.ContextTokens = contextTokens
	answer.Citations = citations
	return answer, nil
}

// generate runs the chat call and folds failures into the answer so
// every mode returns comparable metrics.
func (a *Answerer) generate(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) *domain.Answer {
	start := time.Now()
	result, err := a.llm.Chat(ctx, messages, opts)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error("generation failed: %v", err)
		return &domain.Answer{
			Text:     fmt.Sprintf("Error generating answer: %v", err),
			Model:    a.llm.ModelName(),
			Duration: elapsed,
		}
	}

	return &domain.Answer{
		Text:             result.Text,
		Model:            a.llm.ModelName(),
		Duration:         elapsed,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
	}
}

// assembleContext packs retrieved chunks into the token budget in rank
// order. When a chunk does not fit whole and meaningful room remains,
// it is cut down and marked; packing stops at the first cut.
func (a *Answerer) assembleContext(systemPrompt, query string, retrieved []domain.RetrievedChunk, responseReserve int) (string, []domain.RetrievedChunk, int) {
	available := a.cfg.MaxContextTokens - responseReserve -
		a.counter.Count(systemPrompt) - a.counter.Count(query) - formattingPad

	var (
		sb        strings.Builder
		citations []domain.RetrievedChunk
		used      int
	)

	for _, rc := range retrieved {
		header := fmt.Sprintf("[Source %d: %s, chunk %d]\n", len(citations)+1, rc.Chunk.DocumentID, rc.Chunk.Index)
		headerTokens := a.counter.Count(header)
		chunkTokens := a.counter.Count(rc.Chunk.Text)

		if used+headerTokens+chunkTokens <= available {
			sb.WriteString(header)
			sb.WriteString(rc.Chunk.Text)
			sb.WriteString("\n\n")
			used += headerTokens + chunkTokens
			citations = append(citations, rc)
			continue
		}

		remaining := available - used - headerTokens
		if remaining < minTruncateTokens {
			break
		}

		text := truncateToBudget(rc.Chunk.Text, remaining, a.counter)
		if text == "" {
			break
		}

		sb.WriteString(header)
		sb.WriteString(text)
		sb.WriteString("\n\n")
		used += headerTokens + a.counter.Count(text)

		cut := rc
		cut.Truncated = true
		citations = append(citations, cut)
		break
	}

	return strings.TrimRight(sb.String(), "\n"), citations, used
}

// truncateToBudget repeatedly cuts text to 80% of its length until it
// fits the budget, then appends the truncation marker.
func truncateToBudget(text string, budget int, counter driven.TokenCounter) string {
	suffixTokens := counter.Count(truncateSuffix)
	for counter.Count(text)+suffixTokens > budget {
		next := len(text) * 8 / 10
		for next > 0 && !utf8.RuneStart(text[next]) {
			next--
		}
		if next == 0 {
			return ""
		}
		text = text[:next]
	}
	return strings.TrimSpace(text) + truncateSuffix
}

// modeParameters returns the system prompt and temperature for a mode.
func modeParameters(mode domain.AnswerMode) (string, float64) {
	switch mode {
	case domain.ModeGrounded:
		return groundedSystemPrompt, groundedTemperature
	case domain.ModeHybrid:
		return hybridSystemPrompt, hybridTemperature
	default:
		return generativeSystemPrompt, generativeTemperature
	}
}
