package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultTopK is the default number of chunks returned per query.
const DefaultTopK = 5

// Retriever finds the chunks most similar to a query by cosine
// similarity over the embedded corpus.
type Retriever struct {
	store    driven.DocumentStore
	embedder driven.EmbeddingService
}

// NewRetriever creates a retriever over store using embedder for queries.
func NewRetriever(store driven.DocumentStore, embedder driven.EmbeddingService) *Retriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
	}
}

// Retrieve returns up to topK chunks ranked by similarity to query,
// optionally widened with the immediate neighbours of each hit.
//
// An empty corpus returns an empty result without calling the embedding
// service. A failed query embedding degrades to an empty result so
// callers can still answer from model knowledge.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, includeNeighbours bool) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	count, err := r.store.CountEmbeddedChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting embedded chunks: %w", err)
	}
	if count == 0 {
		logger.Debug("retrieval skipped: no embedded chunks")
		return nil, nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("query embedding failed, degrading to empty retrieval: %v", err)
		return nil, nil
	}

	chunks, err := r.store.GetEmbeddedChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading embedded chunks: %w", err)
	}

	results := RankChunks(queryVec, chunks, topK, includeNeighbours)
	logger.Debug("retrieved %d chunks for query (topK=%d, neighbours=%v)", len(results), topK, includeNeighbours)
	return results, nil
}

// RankChunks scores chunks against queryVec and returns the topK by
// cosine similarity, optionally including each hit's adjacent chunks
// from the same document with their own true scores. Results are
// deduplicated and ordered by score descending, with document ID and
// index as tiebreakers so ranking is deterministic.
func RankChunks(queryVec []float32, chunks []domain.Chunk, topK int, includeNeighbours bool) []domain.RetrievedChunk {
	if len(chunks) == 0 || topK <= 0 {
		return nil
	}

	type key struct {
		doc string
		idx int
	}

	byKey := make(map[key]int, len(chunks))
	scores := make([]float64, len(chunks))
	for i, c := range chunks {
		byKey[key{c.DocumentID, c.Index}] = i
		scores[i] = CosineSimilarity(queryVec, c.Embedding)
	}

	order := make([]int, len(chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		if chunks[ia].DocumentID != chunks[ib].DocumentID {
			return chunks[ia].DocumentID < chunks[ib].DocumentID
		}
		return chunks[ia].Index < chunks[ib].Index
	})

	if topK > len(order) {
		topK = len(order)
	}

	selected := make(map[key]bool, topK*3)
	var picked []int
	for _, i := range order[:topK] {
		k := key{chunks[i].DocumentID, chunks[i].Index}
		if !selected[k] {
			selected[k] = true
			picked = append(picked, i)
		}
	}

	if includeNeighbours {
		for _, i := range order[:topK] {
			for _, delta := range []int{-1, 1} {
				nk := key{chunks[i].DocumentID, chunks[i].Index + delta}
				if selected[nk] {
					continue
				}
				if ni, ok := byKey[nk]; ok {
					selected[nk] = true
					picked = append(picked, ni)
				}
			}
		}
	}

	sort.SliceStable(picked, func(a, b int) bool {
		ia, ib := picked[a], picked[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		if chunks[ia].DocumentID != chunks[ib].DocumentID {
			return chunks[ia].DocumentID < chunks[ib].DocumentID
		}
		return chunks[ia].Index < chunks[ib].Index
	})

	results := make([]domain.RetrievedChunk, 0, len(picked))
	for _, i := range picked {
		results = append(results, domain.RetrievedChunk{
			Chunk:      chunks[i],
			Similarity: scores[i],
		})
	}
	return results
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched dimensions or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
