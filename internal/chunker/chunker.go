// Package chunker provides sentence-aware, token-bounded text chunking.
package chunker

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultChunkTokens is the default token budget per chunk.
const DefaultChunkTokens = 500

// DefaultOverlapTokens is the default overlap budget between chunks.
const DefaultOverlapTokens = 50

// overlapSentenceTokens is the assumed token cost of an average sentence,
// used to convert the overlap token budget into a trailing sentence count.
const overlapSentenceTokens = 50

// sentencePattern matches runs of text ending in sentence punctuation.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Chunker splits text into sentence-aligned chunks bounded by a token
// budget, with a configurable overlap carried between adjacent chunks.
type Chunker struct {
	counter     driven.TokenCounter
	chunkTokens int
	overlap     int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkTokens sets the token budget per chunk.
func WithChunkTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.chunkTokens = n
		}
	}
}

// WithOverlapTokens sets the overlap budget between chunks.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a chunker that measures text with counter.
func New(counter driven.TokenCounter, opts ...Option) *Chunker {
	c := &Chunker{
		counter:     counter,
		chunkTokens: DefaultChunkTokens,
		overlap:     DefaultOverlapTokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for new content in every chunk.
	if c.overlap >= c.chunkTokens {
		c.overlap = c.chunkTokens / 4
	}

	return c
}

var _ driven.Chunker = (*Chunker)(nil)

// overlapSentenceCount converts the overlap token budget into a number of
// trailing sentences to carry into the next chunk. A non-zero budget
// always carries at least one sentence.
func (c *Chunker) overlapSentenceCount() int {
	if c.overlap <= 0 {
		return 0
	}
	n := c.overlap / overlapSentenceTokens
	if n < 1 {
		n = 1
	}
	return n
}

// SplitSentences breaks text into trimmed sentences. Text without
// sentence punctuation is returned whole so nothing is silently dropped.
func SplitSentences(text string) []string {
	matches := sentencePattern.FindAllString(text, -1)
	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		if s := strings.TrimSpace(text); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Chunk splits text into ordered chunks for documentID.
//
// Sentences are accumulated greedily until the next sentence would exceed
// the chunk token budget, then the buffer is flushed and reseeded with the
// trailing overlap sentences. A single sentence larger than the budget
// still becomes a chunk rather than being dropped. Chunking is
// deterministic for a given counter and configuration.
func (c *Chunker) Chunk(documentID, text string) []domain.Chunk {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return []domain.Chunk{}
	}

	tokens := make([]int, len(sentences))
	for i, s := range sentences {
		tokens[i] = c.counter.Count(s)
	}

	var (
		chunks    []domain.Chunk
		buf       []string
		bufTokens int
		start     int
	)

	flush := func(end int) {
		joined := strings.Join(buf, " ")
		chunks = append(chunks, domain.Chunk{
			DocumentID:    documentID,
			Index:         len(chunks),
			Text:          joined,
			TokenCount:    c.counter.Count(joined),
			StartSentence: start,
			EndSentence:   end,
		})
	}

	overlapN := c.overlapSentenceCount()

	for i, s := range sentences {
		if bufTokens+tokens[i] > c.chunkTokens && len(buf) > 0 {
			flush(i - 1)

			// Reseed with the trailing overlap sentences so adjacent
			// chunks share context at the boundary.
			carry := overlapN
			if carry > len(buf) {
				carry = len(buf)
			}
			start = i - carry
			buf = append([]string(nil), sentences[start:i]...)
			bufTokens = 0
			for j := start; j < i; j++ {
				bufTokens += tokens[j]
			}
		}
		buf = append(buf, s)
		bufTokens += tokens[i]
	}

	if len(buf) > 0 {
		flush(len(sentences) - 1)
	}

	return chunks
}
