// Package tokenizer provides token counting backed by the tiktoken BPE
// vocabularies used by OpenAI models. Chunk sizing and context budgeting
// must share one counter so budgets line up with what the model sees.
package tokenizer

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Compile-time checks that implementations satisfy the port.
var (
	_ driven.TokenCounter = (*TikToken)(nil)
	_ driven.TokenCounter = (*Approximate)(nil)
)

// TikToken counts tokens using a real BPE encoding.
type TikToken struct {
	enc *tiktoken.Tiktoken
}

// NewTikToken creates a counter for the given model name. Unknown models
// fall back to the cl100k_base encoding shared by current OpenAI models.
func NewTikToken(model string) (*TikToken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	return &TikToken{enc: enc}, nil
}

// Count returns the number of BPE tokens in text.
func (t *TikToken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Approximate estimates token counts without a vocabulary. English prose
// averages roughly four characters per token; the word count is a floor
// so short inputs are not undercounted.
type Approximate struct{}

// Count returns an estimated token count for text.
func (Approximate) Count(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	byChars := utf8.RuneCountInString(text) / 4
	byWords := len(strings.Fields(text))
	if byWords > byChars {
		return byWords
	}
	return byChars
}

// NewCounter returns a TikToken counter for model, degrading to the
// approximate counter when the encoding cannot be loaded (for example on
// a machine without the cached vocabulary files).
func NewCounter(model string) driven.TokenCounter {
	tk, err := NewTikToken(model)
	if err != nil {
		logger.Warn("tiktoken unavailable for model %s, using approximate counts: %v", model, err)
		return Approximate{}
	}
	return tk
}
