package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApproximateEmpty(t *testing.T) {
	assert.Equal(t, 0, Approximate{}.Count(""))
	assert.Equal(t, 0, Approximate{}.Count("   \n\t"))
}

func TestApproximateShortInputUsesWordFloor(t *testing.T) {
	// Three words but only a handful of characters; the word floor wins.
	assert.Equal(t, 3, Approximate{}.Count("a b c"))
}

func TestApproximateProse(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog near the riverbank."
	n := Approximate{}.Count(text)
	assert.Greater(t, n, 10)
	assert.Less(t, n, 25)
}

func TestApproximateDeterministic(t *testing.T) {
	text := "Deterministic counting matters for reproducible chunk boundaries."
	assert.Equal(t, Approximate{}.Count(text), Approximate{}.Count(text))
}
