package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestSupports(t *testing.T) {
	e := New()
	assert.True(t, e.Supports("notes.txt"))
	assert.True(t, e.Supports("README.MD"))
	assert.True(t, e.Supports("guide.markdown"))
	assert.False(t, e.Supports("report.pdf"))
	assert.False(t, e.Supports("archive.zip"))
}

func TestExtract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("First line.\nSecond line.\n"), 0600))

	result, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "First line.\nSecond line.\n", result.Text)
	assert.Equal(t, 1, result.PageCount)
}

func TestExtractEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n\t"), 0600))

	_, err := New().Extract(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrNoTextExtracted)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, domain.ErrPermanent)
}
