// Package plaintext provides a passthrough text extractor for plain text
// and markdown files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// supportedExtensions lists the file extensions handled by this extractor.
var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Extractor reads text files verbatim.
type Extractor struct{}

var _ driven.TextExtractor = (*Extractor)(nil)

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supports reports whether the path has a supported extension.
func (e *Extractor) Supports(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Extract reads the whole file. Unpaginated formats report one page.
func (e *Extractor) Extract(ctx context.Context, path string) (*driven.ExtractResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrPermanent, path, err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoTextExtracted, path)
	}

	return &driven.ExtractResult{
		Text:      text,
		PageCount: 1,
	}, nil
}
