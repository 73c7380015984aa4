// Package pdf provides a text extractor for PDF files.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Extractor extracts plain text from PDF files page by page.
type Extractor struct{}

var _ driven.TextExtractor = (*Extractor)(nil)

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supports reports whether the path has a .pdf extension.
func (e *Extractor) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Extract reads the PDF at path and concatenates per-page plain text.
// Pages that fail to decode are skipped; the document only fails when no
// page yields text.
func (e *Extractor) Extract(ctx context.Context, path string) (*driven.ExtractResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", domain.ErrPermanent, path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrPermanent, path, err)
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: parsing pdf %s: %v", domain.ErrPermanent, path, err)
	}

	numPages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("skipping unreadable page %d of %s: %v", i, path, err)
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}

		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoTextExtracted, path)
	}

	return &driven.ExtractResult{
		Text:      text,
		PageCount: numPages,
	}, nil
}
