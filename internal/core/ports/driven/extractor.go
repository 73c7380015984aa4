package driven

import "context"

// ExtractResult is the text pulled out of a source file.
type ExtractResult struct {
	// Text is the concatenated plain text.
	Text string

	// PageCount is the number of pages in the source, or 1 for
	// unpaginated formats.
	PageCount int
}

// TextExtractor pulls plain text out of a source file.
//
// Implementations may include:
//   - PDF (page-by-page plain text extraction)
//   - Plain text / markdown passthrough
type TextExtractor interface {
	// Extract reads the file at path and returns its text content.
	// Returns domain.ErrNoTextExtracted when the file yields no usable
	// text, and domain.ErrPermanent for unreadable or corrupt files.
	Extract(ctx context.Context, path string) (*ExtractResult, error)

	// Supports reports whether the extractor handles the given path,
	// judged by file extension.
	Supports(path string) bool
}
