package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors. Adapters classify remote
// failures by wrapping ErrTransient or ErrPermanent so callers can decide
// between skip-and-continue and abort with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient indicates a retryable remote failure (rate limit,
	// timeout). At chunk granularity the pipeline skips and continues.
	ErrTransient = errors.New("transient failure")

	// ErrPermanent indicates a non-retryable failure (auth, malformed
	// request). It aborts the current document.
	ErrPermanent = errors.New("permanent failure")

	// ErrNoTextExtracted indicates extraction produced no usable text.
	ErrNoTextExtracted = errors.New("no text extracted from document")

	// ErrNoChunksEmbedded indicates every chunk embedding failed.
	// The document is marked failed; partial failures are tolerated.
	ErrNoChunksEmbedded = errors.New("no chunks could be embedded")

	// ErrPipelineStopped indicates the pipeline is not accepting work.
	ErrPipelineStopped = errors.New("pipeline stopped")

	// ErrNotConfigured indicates a required backing service is missing,
	// typically because no API key was provided.
	ErrNotConfigured = errors.New("service not configured")
)
