package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Default pipeline configuration values.
const (
	DefaultWorkers         = 2
	DefaultEmbedTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultEmbedRate       = rate.Limit(5) // requests per second
	DefaultEmbedBurst      = 5
)

// observerBuffer is the event channel capacity per observer. Slow
// consumers lose intermediate events rather than blocking workers.
const observerBuffer = 16

// PipelineConfig configures the ingestion pipeline.
type PipelineConfig struct {
	// Workers is the number of concurrent document processors.
	Workers int

	// EmbedTimeout bounds a single embedding call.
	EmbedTimeout time.Duration

	// ShutdownTimeout bounds how long Stop waits for in-flight work.
	ShutdownTimeout time.Duration

	// EmbedRate limits embedding calls per second across all workers.
	EmbedRate rate.Limit

	// EmbedBurst is the rate limiter burst size.
	EmbedBurst int
}

// job is one unit of queued ingestion work.
type job struct {
	docID string
	path  string
}

// Pipeline processes documents asynchronously: extract, chunk, embed,
// persist. One document is handled by one worker at a time; concurrency
// comes from processing different documents in parallel.
type Pipeline struct {
	store      driven.DocumentStore
	embedder   driven.EmbeddingService
	chunker    driven.Chunker
	extractors []driven.TextExtractor
	cfg        PipelineConfig
	limiter    *rate.Limiter

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []job
	running  bool
	stopping bool
	wg       sync.WaitGroup

	obsMu     sync.Mutex
	observers map[string]chan domain.ProgressEvent
}

var _ driving.IngestionPipeline = (*Pipeline)(nil)

// NewPipeline creates an ingestion pipeline. Zero-valued config fields
// take defaults.
func NewPipeline(
	store driven.DocumentStore,
	embedder driven.EmbeddingService,
	chunker driven.Chunker,
	extractors []driven.TextExtractor,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = DefaultEmbedTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.EmbedRate <= 0 {
		cfg.EmbedRate = DefaultEmbedRate
	}
	if cfg.EmbedBurst <= 0 {
		cfg.EmbedBurst = DefaultEmbedBurst
	}

	p := &Pipeline{
		store:      store,
		embedder:   embedder,
		chunker:    chunker,
		extractors: extractors,
		cfg:        cfg,
		limiter:    rate.NewLimiter(cfg.EmbedRate, cfg.EmbedBurst),
		observers:  make(map[string]chan domain.ProgressEvent),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Start launches the worker pool. Calling Start on a running pipeline is
// a no-op.
func (p *Pipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stopping = false

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	logger.Info("pipeline started with %d workers", p.cfg.Workers)
}

// Stop drains workers and rejects further submissions. Workers finish
// the document they are on; queued work is abandoned.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.stopping = true
	p.running = false
	p.cond.Broadcast()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("pipeline stopped")
	case <-time.After(p.cfg.ShutdownTimeout):
		logger.Warn("pipeline stop timed out after %s", p.cfg.ShutdownTimeout)
	}

	p.obsMu.Lock()
	for id, ch := range p.observers {
		close(ch)
		delete(p.observers, id)
	}
	p.obsMu.Unlock()
}

// QueueDocument fingerprints the file at path and enqueues it for
// processing. Identical content resolves to the existing document:
// completed documents report completion immediately, in-flight ones
// attach to the existing processing, and failed ones are retried.
func (p *Pipeline) QueueDocument(ctx context.Context, path, name string) (string, <-chan domain.ProgressEvent, error) {
	// Without an embedder a worker could not process the document.
	// Refuse here so the failure reaches the caller instead of a worker.
	if p.embedder == nil {
		return "", nil, fmt.Errorf("%w: embedding service (set the OpenAI API key)", domain.ErrNotConfigured)
	}

	p.mu.Lock()
	accepting := p.running && !p.stopping
	p.mu.Unlock()
	if !accepting {
		return "", nil, domain.ErrPipelineStopped
	}

	fingerprint, size, err := fingerprintFile(path)
	if err != nil {
		return "", nil, err
	}

	doc := &domain.Document{
		ID:          uuid.New().String(),
		Name:        name,
		Fingerprint: fingerprint,
		Size:        size,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	stored, created, err := p.store.AddDocument(ctx, doc)
	if err != nil {
		return "", nil, fmt.Errorf("registering document: %w", err)
	}

	// Already-completed content needs no reprocessing.
	if !created && stored.Status == domain.StatusCompleted {
		ch := make(chan domain.ProgressEvent, 1)
		ch <- domain.ProgressEvent{
			DocumentID: stored.ID,
			Status:     domain.StatusCompleted,
			Percent:    100,
			Message:    "already ingested",
		}
		close(ch)
		return stored.ID, ch, nil
	}

	events := p.registerObserver(stored.ID)

	// In-flight duplicates just attach to the existing processing.
	if !created && (stored.Status == domain.StatusPending || stored.Status == domain.StatusProcessing) {
		return stored.ID, events, nil
	}

	// New documents and failed retries go onto the queue.
	if !created && stored.Status == domain.StatusFailed {
		if err := p.store.SetStatus(ctx, stored.ID, domain.StatusPending, ""); err != nil {
			p.closeObserver(stored.ID)
			return "", nil, fmt.Errorf("resetting failed document: %w", err)
		}
	}

	p.emit(stored.ID, domain.StatusPending, 0, "queued")

	p.mu.Lock()
	p.queue = append(p.queue, job{docID: stored.ID, path: path})
	p.cond.Signal()
	p.mu.Unlock()

	logger.Debug("queued document %s (%s)", stored.ID, name)
	return stored.ID, events, nil
}

// DeleteDocument removes a document and its chunks. A queued job for a
// deleted document becomes a silent no-op when a worker picks it up.
func (p *Pipeline) DeleteDocument(ctx context.Context, id string) error {
	if err := p.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	p.closeObserver(id)
	return nil
}

// ListDocuments returns known documents, optionally restricted to a
// single status.
func (p *Pipeline) ListDocuments(ctx context.Context, status domain.DocumentStatus) ([]domain.Document, error) {
	return p.store.ListDocuments(ctx, status)
}

// GetDocument returns a single document by ID.
func (p *Pipeline) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return p.store.GetDocument(ctx, id)
}

// GetChunks returns a document's chunks ordered by index.
func (p *Pipeline) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := p.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return p.store.GetChunks(ctx, documentID)
}

// Stats reports document counts, chunk totals and queue state.
func (p *Pipeline) Stats(ctx context.Context) (*domain.Stats, error) {
	byStatus, totalChunks, err := p.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	depth := len(p.queue)
	p.mu.Unlock()

	return &domain.Stats{
		DocumentsByStatus: byStatus,
		TotalChunks:       totalChunks,
		QueueDepth:        depth,
		Workers:           p.cfg.Workers,
	}, nil
}

// worker pulls jobs off the queue until the pipeline stops.
func (p *Pipeline) worker(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopping {
			p.cond.Wait()
		}
		if p.stopping {
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.process(j)
	}
}

// process runs one document through extract, chunk, embed and persist.
func (p *Pipeline) process(j job) {
	ctx := context.Background()

	doc, err := p.store.GetDocument(ctx, j.docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted while queued.
			logger.Debug("skipping deleted document %s", j.docID)
			return
		}
		logger.Error("loading queued document %s: %v", j.docID, err)
		return
	}

	if err := p.store.SetStatus(ctx, doc.ID, domain.StatusProcessing, ""); err != nil {
		logger.Error("marking document %s processing: %v", doc.ID, err)
		return
	}
	p.emit(doc.ID, domain.StatusProcessing, 10, "extracting text")

	result, err := p.extract(ctx, j.path)
	if err != nil {
		p.fail(ctx, doc.ID, fmt.Sprintf("extraction failed: %v", err))
		return
	}
	if err := p.store.SetPageCount(ctx, doc.ID, result.PageCount); err != nil {
		logger.Warn("recording page count for %s: %v", doc.ID, err)
	}
	p.emit(doc.ID, domain.StatusProcessing, 30, fmt.Sprintf("extracted %d pages", result.PageCount))

	chunks := p.chunker.Chunk(doc.ID, result.Text)
	if len(chunks) == 0 {
		p.fail(ctx, doc.ID, domain.ErrNoTextExtracted.Error())
		return
	}
	p.emit(doc.ID, domain.StatusProcessing, 40, fmt.Sprintf("chunked into %d segments", len(chunks)))

	embedded, aborted := p.embedChunks(ctx, doc.ID, chunks)
	if aborted != nil {
		p.fail(ctx, doc.ID, fmt.Sprintf("embedding aborted: %v", aborted))
		return
	}
	if embedded == 0 {
		p.fail(ctx, doc.ID, domain.ErrNoChunksEmbedded.Error())
		return
	}

	p.emit(doc.ID, domain.StatusProcessing, 90, "persisting chunks")
	if err := p.store.AddChunks(ctx, doc.ID, chunks); err != nil {
		p.fail(ctx, doc.ID, fmt.Sprintf("persisting chunks: %v", err))
		return
	}

	if err := p.store.SetStatus(ctx, doc.ID, domain.StatusCompleted, ""); err != nil {
		logger.Error("marking document %s completed: %v", doc.ID, err)
		return
	}
	p.emit(doc.ID, domain.StatusCompleted, 100,
		fmt.Sprintf("ingested %d chunks (%d embedded)", len(chunks), embedded))
	logger.Info("document %s completed: %d/%d chunks embedded", doc.ID, embedded, len(chunks))
}

// embedChunks embeds each chunk in place, rate limited. Transient
// failures skip the chunk; a permanent failure aborts. Returns the
// number of successfully embedded chunks.
func (p *Pipeline) embedChunks(ctx context.Context, docID string, chunks []domain.Chunk) (int, error) {
	embedded := 0
	for i := range chunks {
		if err := p.limiter.Wait(ctx); err != nil {
			return embedded, err
		}

		embedCtx, cancel := context.WithTimeout(ctx, p.cfg.EmbedTimeout)
		vec, err := p.embedder.Embed(embedCtx, chunks[i].Text)
		cancel()

		if err != nil {
			if errors.Is(err, domain.ErrPermanent) {
				return embedded, err
			}
			logger.Warn("skipping chunk %d of %s: %v", chunks[i].Index, docID, err)
			continue
		}

		chunks[i].Embedding = vec
		embedded++

		// 40 to 90 percent tracks embedding progress.
		percent := 40 + (i+1)*50/len(chunks)
		p.emit(docID, domain.StatusProcessing, percent,
			fmt.Sprintf("embedded chunk %d of %d", i+1, len(chunks)))
	}
	return embedded, nil
}

// extract finds an extractor for path and runs it.
func (p *Pipeline) extract(ctx context.Context, path string) (*driven.ExtractResult, error) {
	for _, e := range p.extractors {
		if e.Supports(path) {
			return e.Extract(ctx, path)
		}
	}
	return nil, fmt.Errorf("%w: unsupported file type: %s", domain.ErrInvalidInput, path)
}

// fail marks a document failed and notifies observers.
func (p *Pipeline) fail(ctx context.Context, docID, message string) {
	if err := p.store.SetStatus(ctx, docID, domain.StatusFailed, message); err != nil {
		logger.Error("marking document %s failed: %v", docID, err)
	}
	logger.Error("document %s failed: %s", docID, message)
	p.emit(docID, domain.StatusFailed, 100, message)
}

// registerObserver creates (or reuses) the event channel for a document.
func (p *Pipeline) registerObserver(docID string) chan domain.ProgressEvent {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()
	if ch, ok := p.observers[docID]; ok {
		return ch
	}
	ch := make(chan domain.ProgressEvent, observerBuffer)
	p.observers[docID] = ch
	return ch
}

// closeObserver closes and removes a document's event channel.
func (p *Pipeline) closeObserver(docID string) {
	p.obsMu.Lock()
	defer p.obsMu.Unlock()
	if ch, ok := p.observers[docID]; ok {
		close(ch)
		delete(p.observers, docID)
	}
}

// emit delivers an event to the document's observer without blocking.
// Terminal events close the channel.
func (p *Pipeline) emit(docID string, status domain.DocumentStatus, percent int, message string) {
	event := domain.ProgressEvent{
		DocumentID: docID,
		Status:     status,
		Percent:    percent,
		Message:    message,
	}

	p.obsMu.Lock()
	defer p.obsMu.Unlock()

	ch, ok := p.observers[docID]
	if !ok {
		return
	}

	select {
	case ch <- event:
	default:
		// Full buffer drops the event. Terminal states are still
		// signalled by the close below.
	}

	if status.IsTerminal() {
		close(ch)
		delete(p.observers, docID)
	}
}

// fingerprintFile hashes the file content with SHA-256.
func fingerprintFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: opening %s: %v", domain.ErrInvalidInput, path, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), size, nil
}
