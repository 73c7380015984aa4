package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Store is a SQLite-backed DocumentStore.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.DocumentStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docqa/data/docqa.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docqa", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docqa.db")

	// Open database with WAL mode for better concurrency. Pragmas go in
	// the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Documents ====================

// AddDocument registers a document, deduplicating on fingerprint. The
// insert is a no-op on conflict and the row is re-read afterwards, so two
// concurrent submissions of the same content converge on one record.
func (s *Store) AddDocument(ctx context.Context, doc *domain.Document) (*domain.Document, bool, error) {
	if doc.Fingerprint == "" {
		return nil, false, fmt.Errorf("%w: document fingerprint required", domain.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, fingerprint, size, page_count, chunk_count, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, doc.ID, doc.Name, doc.Fingerprint, doc.Size, doc.PageCount, doc.ChunkCount,
		string(doc.Status), doc.Error, doc.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("inserting document: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("checking insert result: %w", err)
	}

	stored, err := s.GetDocumentByFingerprint(ctx, doc.Fingerprint)
	if err != nil {
		return nil, false, err
	}

	return stored, inserted > 0, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, fingerprint, size, page_count, chunk_count, status, error, created_at, completed_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row.Scan)
}

// GetDocumentByFingerprint retrieves a document by content fingerprint.
func (s *Store) GetDocumentByFingerprint(ctx context.Context, fingerprint string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, fingerprint, size, page_count, chunk_count, status, error, created_at, completed_at
		FROM documents WHERE fingerprint = ?
	`, fingerprint)
	return scanDocument(row.Scan)
}

// ListDocuments returns documents ordered by creation time. A non-empty
// status restricts the result to documents in that state.
func (s *Store) ListDocuments(ctx context.Context, status domain.DocumentStatus) ([]domain.Document, error) {
	query := `
		SELECT id, name, fingerprint, size, page_count, chunk_count, status, error, created_at, completed_at
		FROM documents`
	var args []any
	if status != "" {
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
		}
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// DeleteDocument removes a document; chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// SetStatus transitions a document's lifecycle state. Completion stamps
// completed_at; failure records the message.
func (s *Store) SetStatus(ctx context.Context, id string, status domain.DocumentStatus, message string) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	var (
		res sql.Result
		err error
	)
	switch status {
	case domain.StatusCompleted:
		res, err = s.db.ExecContext(ctx, `
			UPDATE documents SET status = ?, error = '', completed_at = ? WHERE id = ?
		`, string(status), time.Now().UTC(), id)
	case domain.StatusFailed:
		res, err = s.db.ExecContext(ctx, `
			UPDATE documents SET status = ?, error = ? WHERE id = ?
		`, string(status), message, id)
	default:
		res, err = s.db.ExecContext(ctx, `
			UPDATE documents SET status = ?, error = '' WHERE id = ?
		`, string(status), id)
	}
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking status update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// SetPageCount records the extractor-reported page count.
func (s *Store) SetPageCount(ctx context.Context, id string, pages int) error {
	res, err := s.db.ExecContext(ctx, "UPDATE documents SET page_count = ? WHERE id = ?", pages, id)
	if err != nil {
		return fmt.Errorf("updating page count: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking page count update: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ==================== Chunks ====================

// AddChunks stores chunks atomically and updates the parent's chunk count.
func (s *Store) AddChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, seq, content, token_count, start_sentence, end_sentence, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, seq) DO UPDATE SET
			content = excluded.content,
			token_count = excluded.token_count,
			start_sentence = excluded.start_sentence,
			end_sentence = excluded.end_sentence,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, documentID, chunk.Index, chunk.Text,
			chunk.TokenCount, chunk.StartSentence, chunk.EndSentence, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk %d: %w", chunk.Index, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "UPDATE documents SET chunk_count = ? WHERE id = ?",
		len(chunks), documentID); err != nil {
		return fmt.Errorf("updating chunk count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}

	return nil
}

// GetChunks retrieves all chunks for a document ordered by index.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, seq, content, token_count, start_sentence, end_sentence, embedding
		FROM chunks WHERE document_id = ? ORDER BY seq
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// GetEmbeddedChunks retrieves embedded chunks across completed documents.
func (s *Store) GetEmbeddedChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.document_id, c.seq, c.content, c.token_count, c.start_sentence, c.end_sentence, c.embedding
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL AND d.status = ?
		ORDER BY c.document_id, c.seq
	`, string(domain.StatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("querying embedded chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// CountEmbeddedChunks reports how many chunks carry an embedding.
func (s *Store) CountEmbeddedChunks(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE embedding IS NOT NULL")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting embedded chunks: %w", err)
	}
	return count, nil
}

// Stats reports document counts per status and the total chunk count.
func (s *Store) Stats(ctx context.Context) (map[domain.DocumentStatus]int, int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM documents GROUP BY status")
	if err != nil {
		return nil, 0, fmt.Errorf("querying status counts: %w", err)
	}
	defer rows.Close()

	byStatus := make(map[domain.DocumentStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, 0, fmt.Errorf("scanning status count: %w", err)
		}
		byStatus[domain.DocumentStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating status counts: %w", err)
	}

	var totalChunks int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&totalChunks); err != nil {
		return nil, 0, fmt.Errorf("counting chunks: %w", err)
	}

	return byStatus, totalChunks, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanDocument scans a document from a row or rows Scan function.
func scanDocument(scan func(dest ...any) error) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var completedAt sql.NullTime

	if err := scan(&doc.ID, &doc.Name, &doc.Fingerprint, &doc.Size, &doc.PageCount,
		&doc.ChunkCount, &status, &doc.Error, &doc.CreatedAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		doc.CompletedAt = &t
	}

	return &doc, nil
}

// scanChunks scans all chunk rows.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte

		if err := rows.Scan(&chunk.DocumentID, &chunk.Index, &chunk.Text,
			&chunk.TokenCount, &chunk.StartSentence, &chunk.EndSentence, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}
