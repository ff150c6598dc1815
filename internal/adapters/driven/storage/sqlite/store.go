package sqlite

import (
	"container/heap"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// settingModel is the collection setting holding the embedding model name.
const settingModel = "embedding_model"

// Store is a SQLite-backed vector index.
type Store struct {
	db       *sql.DB
	path     string
	embedder driven.EmbeddingService
}

// NewStore opens the vector index in dataDir, creating it if needed.
// If dataDir is empty, defaults to ~/.docsync/data.
func NewStore(dataDir string, embedder driven.EmbeddingService) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("sqlite: %w: embedding service is required", domain.ErrConfiguration)
	}
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docsync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		embedder: embedder,
	}

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
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_init.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

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

// EnsureCollection records the embedding model on first use and refuses
// to mix vectors from a different model afterwards.
func (s *Store) EnsureCollection(ctx context.Context) error {
	model := s.embedder.ModelName()

	var stored string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM collection_settings WHERE key = ?", settingModel).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO collection_settings (key, value) VALUES (?, ?)", settingModel, model); err != nil {
			return fmt.Errorf("recording embedding model: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("reading embedding model: %w", err)
	case stored != model:
		return fmt.Errorf("%w: index was built with embedding model %q, configured model is %q; remove %s to rebuild",
			domain.ErrConfiguration, stored, model, s.path)
	}
	return nil
}

// Upsert embeds and writes entries in one transaction.
func (s *Store) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(entries), err)
	}
	if len(vectors) != len(entries) {
		return fmt.Errorf("embedding returned %d vectors for %d chunks", len(vectors), len(entries))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, doc_id, chunk_type, document_type, content, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			doc_id = excluded.doc_id,
			chunk_type = excluded.chunk_type,
			document_type = excluded.document_type,
			content = excluded.content,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ChunkID, e.Metadata.DocID, string(e.Metadata.ChunkType),
			e.Metadata.DocumentType, e.Content, encodeFloat32s(vectors[i])); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", e.ChunkID, err)
		}
	}

	return tx.Commit()
}

// Delete removes entries by chunk id. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	args := make([]any, len(chunkIDs))
	for i, id := range chunkIDs {
		args[i] = id
	}
	query := "DELETE FROM chunks WHERE id IN (?" + strings.Repeat(",?", len(chunkIDs)-1) + ")"
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting %d chunks: %w", len(chunkIDs), err)
	}
	return nil
}

// Query embeds text and returns the k most similar entries matching filter.
// The relevance score is the cosine similarity clamped to [0,1].
func (s *Store) Query(
	ctx context.Context, text string, k int, filter domain.SearchFilter,
) ([]domain.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryNorm := norm(vector)
	if queryNorm == 0 {
		return nil, nil
	}

	// Phase 1: scan only id + embedding to find top-K candidates.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, embedding FROM chunks
		WHERE (? = '' OR chunk_type = ?) AND (? = '' OR document_type = ?)`,
		string(filter.ChunkType), string(filter.ChunkType), filter.DocumentType, filter.DocumentType)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	h := &idScoreHeap{}
	heap.Init(h)
	var buf []float32
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		buf, err = decodeFloat32sInto(buf, blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", id, err)
		}
		if len(buf) != len(vector) {
			continue
		}

		score := cosine(vector, buf, queryNorm)
		if h.Len() < k {
			heap.Push(h, idScore{ID: id, Score: score})
		} else if score > (*h)[0].Score {
			(*h)[0] = idScore{ID: id, Score: score}
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	if h.Len() == 0 {
		return nil, nil
	}

	// Phase 2: fetch full rows only for the winners.
	ids := make([]any, h.Len())
	scores := make(map[string]float32, h.Len())
	for i := len(ids) - 1; i >= 0; i-- {
		item := heap.Pop(h).(idScore)
		ids[i] = item.ID
		scores[item.ID] = item.Score
	}

	full, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, chunk_type, document_type, content FROM chunks
		WHERE id IN (?`+strings.Repeat(",?", len(ids)-1)+`)`, ids...)
	if err != nil {
		return nil, fmt.Errorf("fetching top-k chunks: %w", err)
	}
	defer full.Close()

	hits := make([]domain.SearchHit, 0, len(ids))
	for full.Next() {
		var hit domain.SearchHit
		var chunkType string
		if err := full.Scan(&hit.ChunkID, &hit.DocID, &chunkType, &hit.DocumentType, &hit.Content); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		hit.ChunkType = domain.ChunkType(chunkType)
		hit.RelevanceScore = clampScore(scores[hit.ChunkID])
		hits = append(hits, hit)
	}
	if err := full.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	// IN does not preserve order.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].RelevanceScore != hits[j].RelevanceScore {
			return hits[i].RelevanceScore > hits[j].RelevanceScore
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	return hits, nil
}

// Heartbeat pings the database.
func (s *Store) Heartbeat(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}
