package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure VectorStore implements the interface.
var _ driving.DocumentIndex = (*VectorStore)(nil)

// VectorStoreConfig tunes batched writes to the vector index.
type VectorStoreConfig struct {
	// BatchSize is the number of entries per index upsert.
	BatchSize int

	// BatchDelay is the pause between consecutive batches.
	BatchDelay time.Duration

	// BatchAttempts is the number of tries per batch.
	BatchAttempts int

	// BatchBackoff is multiplied by the attempt number between batch retries.
	BatchBackoff time.Duration

	// PingTimeout bounds the liveness probe.
	PingTimeout time.Duration

	// Calls configures the gate and retry applied to every index call.
	Calls IndexCallPolicy
}

// DefaultVectorStoreConfig returns the default configuration.
func DefaultVectorStoreConfig() VectorStoreConfig {
	return VectorStoreConfig{
		BatchSize:     100,
		BatchDelay:    500 * time.Millisecond,
		BatchAttempts: 3,
		BatchBackoff:  2 * time.Second,
		PingTimeout:   5 * time.Second,
		Calls:         DefaultIndexCallPolicy(),
	}
}

// VectorStore keeps the vector index and the metadata store in step.
// Each document's chunk list in the metadata store mirrors the entries
// written to the index for it.
type VectorStore struct {
	index   *gatedIndex
	meta    driven.MetadataStore
	chunker driven.Chunker
	cache   driven.QueryCache
	cfg     VectorStoreConfig
	log     *logger.Logger

	// Overridable in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewVectorStore creates a vector store client over index and meta.
// Zero fields of cfg take their defaults.
func NewVectorStore(
	index driven.VectorIndex,
	meta driven.MetadataStore,
	chunker driven.Chunker,
	cfg VectorStoreConfig,
	log *logger.Logger,
) *VectorStore {
	def := DefaultVectorStoreConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = def.BatchDelay
	}
	if cfg.BatchAttempts <= 0 {
		cfg.BatchAttempts = def.BatchAttempts
	}
	if cfg.BatchBackoff <= 0 {
		cfg.BatchBackoff = def.BatchBackoff
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = def.PingTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.With("vectorstore")

	return &VectorStore{
		index:   newGatedIndex(index, cfg.Calls, log),
		meta:    meta,
		chunker: chunker,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// SetQueryCache sets the cache invalidated whenever the index changes.
func (s *VectorStore) SetQueryCache(cache driven.QueryCache) {
	s.cache = cache
}

// Upsert chunks content, writes the chunks to the index in batches and
// then records the document and its chunk list. It returns the number
// of chunks written. Entries of a previous version of the document are
// deleted from the index before the first batch is written.
//
// A batch that fails all its attempts aborts the upsert. Batches already
// written stay in the index and the metadata store is left unchanged.
func (s *VectorStore) Upsert(ctx context.Context, docID, content, documentType string) (int, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return 0, fmt.Errorf("upsert: %w: empty document id", domain.ErrInvalidInput)
	}

	chunks := s.chunker.Chunk(content)
	entries := make([]domain.IndexEntry, 0, len(chunks))
	for _, c := range chunks {
		entry := domain.NewIndexEntry(docID, documentType, c)
		if err := entry.Metadata.Validate(); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", docID, err)
		}
		entries = append(entries, entry)
	}
	s.log.Debug("upserting %s: %d chunks", docID, len(chunks))

	if err := s.index.EnsureCollection(ctx); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", docID, err)
	}

	existing, err := s.meta.Get(ctx, docID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("upsert %s: read metadata: %w", docID, err)
	}
	if existing != nil {
		if err := s.deleteChunks(ctx, docID); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", docID, err)
		}
	}

	for start := 0; start < len(entries); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(entries))
		if err := s.upsertBatch(ctx, entries[start:end]); err != nil {
			return 0, fmt.Errorf("upsert %s: batch at %d: %w", docID, start, err)
		}
		if end < len(entries) {
			if err := s.sleep(ctx, s.cfg.BatchDelay); err != nil {
				return 0, fmt.Errorf("upsert %s: %w", docID, err)
			}
		}
	}

	now := s.now().UTC()
	record := domain.DocumentRecord{
		DocID:        docID,
		Content:      content,
		DocumentType: documentType,
		CreatedAt:    now,
		LastModified: now,
	}
	if existing != nil {
		record.CreatedAt = existing.CreatedAt
	}

	if err := s.meta.Put(ctx, record, chunks); err != nil {
		return 0, fmt.Errorf("upsert %s: save metadata: %w", docID, err)
	}
	s.invalidate(ctx)

	return len(chunks), nil
}

// upsertBatch writes one batch with linear backoff between attempts.
func (s *VectorStore) upsertBatch(ctx context.Context, batch []domain.IndexEntry) error {
	var err error
	for attempt := 0; attempt < s.cfg.BatchAttempts; attempt++ {
		if err = s.index.Upsert(ctx, batch); err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == s.cfg.BatchAttempts-1 {
			break
		}
		wait := s.cfg.BatchBackoff * time.Duration(attempt+1)
		s.log.Warn("batch upsert failed (attempt %d/%d), retrying in %s: %v",
			attempt+1, s.cfg.BatchAttempts, wait, err)
		if serr := s.sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	return err
}

// Remove deletes a document's index entries and metadata.
// Unknown documents are a no-op.
func (s *VectorStore) Remove(ctx context.Context, docID string) error {
	if _, err := s.meta.Get(ctx, docID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("remove %s: read metadata: %w", docID, err)
	}

	if err := s.deleteChunks(ctx, docID); err != nil {
		return fmt.Errorf("remove %s: %w", docID, err)
	}

	if err := s.meta.Delete(ctx, docID); err != nil {
		return fmt.Errorf("remove %s: delete metadata: %w", docID, err)
	}
	s.log.Debug("removed %s", docID)
	s.invalidate(ctx)
	return nil
}

// deleteChunks deletes the index entries recorded for docID.
func (s *VectorStore) deleteChunks(ctx context.Context, docID string) error {
	chunks, err := s.meta.Chunks(ctx, docID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("read chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	if err := s.index.Delete(ctx, ids); err != nil {
		return err
	}
	s.log.Debug("deleted %d index entries of %s", len(ids), docID)
	return nil
}

// Search returns up to k hits for query matching filter.
func (s *VectorStore) Search(
	ctx context.Context, query string, k int, filter domain.SearchFilter,
) ([]domain.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}
	hits, err := s.index.Query(ctx, query, k, filter)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Document returns the stored record for docID.
func (s *VectorStore) Document(ctx context.Context, docID string) (*domain.DocumentRecord, error) {
	return s.meta.Get(ctx, docID)
}

// Documents lists stored records.
func (s *VectorStore) Documents(ctx context.Context) ([]domain.DocumentRecord, error) {
	return s.meta.List(ctx)
}

// Chunks returns the chunks recorded for docID.
func (s *VectorStore) Chunks(ctx context.Context, docID string) ([]domain.Chunk, error) {
	return s.meta.Chunks(ctx, docID)
}

// Ping probes the vector index with its own short timeout.
func (s *VectorStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PingTimeout)
	defer cancel()
	if err := s.index.Heartbeat(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Close releases the underlying index.
func (s *VectorStore) Close() error {
	return s.index.Close()
}

func (s *VectorStore) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("query cache invalidation failed: %v", err)
	}
}
