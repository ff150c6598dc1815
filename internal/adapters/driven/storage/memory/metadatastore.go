package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
type MetadataStore struct {
	mu      sync.RWMutex
	records map[string]domain.DocumentRecord
	chunks  map[string][]domain.Chunk
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		records: make(map[string]domain.DocumentRecord),
		chunks:  make(map[string][]domain.Chunk),
	}
}

// Get retrieves a record by document id.
func (s *MetadataStore) Get(_ context.Context, docID string) (*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Chunks retrieves the chunk list of a document.
func (s *MetadataStore) Chunks(_ context.Context, docID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(chunks), nil
}

// Put replaces a record and its chunk list.
func (s *MetadataStore) Put(_ context.Context, record domain.DocumentRecord, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.DocID] = record
	s.chunks[record.DocID] = slices.Clone(chunks)
	return nil
}

// Delete removes a record and its chunk list.
func (s *MetadataStore) Delete(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, docID)
	delete(s.chunks, docID)
	return nil
}

// List returns all records ordered by document id.
func (s *MetadataStore) List(_ context.Context) ([]domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DocumentRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })
	return out, nil
}
