package file

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

const (
	metadataFile = "metadata.json"
	chunkMapFile = "chunkmap.json"
)

// MetadataStore keeps document records and chunk lists in memory and
// persists both files after every change.
type MetadataStore struct {
	mu      sync.RWMutex
	dir     string
	records map[string]domain.DocumentRecord
	chunks  map[string][]domain.Chunk
}

// NewMetadataStore loads the store from dir, creating dir if needed.
// Unreadable files are an error; documents are never dropped silently.
func NewMetadataStore(dir string) (*MetadataStore, error) {
	dir, err := ensureDir(dir)
	if err != nil {
		return nil, err
	}

	s := &MetadataStore{
		dir:     dir,
		records: make(map[string]domain.DocumentRecord),
		chunks:  make(map[string][]domain.Chunk),
	}
	if _, err := readJSON(s.path(metadataFile), &s.records); err != nil {
		return nil, err
	}
	if _, err := readJSON(s.path(chunkMapFile), &s.chunks); err != nil {
		return nil, err
	}
	for id, rec := range s.records {
		rec.DocID = id
		s.records[id] = rec
	}
	return s, nil
}

func (s *MetadataStore) path(name string) string {
	return filepath.Join(s.dir, name)
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

// Put replaces a record and its chunk list and persists both.
func (s *MetadataStore) Put(_ context.Context, record domain.DocumentRecord, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevRec, hadRec := s.records[record.DocID]
	prevChunks, hadChunks := s.chunks[record.DocID]

	s.records[record.DocID] = record
	s.chunks[record.DocID] = slices.Clone(chunks)
	if err := s.persist(); err != nil {
		// Keep memory consistent with disk.
		if hadRec {
			s.records[record.DocID] = prevRec
		} else {
			delete(s.records, record.DocID)
		}
		if hadChunks {
			s.chunks[record.DocID] = prevChunks
		} else {
			delete(s.chunks, record.DocID)
		}
		return fmt.Errorf("save %s: %w", record.DocID, err)
	}
	return nil
}

// Delete removes a record and its chunk list and persists both.
func (s *MetadataStore) Delete(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[docID]; !ok {
		if _, ok := s.chunks[docID]; !ok {
			return nil
		}
	}
	delete(s.records, docID)
	delete(s.chunks, docID)
	if err := s.persist(); err != nil {
		return fmt.Errorf("delete %s: %w", docID, err)
	}
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

// persist writes both files (caller must hold lock).
func (s *MetadataStore) persist() error {
	if err := writeJSON(s.path(metadataFile), s.records); err != nil {
		return err
	}
	return writeJSON(s.path(chunkMapFile), s.chunks)
}
