package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory driven.VectorIndex that scores entries by
// keyword overlap instead of embeddings. The score is the fraction of
// query terms found in the entry, so it lies in [0,1].
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]domain.IndexEntry
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{entries: make(map[string]domain.IndexEntry)}
}

// EnsureCollection is a no-op.
func (v *VectorIndex) EnsureCollection(_ context.Context) error {
	return nil
}

// Upsert stores entries by chunk id.
func (v *VectorIndex) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, e := range entries {
		v.entries[e.ChunkID] = e
	}
	return nil
}

// Delete removes entries by chunk id.
func (v *VectorIndex) Delete(_ context.Context, chunkIDs []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, id := range chunkIDs {
		delete(v.entries, id)
	}
	return nil
}

// Query returns entries containing any query term, best first.
func (v *VectorIndex) Query(
	_ context.Context, text string, k int, filter domain.SearchFilter,
) ([]domain.SearchHit, error) {
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 || k <= 0 {
		return nil, nil
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var hits []domain.SearchHit
	for _, e := range v.entries {
		hit := domain.SearchHit{
			DocID:        e.Metadata.DocID,
			ChunkID:      e.ChunkID,
			Content:      e.Content,
			ChunkType:    e.Metadata.ChunkType,
			DocumentType: e.Metadata.DocumentType,
		}
		if !hit.Matches(filter) {
			continue
		}

		content := strings.ToLower(e.Content)
		matched := 0
		for _, t := range terms {
			if strings.Contains(content, t) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hit.RelevanceScore = float64(matched) / float64(len(terms))
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].RelevanceScore != hits[j].RelevanceScore {
			return hits[i].RelevanceScore > hits[j].RelevanceScore
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Heartbeat always succeeds.
func (v *VectorIndex) Heartbeat(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}

// Len returns the number of stored entries.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// Has reports whether an entry with chunkID is stored.
func (v *VectorIndex) Has(chunkID string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.entries[chunkID]
	return ok
}
