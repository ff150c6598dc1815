package driven

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// VectorIndex stores chunk entries and answers similarity queries.
// Implementations embed text themselves through an EmbeddingService.
//
// Errors that indicate an unreachable or temporarily unavailable service
// must satisfy domain.IsTransient so callers can retry them.
type VectorIndex interface {
	// EnsureCollection creates the backing collection if it does not exist.
	EnsureCollection(ctx context.Context) error

	// Upsert writes entries, replacing any with the same chunk id.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Delete removes entries by chunk id. Unknown ids are ignored.
	Delete(ctx context.Context, chunkIDs []string) error

	// Query returns up to k hits for text that satisfy filter,
	// ordered by RelevanceScore descending.
	Query(ctx context.Context, text string, k int, filter domain.SearchFilter) ([]domain.SearchHit, error)

	// Heartbeat is a cheap liveness probe.
	Heartbeat(ctx context.Context) error

	// Close releases resources.
	Close() error
}
