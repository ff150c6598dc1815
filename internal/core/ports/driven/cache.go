package driven

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// QueryCache caches retrieval results keyed by query and options.
// Optional: services treat a nil cache as always missing.
type QueryCache interface {
	// Get returns a cached result. ok is false on a miss.
	Get(ctx context.Context, key string) (result *domain.RetrievalResult, ok bool, err error)

	// Set stores a result.
	Set(ctx context.Context, key string, result domain.RetrievalResult) error

	// Invalidate drops every cached result. Called after the index changes.
	Invalidate(ctx context.Context) error
}
