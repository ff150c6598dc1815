package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure QueryCache implements the interface.
var _ driven.QueryCache = (*QueryCache)(nil)

// QueryCache is an in-memory implementation of driven.QueryCache.
type QueryCache struct {
	mu      sync.RWMutex
	results map[string]domain.RetrievalResult
}

// NewQueryCache creates a new in-memory query cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{results: make(map[string]domain.RetrievalResult)}
}

// Get returns a cached result.
func (c *QueryCache) Get(_ context.Context, key string) (*domain.RetrievalResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.results[key]
	if !ok {
		return nil, false, nil
	}
	return &res, true, nil
}

// Set stores a result.
func (c *QueryCache) Set(_ context.Context, key string, result domain.RetrievalResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = result
	return nil
}

// Invalidate drops all cached results.
func (c *QueryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.results)
	return nil
}

// Len returns the number of cached results.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}
