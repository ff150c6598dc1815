// Package redis caches retrieval results in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure QueryCache implements the interface.
var _ driven.QueryCache = (*QueryCache)(nil)

// Default configuration values.
const (
	DefaultTTL       = time.Hour
	DefaultKeyPrefix = "docsync:query:"
)

// Config holds the cache connection settings.
type Config struct {
	// URL is a redis:// or rediss:// connection URL (required).
	URL string

	// TTL is how long a result stays cached (default: 1h).
	TTL time.Duration

	// KeyPrefix namespaces cache keys (default: docsync:query:).
	KeyPrefix string
}

// QueryCache stores retrieval results as JSON under prefixed keys.
type QueryCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

// New connects to Redis and returns a cache.
func New(ctx context.Context, cfg Config) (*QueryCache, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w: %w", domain.ErrConfiguration, err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, cfg Config) *QueryCache {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &QueryCache{client: client, ttl: cfg.TTL, prefix: cfg.KeyPrefix}
}

// Get returns the cached result for key. A corrupt entry is deleted and
// reported as a miss.
func (c *QueryCache) Get(ctx context.Context, key string) (*domain.RetrievalResult, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get: %w", err)
	}

	var res domain.RetrievalResult
	if err := json.Unmarshal(data, &res); err != nil {
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return nil, false, nil
	}
	return &res, true, nil
}

// Set stores result under key with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, key string, result domain.RetrievalResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis: marshal result: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

// Invalidate deletes every key under the prefix.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis: delete keys: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis: scan: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis: delete keys: %w", err)
		}
	}
	return nil
}

// Close closes the client.
func (c *QueryCache) Close() error {
	return c.client.Close()
}
