package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// Validate reports every configuration problem at once.
// The error wraps domain.ErrConfiguration.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Index.Backend {
	case BackendChroma:
		if u, err := url.Parse(c.Index.URL); err != nil || u.Scheme == "" || u.Host == "" {
			add("index.url %q is not an absolute URL", c.Index.URL)
		}
	case BackendSQLite, BackendMemory:
	default:
		add("index.backend %q must be one of chroma, sqlite, memory", c.Index.Backend)
	}

	switch c.Embedding.Provider {
	case ProviderGemini, ProviderOpenAI:
		if c.Embedding.APIKey == "" && c.Index.Backend != BackendMemory {
			add("embedding.api_key is required for provider %s", c.Embedding.Provider)
		}
	case ProviderOllama:
	default:
		add("embedding.provider %q must be one of gemini, openai, ollama", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		add("embedding.dimensions must not be negative")
	}

	for i, s := range c.Sync.Sources {
		if strings.TrimSpace(s.URL) == "" {
			add("sync.sources[%d].url is empty", i)
		}
	}
	for _, ext := range c.Sync.Extensions {
		if !strings.HasPrefix(ext, ".") {
			add("sync.extensions entry %q must start with a dot", ext)
		}
	}
	if c.Sync.MinInterval.Duration < 0 {
		add("sync.min_interval must not be negative")
	}
	if c.Sync.LockTimeout.Duration <= 0 {
		add("sync.lock_timeout must be positive")
	}
	if c.Sync.CheckInterval.Duration <= 0 {
		add("sync.check_interval must be positive")
	}

	r := c.Retrieval
	if r.MaxResults < 0 {
		add("retrieval.max_results must not be negative")
	}
	if r.MinRelevanceScore < 0 || r.MinRelevanceScore > 1 {
		add("retrieval.min_relevance_score must be within [0, 1]")
	}
	if r.MaxContextLength < 0 {
		add("retrieval.max_context_length must not be negative")
	}

	if c.Cache.RedisURL != "" && !strings.HasPrefix(c.Cache.RedisURL, "redis://") &&
		!strings.HasPrefix(c.Cache.RedisURL, "rediss://") {
		add("cache.redis_url must start with redis:// or rediss://")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
}

// RetrieveOptions returns the retrieval defaults from the configuration.
func (c *Config) RetrieveOptions() domain.RetrieveOptions {
	opts := domain.DefaultRetrieveOptions()
	if c.Retrieval.MaxResults > 0 {
		opts.MaxResults = c.Retrieval.MaxResults
	}
	if c.Retrieval.MinRelevanceScore > 0 {
		opts.MinRelevanceScore = c.Retrieval.MinRelevanceScore
	}
	if c.Retrieval.MaxContextLength > 0 {
		opts.MaxContextLength = c.Retrieval.MaxContextLength
	}
	if c.Retrieval.FullDocuments != nil {
		opts.IncludeFullDocuments = *c.Retrieval.FullDocuments
	}
	opts.IncludeMetadata = c.Retrieval.IncludeMetadata
	return opts
}

// Sources returns the configured sources, normalised.
func (c *Config) Sources() ([]domain.Source, error) {
	out := make([]domain.Source, 0, len(c.Sync.Sources))
	for _, s := range c.Sync.Sources {
		src, err := domain.NewSource(s.URL, s.Branch)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}
