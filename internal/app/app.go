// Package app builds the docsync object graph from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docsync/internal/adapters/driven/ai"
	"github.com/custodia-labs/docsync/internal/adapters/driven/cache/redis"
	configfile "github.com/custodia-labs/docsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsync/internal/adapters/driven/extractor/pdf"
	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync/internal/config"
	"github.com/custodia-labs/docsync/internal/connectors/github"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/services"
	"github.com/custodia-labs/docsync/internal/logger"
	"github.com/custodia-labs/docsync/internal/postprocessors/chunker"
)

// App holds the services behind every driving adapter.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	Store     *services.VectorStore
	Retriever *services.RetrievalEngine
	Sync      *services.SyncCoordinator
	Ingest    *services.IngestService
	Prompts   *services.PromptService
	Scheduler *services.Scheduler

	// Files is nil when no repository is configured.
	Files *services.FileService

	closers []func() error
}

type stores struct {
	meta        driven.MetadataStore
	checkpoints driven.CheckpointStore
	locks       driven.LockStore
}

// New validates cfg and wires every component. Nothing contacts the
// index or GitHub until first use, except the Redis ping.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Discard()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sources, err := cfg.Sources()
	if err != nil {
		return nil, fmt.Errorf("sync sources: %w", err)
	}

	a := &App{Config: cfg, Log: log}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	backends, err := ai.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { backends.Close(); return nil })
	log.Debug("index backend %s, embedding provider %s", cfg.Index.Backend, cfg.Embedding.Provider)

	st, err := newStores(cfg)
	if err != nil {
		return nil, err
	}

	a.Store = services.NewVectorStore(backends.VectorIndex, st.meta, chunker.New(), services.VectorStoreConfig{
		Calls: services.IndexCallPolicy{CallTimeout: cfg.Index.Timeout.Duration},
	}, log)
	a.Retriever = services.NewRetrievalEngine(a.Store, log)

	cache, err := newQueryCache(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		a.Store.SetQueryCache(cache)
		a.Retriever.SetQueryCache(cache)
	}

	client, err := github.NewClient(ctx, github.ClientConfig{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	repo := github.NewRepository(client, log)
	a.closers = append(a.closers, repo.Close)

	extractor := pdf.New()

	a.Sync = services.NewSyncCoordinator(repo, a.Store, st.checkpoints, st.locks, extractor, services.SyncConfig{
		Sources:           sources,
		AllowedExtensions: cfg.Sync.Extensions,
		MinInterval:       cfg.Sync.MinInterval.Duration,
		LockTimeout:       cfg.Sync.LockTimeout.Duration,
	}, log)
	a.Ingest = services.NewIngestService(a.Store, extractor, cfg.Sync.Extensions, log)
	a.Scheduler = services.NewScheduler(a.Sync, cfg.Sync.CheckInterval.Duration, log)

	if cfg.Files.URL != "" {
		src, err := domain.NewSource(cfg.Files.URL, cfg.Files.Branch)
		if err != nil {
			return nil, fmt.Errorf("files source: %w", err)
		}
		a.Files = services.NewFileService(repo, src, log)
	}

	prompts, err := configfile.NewPromptStore(cfg.Data.PromptsDir)
	if err != nil {
		return nil, err
	}
	a.Prompts = services.NewPromptService(a.Retriever, prompts, log)

	ok = true
	return a, nil
}

// newStores returns file-backed stores under the data dir, or in-memory
// stores for the memory backend so metadata never outlives the index.
func newStores(cfg *config.Config) (stores, error) {
	if cfg.Index.Backend == config.BackendMemory {
		return stores{
			meta:        memory.NewMetadataStore(),
			checkpoints: memory.NewCheckpointStore(),
			locks:       memory.NewLockStore(),
		}, nil
	}

	meta, err := file.NewMetadataStore(cfg.Data.Dir)
	if err != nil {
		return stores{}, err
	}
	checkpoints, err := file.NewCheckpointStore(cfg.Data.Dir)
	if err != nil {
		return stores{}, err
	}
	locks, err := file.NewLockStore(cfg.Data.Dir)
	if err != nil {
		return stores{}, err
	}
	return stores{meta: meta, checkpoints: checkpoints, locks: locks}, nil
}

// newQueryCache connects to Redis when configured. An unreachable server
// disables caching with a warning; a malformed URL is a configuration error.
// The memory backend caches in-process.
func newQueryCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (driven.QueryCache, error) {
	if cfg.Cache.RedisURL == "" {
		if cfg.Index.Backend == config.BackendMemory {
			return memory.NewQueryCache(), nil
		}
		return nil, nil
	}

	cache, err := redis.New(ctx, redis.Config{URL: cfg.Cache.RedisURL, TTL: cfg.Cache.TTL.Duration})
	if errors.Is(err, domain.ErrConfiguration) {
		return nil, err
	}
	if err != nil {
		log.Warn("query cache disabled: %v", err)
		return nil, nil
	}
	return cache, nil
}

// Close releases every resource in reverse construction order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
