// Package ai builds the embedding service and vector index selected by
// the configuration.
package ai

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/docsync/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/docsync/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docsync/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsync/internal/adapters/driven/vectorindex/chroma"
	"github.com/custodia-labs/docsync/internal/config"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult holds the index backend and the embedding service feeding it.
type InitResult struct {
	EmbeddingService driven.EmbeddingService // nil for the memory backend
	VectorIndex      driven.VectorIndex
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
}

// Init creates the configured vector index. The memory backend scores by
// keyword overlap and needs no embedding service.
func Init(ctx context.Context, cfg *config.Config) (*InitResult, error) {
	if cfg.Index.Backend == config.BackendMemory {
		return &InitResult{VectorIndex: memory.NewVectorIndex()}, nil
	}

	emb, err := CreateEmbeddingService(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	idx, err := CreateVectorIndex(cfg.Index, cfg.Data.Dir, emb)
	if err != nil {
		emb.Close()
		return nil, err
	}
	return &InitResult{EmbeddingService: emb, VectorIndex: idx}, nil
}

// CreateEmbeddingService creates the embedding service for the provider.
func CreateEmbeddingService(ctx context.Context, cfg config.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case config.ProviderGemini, "":
		return gemini.NewEmbeddingService(ctx, gemini.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})

	case config.ProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})

	case config.ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// CreateVectorIndex creates the index for the backend, embedding through emb.
func CreateVectorIndex(cfg config.IndexConfig, dataDir string, emb driven.EmbeddingService) (driven.VectorIndex, error) {
	switch cfg.Backend {
	case config.BackendChroma, "":
		return chroma.New(chroma.Config{
			BaseURL:    cfg.URL,
			Tenant:     cfg.Tenant,
			Database:   cfg.Database,
			Collection: cfg.Collection,
			Token:      cfg.Token,
			Timeout:    cfg.Timeout.Duration,
		}, emb)

	case config.BackendSQLite:
		dir := ""
		if dataDir != "" {
			dir = filepath.Join(dataDir, "index")
		}
		return sqlite.NewStore(dir, emb)

	case config.BackendMemory:
		return memory.NewVectorIndex(), nil

	default:
		return nil, fmt.Errorf("%w: unsupported index backend: %s", domain.ErrConfiguration, cfg.Backend)
	}
}

// ValidateEmbeddingConfig creates the embedding service and pings it.
func ValidateEmbeddingConfig(ctx context.Context, cfg config.EmbeddingConfig) error {
	svc, err := CreateEmbeddingService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
