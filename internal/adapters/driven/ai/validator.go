package ai

import (
	"context"

	"github.com/custodia-labs/docsync/internal/config"
)

// Check is the outcome of probing one backend.
type Check struct {
	Component string
	Target    string
	Err       error
}

// OK reports whether the probe succeeded.
func (c Check) OK() bool { return c.Err == nil }

// CheckBackends probes the embedding service and the vector index.
// The embedding probe is skipped for the memory backend.
func CheckBackends(ctx context.Context, cfg *config.Config) []Check {
	var checks []Check

	if cfg.Index.Backend != config.BackendMemory {
		checks = append(checks, Check{
			Component: "embedding",
			Target:    cfg.Embedding.Provider,
			Err:       ValidateEmbeddingConfig(ctx, cfg.Embedding),
		})
	}

	index := Check{Component: "index", Target: cfg.Index.Backend}
	if cfg.Index.Backend == config.BackendChroma {
		index.Target += " " + cfg.Index.URL
	}
	res, err := Init(ctx, cfg)
	if err != nil {
		index.Err = err
	} else {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		index.Err = res.VectorIndex.Heartbeat(pctx)
		cancel()
		res.Close()
	}
	return append(checks, index)
}
