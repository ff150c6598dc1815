package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure gatedIndex implements the interface.
var _ driven.VectorIndex = (*gatedIndex)(nil)

// IndexCallPolicy bounds and retries calls to the vector index.
type IndexCallPolicy struct {
	// MaxInFlight caps concurrent index calls.
	MaxInFlight int64

	// Attempts is the total number of tries for a connection-class failure.
	Attempts int

	// BaseBackoff is the first retry delay; it doubles on each retry.
	BaseBackoff time.Duration

	// CallTimeout bounds a single attempt.
	CallTimeout time.Duration
}

// DefaultIndexCallPolicy returns the default policy.
func DefaultIndexCallPolicy() IndexCallPolicy {
	return IndexCallPolicy{
		MaxInFlight: 3,
		Attempts:    3,
		BaseBackoff: time.Second,
		CallTimeout: 30 * time.Second,
	}
}

// gatedIndex wraps a VectorIndex with a concurrency gate and retry
// for connection-class errors. The gate is held only while a call is
// in flight, never during backoff.
type gatedIndex struct {
	index  driven.VectorIndex
	sem    *semaphore.Weighted
	policy IndexCallPolicy
	log    *logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func newGatedIndex(index driven.VectorIndex, policy IndexCallPolicy, log *logger.Logger) *gatedIndex {
	def := DefaultIndexCallPolicy()
	if policy.MaxInFlight <= 0 {
		policy.MaxInFlight = def.MaxInFlight
	}
	if policy.Attempts <= 0 {
		policy.Attempts = def.Attempts
	}
	if policy.BaseBackoff <= 0 {
		policy.BaseBackoff = def.BaseBackoff
	}
	if policy.CallTimeout <= 0 {
		policy.CallTimeout = def.CallTimeout
	}
	return &gatedIndex{
		index:  index,
		sem:    semaphore.NewWeighted(policy.MaxInFlight),
		policy: policy,
		log:    log,
		sleep:  sleepContext,
	}
}

// do runs fn under the gate, retrying connection-class failures with
// exponential backoff. Any other error is returned immediately.
func (g *gatedIndex) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := g.once(ctx, fn)
		if err == nil {
			return nil
		}
		if !domain.IsTransient(err) || attempt >= g.policy.Attempts-1 || ctx.Err() != nil {
			return fmt.Errorf("vector index %s: %w", op, err)
		}

		wait := g.policy.BaseBackoff << attempt
		g.log.Warn("vector index %s failed (attempt %d/%d), retrying in %s: %v",
			op, attempt+1, g.policy.Attempts, wait, err)
		if err := g.sleep(ctx, wait); err != nil {
			return fmt.Errorf("vector index %s: %w", op, err)
		}
	}
}

func (g *gatedIndex) once(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, g.policy.CallTimeout)
	defer cancel()
	return fn(callCtx)
}

func (g *gatedIndex) EnsureCollection(ctx context.Context) error {
	return g.do(ctx, "ensure collection", g.index.EnsureCollection)
}

func (g *gatedIndex) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	return g.do(ctx, "upsert", func(ctx context.Context) error {
		return g.index.Upsert(ctx, entries)
	})
}

func (g *gatedIndex) Delete(ctx context.Context, chunkIDs []string) error {
	return g.do(ctx, "delete", func(ctx context.Context) error {
		return g.index.Delete(ctx, chunkIDs)
	})
}

func (g *gatedIndex) Query(
	ctx context.Context, text string, k int, filter domain.SearchFilter,
) ([]domain.SearchHit, error) {
	var hits []domain.SearchHit
	err := g.do(ctx, "query", func(ctx context.Context) error {
		var err error
		hits, err = g.index.Query(ctx, text, k, filter)
		return err
	})
	return hits, err
}

// Heartbeat is a single gated attempt. Callers treat failure as "unavailable".
func (g *gatedIndex) Heartbeat(ctx context.Context) error {
	return g.once(ctx, g.index.Heartbeat)
}

func (g *gatedIndex) Close() error {
	return g.index.Close()
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
