package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// CheckpointStore persists sync progress per source.
type CheckpointStore interface {
	// GetCheckpoint returns the checkpoint for a source, or domain.ErrNotFound.
	// An unreadable checkpoint is reported as domain.ErrNotFound.
	GetCheckpoint(ctx context.Context, sourceID string) (*domain.SyncCheckpoint, error)

	// SaveCheckpoint stores or replaces a checkpoint.
	SaveCheckpoint(ctx context.Context, cp domain.SyncCheckpoint) error

	// LastSync returns when a source last finished a sync pass.
	// The zero time means never.
	LastSync(ctx context.Context, sourceID string) (time.Time, error)

	// SaveLastSync records when a source finished a sync pass.
	SaveLastSync(ctx context.Context, sourceID string, at time.Time) error
}

// LockStore persists the sync lock per source.
type LockStore interface {
	// Get returns the current lock, or domain.ErrNotFound.
	// A lock that exists but cannot be parsed is returned with a zero
	// AcquiredAt, so it always reads as expired.
	Get(ctx context.Context, sourceID string) (*domain.SyncLock, error)

	// Acquire stores lock if no lock exists for the source.
	// It returns domain.ErrSyncInProgress when one does.
	Acquire(ctx context.Context, sourceID string, lock domain.SyncLock) error

	// Release removes the lock only while it is still lock, so a caller
	// holding a stale view never deletes a lock taken since. Releasing an
	// absent or replaced lock is a no-op.
	Release(ctx context.Context, sourceID string, lock domain.SyncLock) error
}
