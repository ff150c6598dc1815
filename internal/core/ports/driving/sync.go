package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// SyncOptions tunes a single sync request.
type SyncOptions struct {
	// Force bypasses the minimum interval between syncs.
	Force bool
}

// SyncCoordinator keeps the vector index in step with remote sources.
type SyncCoordinator interface {
	// Sync runs one sync pass for a repository branch.
	// Skips (in progress, index unavailable, recent, unchanged) are
	// reported in the outcome, not as errors.
	Sync(ctx context.Context, sourceURL, branch string, opts SyncOptions) (domain.SyncOutcome, error)

	// SyncAll runs Sync for every configured source.
	// A failing source does not stop the others; errors are joined.
	SyncAll(ctx context.Context, opts SyncOptions) ([]domain.SyncOutcome, error)

	// Status reports the state of every configured source.
	Status(ctx context.Context) ([]SourceStatus, error)
}

// SourceStatus describes the sync state of one source.
type SourceStatus struct {
	// Source identifies the repository branch.
	Source domain.Source

	// Running indicates a sync currently holds the lock.
	Running bool

	// LastSync is when the last pass finished. Zero means never.
	LastSync time.Time

	// Revision is the last processed revision, if any.
	Revision string

	// FailedFiles are queued for retry on the next pass.
	FailedFiles []string

	// LastOutcome is the outcome of the most recent pass in this process, if any.
	LastOutcome *domain.SyncOutcome
}
