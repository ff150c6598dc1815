package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure SyncCoordinator implements the interface.
var _ driving.SyncCoordinator = (*SyncCoordinator)(nil)

// DefaultAllowedExtensions are the file types ingested from repositories.
var DefaultAllowedExtensions = []string{".md", ".txt", ".pdf", ".mdx"}

// SyncConfig configures the sync coordinator.
type SyncConfig struct {
	// Sources are the repositories visited by SyncAll.
	Sources []domain.Source

	// AllowedExtensions lists ingested file extensions (lowercase, with dot).
	AllowedExtensions []string

	// MinInterval is the minimum time between two passes over a source.
	MinInterval time.Duration

	// LockTimeout is the age after which a lock is considered abandoned.
	LockTimeout time.Duration
}

// DefaultSyncConfig returns the default configuration with no sources.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		AllowedExtensions: DefaultAllowedExtensions,
		MinInterval:       24 * time.Hour,
		LockTimeout:       20 * time.Minute,
	}
}

// SyncCoordinator keeps the vector index in step with remote repositories.
// A per-source lock is the only mutual exclusion; files are written one
// at a time, each removed before it is re-inserted.
type SyncCoordinator struct {
	repo        driven.Repository
	store       *VectorStore
	checkpoints driven.CheckpointStore
	locks       driven.LockStore
	extractor   driven.TextExtractor
	cfg         SyncConfig
	allowed     map[string]bool
	ownerID     string
	log         *logger.Logger

	now func() time.Time

	mu       sync.RWMutex
	running  map[string]bool
	outcomes map[string]domain.SyncOutcome
}

// NewSyncCoordinator creates a sync coordinator.
// The extractor is optional; without it PDFs are skipped.
func NewSyncCoordinator(
	repo driven.Repository,
	store *VectorStore,
	checkpoints driven.CheckpointStore,
	locks driven.LockStore,
	extractor driven.TextExtractor,
	cfg SyncConfig,
	log *logger.Logger,
) *SyncCoordinator {
	def := DefaultSyncConfig()
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = def.AllowedExtensions
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = def.LockTimeout
	}
	if log == nil {
		log = logger.Discard()
	}

	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[normaliseExt(ext)] = true
	}

	return &SyncCoordinator{
		repo:        repo,
		store:       store,
		checkpoints: checkpoints,
		locks:       locks,
		extractor:   extractor,
		cfg:         cfg,
		allowed:     allowed,
		ownerID:     uuid.New().String(),
		log:         log.With("sync"),
		now:         time.Now,
		running:     make(map[string]bool),
		outcomes:    make(map[string]domain.SyncOutcome),
	}
}

// Sync runs one pass for a repository branch.
//
//nolint:gocyclo // Sequential gates before the pass itself
func (c *SyncCoordinator) Sync(
	ctx context.Context, sourceURL, branch string, opts driving.SyncOptions,
) (domain.SyncOutcome, error) {
	src, err := domain.NewSource(sourceURL, branch)
	if err != nil {
		return domain.SyncOutcome{State: domain.SyncFailed}, err
	}
	outcome := domain.SyncOutcome{SourceID: src.ID()}
	defer func() { c.recordOutcome(outcome) }()

	// 1. Existing lock: respect it unless it is abandoned.
	held, err := c.lockHeld(ctx, src)
	if err != nil {
		outcome.State = domain.SyncFailed
		return outcome, err
	}
	if held {
		c.log.Info("%s: sync already in progress", src.ID())
		outcome.State = domain.SyncSkippedInProgress
		return outcome, nil
	}

	// 2. Liveness probe before any work.
	if err := c.store.Ping(ctx); err != nil {
		c.log.Warn("%s: %v, skipping sync", src.ID(), err)
		outcome.State = domain.SyncSkippedUnhealthy
		return outcome, nil
	}

	// 3. Minimum interval between passes.
	if !opts.Force {
		last, err := c.checkpoints.LastSync(ctx, src.ID())
		if err != nil {
			outcome.State = domain.SyncFailed
			return outcome, fmt.Errorf("sync %s: read last sync: %w", src.ID(), err)
		}
		if !last.IsZero() && c.now().Sub(last) < c.cfg.MinInterval {
			c.log.Info("%s: synced at %s, no sync needed", src.ID(), last.Format(time.RFC3339))
			outcome.State = domain.SyncSkippedRecent
			return outcome, nil
		}
	}

	// 4. Take the lock for the duration of the pass.
	lock := domain.SyncLock{OwnerID: c.ownerID, AcquiredAt: c.now().UTC()}
	if err := c.locks.Acquire(ctx, src.ID(), lock); err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			outcome.State = domain.SyncSkippedInProgress
			return outcome, nil
		}
		outcome.State = domain.SyncFailed
		return outcome, fmt.Errorf("sync %s: acquire lock: %w", src.ID(), err)
	}
	c.setRunning(src.ID(), true)
	defer func() {
		c.setRunning(src.ID(), false)
		// Release even if the caller's context is already cancelled.
		if err := c.locks.Release(context.WithoutCancel(ctx), src.ID(), lock); err != nil {
			c.log.Error("%s: release lock: %v", src.ID(), err)
		}
	}()

	outcome, err = c.pass(ctx, src)
	if err != nil {
		c.log.Error("%s: sync failed: %v", src.ID(), err)
	}
	return outcome, err
}

// lockHeld reports whether a live lock exists, clearing abandoned ones.
func (c *SyncCoordinator) lockHeld(ctx context.Context, src domain.Source) (bool, error) {
	lock, err := c.locks.Get(ctx, src.ID())
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sync %s: read lock: %w", src.ID(), err)
	}
	if !lock.Expired(c.now(), c.cfg.LockTimeout) {
		return true, nil
	}

	c.log.Warn("%s: clearing stale lock held by %q since %s",
		src.ID(), lock.OwnerID, lock.AcquiredAt.Format(time.RFC3339))
	if err := c.locks.Release(ctx, src.ID(), *lock); err != nil {
		return false, fmt.Errorf("sync %s: clear stale lock: %w", src.ID(), err)
	}
	return false, nil
}

// pass performs the sync work while the lock is held.
func (c *SyncCoordinator) pass(ctx context.Context, src domain.Source) (domain.SyncOutcome, error) {
	outcome := domain.SyncOutcome{SourceID: src.ID(), State: domain.SyncFailed}

	head, err := c.repo.LatestRevision(ctx, src)
	if err != nil {
		return outcome, fmt.Errorf("sync %s: latest revision: %w", src.ID(), err)
	}
	outcome.Revision = head

	cp, err := c.checkpoints.GetCheckpoint(ctx, src.ID())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return outcome, fmt.Errorf("sync %s: read checkpoint: %w", src.ID(), err)
	}

	if cp != nil && cp.Revision == head && cp.FullySynced() {
		c.log.Info("%s: no new revision (%s)", src.ID(), shortRev(head))
		if err := c.checkpoints.SaveLastSync(ctx, src.ID(), c.now().UTC()); err != nil {
			return outcome, fmt.Errorf("sync %s: save last sync: %w", src.ID(), err)
		}
		outcome.State = domain.SyncUnchanged
		return outcome, nil
	}

	changed, removed, err := c.plan(ctx, src, cp, head)
	if err != nil {
		return outcome, err
	}
	c.log.Info("%s: %d changed, %d removed at %s", src.ID(), len(changed), len(removed), shortRev(head))

	var retryRemovals []string
	for _, p := range removed {
		if err := c.store.Remove(ctx, p); err != nil {
			c.log.Warn("%s: remove %s: %v", src.ID(), p, err)
			retryRemovals = append(retryRemovals, p)
			outcome.FailedFiles = append(outcome.FailedFiles, p)
			continue
		}
		outcome.FilesRemoved++
	}

	var retry []string
	for _, p := range changed {
		if err := ctx.Err(); err != nil {
			return outcome, fmt.Errorf("sync %s: %w", src.ID(), err)
		}
		if !c.allowed[normaliseExt(path.Ext(p))] {
			continue
		}

		ingested, err := c.ingestFile(ctx, src, p, head)
		switch {
		case err != nil:
			c.log.Warn("%s: %s: %v", src.ID(), p, err)
			retry = append(retry, p)
			outcome.FailedFiles = append(outcome.FailedFiles, p)
		case !ingested:
			outcome.FilesSkipped++
		default:
			outcome.FilesIngested++
		}
	}

	now := c.now().UTC()
	next := domain.SyncCheckpoint{
		SourceID:       src.ID(),
		Revision:       head,
		FailedFiles:    retry,
		FailedRemovals: retryRemovals,
		Timestamp:      now,
	}
	if err := c.checkpoints.SaveCheckpoint(ctx, next); err != nil {
		return outcome, fmt.Errorf("sync %s: save checkpoint: %w", src.ID(), err)
	}
	if err := c.checkpoints.SaveLastSync(ctx, src.ID(), now); err != nil {
		return outcome, fmt.Errorf("sync %s: save last sync: %w", src.ID(), err)
	}

	c.log.Info("%s: %d ingested, %d removed, %d skipped, %d failed",
		src.ID(), outcome.FilesIngested, outcome.FilesRemoved, outcome.FilesSkipped, len(outcome.FailedFiles))
	outcome.State = domain.SyncCompleted
	return outcome, nil
}

// plan works out which paths to re-ingest and which to remove.
// Files that failed on the previous pass are retried unless removed since,
// and removals that failed are retried unless the path came back.
func (c *SyncCoordinator) plan(
	ctx context.Context, src domain.Source, cp *domain.SyncCheckpoint, head string,
) (changed, removed []string, err error) {
	switch {
	case cp == nil:
		changed, err = c.repo.ListFiles(ctx, src, head)
		if err != nil {
			return nil, nil, fmt.Errorf("sync %s: list files: %w", src.ID(), err)
		}
		return changed, nil, nil

	case cp.Revision != head:
		changes, err := c.repo.Compare(ctx, src, cp.Revision, head)
		if err != nil {
			return nil, nil, fmt.Errorf("sync %s: compare %s...%s: %w",
				src.ID(), shortRev(cp.Revision), shortRev(head), err)
		}
		for _, ch := range changes {
			switch ch.Status {
			case domain.FileAdded, domain.FileModified:
				changed = append(changed, ch.Path)
			case domain.FileRemoved:
				removed = append(removed, ch.Path)
			case domain.FileRenamed:
				if ch.PreviousPath != "" {
					removed = append(removed, ch.PreviousPath)
				}
				changed = append(changed, ch.Path)
			}
		}
	}

	for _, p := range cp.FailedFiles {
		if !slices.Contains(removed, p) && !slices.Contains(changed, p) {
			changed = append(changed, p)
		}
	}
	for _, p := range cp.FailedRemovals {
		if !slices.Contains(removed, p) && !slices.Contains(changed, p) {
			removed = append(removed, p)
		}
	}
	return changed, removed, nil
}

// ingestFile fetches one file and replaces its document in the index.
// It reports false when the file holds no usable text.
func (c *SyncCoordinator) ingestFile(ctx context.Context, src domain.Source, p, revision string) (bool, error) {
	data, err := c.repo.FetchFile(ctx, src, p, revision)
	if err != nil {
		return false, fmt.Errorf("fetch: %w", err)
	}

	content := c.extractText(ctx, p, data)
	if content == "" {
		c.log.Debug("%s: %s has no text, skipping", src.ID(), p)
		return false, nil
	}

	if err := c.store.Remove(ctx, p); err != nil {
		return false, err
	}
	if _, err := c.store.Upsert(ctx, p, content, ""); err != nil {
		return false, err
	}
	c.log.Debug("%s: ingested %s", src.ID(), p)
	return true, nil
}

// extractText returns file text. Extraction failures yield "".
func (c *SyncCoordinator) extractText(ctx context.Context, p string, data []byte) string {
	return extractText(ctx, c.extractor, c.log, p, data)
}

// SyncAll runs Sync for every configured source.
func (c *SyncCoordinator) SyncAll(ctx context.Context, opts driving.SyncOptions) ([]domain.SyncOutcome, error) {
	if len(c.cfg.Sources) == 0 {
		return nil, fmt.Errorf("sync all: %w: no sources configured", domain.ErrConfiguration)
	}

	outcomes := make([]domain.SyncOutcome, 0, len(c.cfg.Sources))
	var errs []error
	for _, src := range c.cfg.Sources {
		outcome, err := c.Sync(ctx, src.URL, src.Branch, opts)
		outcomes = append(outcomes, outcome)
		if err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", src.ID(), err))
		}
	}

	if len(errs) > 0 {
		return outcomes, errors.Join(errs...)
	}
	return outcomes, nil
}

// Status reports the state of every configured source.
func (c *SyncCoordinator) Status(ctx context.Context) ([]driving.SourceStatus, error) {
	statuses := make([]driving.SourceStatus, 0, len(c.cfg.Sources))
	for _, src := range c.cfg.Sources {
		st := driving.SourceStatus{Source: src}

		last, err := c.checkpoints.LastSync(ctx, src.ID())
		if err != nil {
			return nil, fmt.Errorf("status %s: %w", src.ID(), err)
		}
		st.LastSync = last

		cp, err := c.checkpoints.GetCheckpoint(ctx, src.ID())
		switch {
		case err == nil:
			st.Revision = cp.Revision
			st.FailedFiles = append(slices.Clone(cp.FailedFiles), cp.FailedRemovals...)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("status %s: %w", src.ID(), err)
		}

		held, err := c.lockHeldReadOnly(ctx, src)
		if err != nil {
			return nil, err
		}

		c.mu.RLock()
		st.Running = held || c.running[src.ID()]
		if o, ok := c.outcomes[src.ID()]; ok {
			st.LastOutcome = &o
		}
		c.mu.RUnlock()

		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (c *SyncCoordinator) lockHeldReadOnly(ctx context.Context, src domain.Source) (bool, error) {
	lock, err := c.locks.Get(ctx, src.ID())
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("status %s: read lock: %w", src.ID(), err)
	}
	return !lock.Expired(c.now(), c.cfg.LockTimeout), nil
}

func (c *SyncCoordinator) setRunning(sourceID string, running bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if running {
		c.running[sourceID] = true
	} else {
		delete(c.running, sourceID)
	}
}

func (c *SyncCoordinator) recordOutcome(o domain.SyncOutcome) {
	if o.SourceID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[o.SourceID] = o
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func shortRev(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
