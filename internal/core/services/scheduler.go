package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// DefaultSyncCheckInterval is how often the scheduler offers a sync pass.
// The coordinator's minimum interval decides whether work happens.
const DefaultSyncCheckInterval = time.Hour

// Scheduler runs SyncAll periodically.
type Scheduler struct {
	syncer   driving.SyncCoordinator
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler that offers a sync pass every interval.
func NewScheduler(syncer driving.SyncCoordinator, interval time.Duration, log *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultSyncCheckInterval
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		log:      log.With("scheduler"),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is
// called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler and waits for a pass in progress.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	// Check immediately on startup
	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

// runSync runs one SyncAll pass. Passes never overlap because the loop
// waits for each to finish.
func (s *Scheduler) runSync(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	outcomes, err := s.syncer.SyncAll(ctx, driving.SyncOptions{})
	for _, o := range outcomes {
		s.log.Info("%s: %s", o.SourceID, o.Message())
	}
	if err != nil {
		s.log.Error("scheduled sync: %v", err)
	}
}
