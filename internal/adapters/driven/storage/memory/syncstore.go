package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure the sync stores implement the interfaces.
var (
	_ driven.CheckpointStore = (*CheckpointStore)(nil)
	_ driven.LockStore       = (*LockStore)(nil)
)

// CheckpointStore is an in-memory implementation of driven.CheckpointStore.
type CheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]domain.SyncCheckpoint
	lastSync    map[string]time.Time
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		checkpoints: make(map[string]domain.SyncCheckpoint),
		lastSync:    make(map[string]time.Time),
	}
}

// GetCheckpoint retrieves the checkpoint for a source.
func (s *CheckpointStore) GetCheckpoint(_ context.Context, sourceID string) (*domain.SyncCheckpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp.FailedFiles = slices.Clone(cp.FailedFiles)
	cp.FailedRemovals = slices.Clone(cp.FailedRemovals)
	return &cp, nil
}

// SaveCheckpoint stores or replaces a checkpoint.
func (s *CheckpointStore) SaveCheckpoint(_ context.Context, cp domain.SyncCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp.FailedFiles = slices.Clone(cp.FailedFiles)
	cp.FailedRemovals = slices.Clone(cp.FailedRemovals)
	s.checkpoints[cp.SourceID] = cp
	return nil
}

// LastSync returns when a source last finished a pass.
func (s *CheckpointStore) LastSync(_ context.Context, sourceID string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync[sourceID], nil
}

// SaveLastSync records when a source finished a pass.
func (s *CheckpointStore) SaveLastSync(_ context.Context, sourceID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync[sourceID] = at
	return nil
}

// LockStore is an in-memory implementation of driven.LockStore.
type LockStore struct {
	mu    sync.Mutex
	locks map[string]domain.SyncLock
}

// NewLockStore creates a new in-memory lock store.
func NewLockStore() *LockStore {
	return &LockStore{locks: make(map[string]domain.SyncLock)}
}

// Get returns the lock for a source.
func (s *LockStore) Get(_ context.Context, sourceID string) (*domain.SyncLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &lock, nil
}

// Acquire stores lock if the source is unlocked.
func (s *LockStore) Acquire(_ context.Context, sourceID string, lock domain.SyncLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locks[sourceID]; ok {
		return domain.ErrSyncInProgress
	}
	s.locks[sourceID] = lock
	return nil
}

// Release removes the lock for a source if it is still lock.
func (s *LockStore) Release(_ context.Context, sourceID string, lock domain.SyncLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.locks[sourceID]; ok && cur.Same(lock) {
		delete(s.locks, sourceID)
	}
	return nil
}
