package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure the sync stores implement the interfaces.
var (
	_ driven.CheckpointStore = (*CheckpointStore)(nil)
	_ driven.LockStore       = (*LockStore)(nil)
)

const (
	checkpointsFile = "checkpoints.json"
	lastSyncFile    = "last_sync.json"
	locksDir        = "locks"
)

// CheckpointStore persists checkpoints and last-sync times as JSON.
// Each call reads the files afresh so several processes can share them.
type CheckpointStore struct {
	mu  sync.Mutex
	dir string
}

// NewCheckpointStore creates a checkpoint store in dir.
func NewCheckpointStore(dir string) (*CheckpointStore, error) {
	dir, err := ensureDir(dir)
	if err != nil {
		return nil, err
	}
	return &CheckpointStore{dir: dir}, nil
}

// GetCheckpoint retrieves the checkpoint for a source.
// An unreadable file counts as no checkpoint.
func (s *CheckpointStore) GetCheckpoint(_ context.Context, sourceID string) (*domain.SyncCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cps := s.loadCheckpoints()
	cp, ok := cps[sourceID]
	if !ok || cp.Revision == "" {
		return nil, domain.ErrNotFound
	}
	cp.SourceID = sourceID
	cp.FailedFiles = slices.Clone(cp.FailedFiles)
	cp.FailedRemovals = slices.Clone(cp.FailedRemovals)
	return &cp, nil
}

// SaveCheckpoint stores or replaces a checkpoint.
func (s *CheckpointStore) SaveCheckpoint(_ context.Context, cp domain.SyncCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cps := s.loadCheckpoints()
	cps[cp.SourceID] = cp
	if err := writeJSON(filepath.Join(s.dir, checkpointsFile), cps); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cp.SourceID, err)
	}
	return nil
}

// LastSync returns when a source last finished a pass, or the zero time.
// An unreadable file counts as never synced.
func (s *CheckpointStore) LastSync(_ context.Context, sourceID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLastSync()[sourceID], nil
}

// SaveLastSync records when a source finished a pass.
func (s *CheckpointStore) SaveLastSync(_ context.Context, sourceID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	times := s.loadLastSync()
	times[sourceID] = at
	if err := writeJSON(filepath.Join(s.dir, lastSyncFile), times); err != nil {
		return fmt.Errorf("save last sync %s: %w", sourceID, err)
	}
	return nil
}

func (s *CheckpointStore) loadCheckpoints() map[string]domain.SyncCheckpoint {
	cps := make(map[string]domain.SyncCheckpoint)
	if _, err := readJSON(filepath.Join(s.dir, checkpointsFile), &cps); err != nil {
		return make(map[string]domain.SyncCheckpoint)
	}
	return cps
}

func (s *CheckpointStore) loadLastSync() map[string]time.Time {
	times := make(map[string]time.Time)
	if _, err := readJSON(filepath.Join(s.dir, lastSyncFile), &times); err != nil {
		return make(map[string]time.Time)
	}
	return times
}

// LockStore keeps one lock file per source. Acquire creates the file
// exclusively, so two processes cannot both hold a source.
type LockStore struct {
	dir string
}

// NewLockStore creates a lock store under dir.
func NewLockStore(dir string) (*LockStore, error) {
	dir, err := ensureDir(dir)
	if err != nil {
		return nil, err
	}
	dir = filepath.Join(dir, locksDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating locks directory: %w", err)
	}
	return &LockStore{dir: dir}, nil
}

// lockPath derives a file name from the source id, which contains
// characters that are not safe in paths.
func (s *LockStore) lockPath(sourceID string) string {
	sum := sha256.Sum256([]byte(sourceID))
	return filepath.Join(s.dir, "sync-"+hex.EncodeToString(sum[:8])+".lock")
}

// Get returns the lock for a source. A lock file that cannot be decoded
// is returned with a zero AcquiredAt so callers treat it as expired.
func (s *LockStore) Get(_ context.Context, sourceID string) (*domain.SyncLock, error) {
	lock, err := readLock(s.lockPath(sourceID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read lock %s: %w", sourceID, err)
	}
	return &lock, nil
}

func readLock(path string) (domain.SyncLock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SyncLock{}, err
	}
	var lock domain.SyncLock
	if err := json.Unmarshal(data, &lock); err != nil {
		return domain.SyncLock{}, nil
	}
	return lock, nil
}

// Acquire creates the lock file, failing with domain.ErrSyncInProgress
// if it already exists.
func (s *LockStore) Acquire(_ context.Context, sourceID string, lock domain.SyncLock) error {
	data, err := json.Marshal(lock)
	if err != nil {
		return fmt.Errorf("encode lock: %w", err)
	}

	f, err := os.OpenFile(s.lockPath(sourceID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return domain.ErrSyncInProgress
	}
	if err != nil {
		return fmt.Errorf("create lock %s: %w", sourceID, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("write lock %s: %w", sourceID, err)
	}
	return f.Close()
}

// Release removes the lock file if it still holds lock. The file is
// renamed aside before it is checked, so a lock created by another
// process after the caller looked is put back rather than deleted.
// A missing file is not an error.
func (s *LockStore) Release(_ context.Context, sourceID string, lock domain.SyncLock) error {
	path := s.lockPath(sourceID)

	cur, err := readLock(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release lock %s: %w", sourceID, err)
	}
	if !cur.Same(lock) {
		return nil
	}

	aside := path + "." + uuid.NewString() + ".release"
	if err := os.Rename(path, aside); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("release lock %s: %w", sourceID, err)
	}
	defer os.Remove(aside)

	moved, err := readLock(aside)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", sourceID, err)
	}
	if moved.Same(lock) {
		return nil
	}

	// Replaced between the check and the rename: restore it unless a
	// newer lock already took its place.
	if err := os.Link(aside, path); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("restore lock %s: %w", sourceID, err)
	}
	return nil
}
