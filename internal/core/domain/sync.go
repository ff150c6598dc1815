package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBranch is used when a source does not name a branch.
const DefaultBranch = "main"

// Source identifies a tracked remote repository branch.
type Source struct {
	// URL is the repository URL without trailing slash or ".git" suffix.
	URL string

	// Branch is the tracked branch.
	Branch string
}

// NewSource normalises a repository URL and branch into a Source.
func NewSource(rawURL, branch string) (Source, error) {
	u := strings.TrimSpace(rawURL)
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, ".git")
	if u == "" {
		return Source{}, fmt.Errorf("%w: repository url is required", ErrInvalidInput)
	}
	branch = strings.TrimSpace(branch)
	if branch == "" {
		branch = DefaultBranch
	}
	return Source{URL: u, Branch: branch}, nil
}

// ID is the key under which checkpoints and locks for the source are stored.
func (s Source) ID() string {
	return s.URL + "@" + s.Branch
}

// SyncCheckpoint records the last remote revision reflected in the index.
type SyncCheckpoint struct {
	SourceID string `json:"sourceId"`

	// Revision is the last processed revision.
	Revision string `json:"lastProcessedRevision"`

	// FailedFiles lists paths that failed at Revision and must be
	// retried on the next pass.
	FailedFiles []string `json:"failedFiles,omitempty"`

	// FailedRemovals lists paths deleted upstream whose documents could
	// not be removed from the index. They are removed again on the next pass.
	FailedRemovals []string `json:"failedRemovals,omitempty"`

	// Timestamp is when the checkpoint was written.
	Timestamp time.Time `json:"timestamp"`
}

// FullySynced reports whether every change up to Revision is reflected
// in the index.
func (c SyncCheckpoint) FullySynced() bool {
	return len(c.FailedFiles) == 0 && len(c.FailedRemovals) == 0
}

// SyncLock marks an in-progress sync attempt.
type SyncLock struct {
	OwnerID    string    `json:"owner"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// Expired reports whether the lock is older than timeout at now.
func (l SyncLock) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(l.AcquiredAt) > timeout
}

// Same reports whether o is the same lock as l.
func (l SyncLock) Same(o SyncLock) bool {
	return l.OwnerID == o.OwnerID && l.AcquiredAt.Equal(o.AcquiredAt)
}

// ChangeStatus is the kind of change a file went through between revisions.
type ChangeStatus string

// File change kinds.
const (
	FileAdded    ChangeStatus = "added"
	FileModified ChangeStatus = "modified"
	FileRemoved  ChangeStatus = "removed"
	FileRenamed  ChangeStatus = "renamed"
)

// FileChange is one entry of a diff between two revisions.
type FileChange struct {
	Path         string
	PreviousPath string
	Status       ChangeStatus
}

// SyncState is the outcome category of a sync attempt.
type SyncState string

// Sync outcomes. Only SyncFailed is a failure; the skips are soft results.
const (
	SyncSkippedInProgress SyncState = "in_progress"
	SyncSkippedUnhealthy  SyncState = "index_unavailable"
	SyncSkippedRecent     SyncState = "recent"
	SyncUnchanged         SyncState = "unchanged"
	SyncCompleted         SyncState = "synced"
	SyncFailed            SyncState = "failed"
)

// SyncOutcome summarises one sync attempt for a source.
type SyncOutcome struct {
	SourceID string
	State    SyncState
	Revision string

	FilesIngested int
	FilesRemoved  int
	FilesSkipped  int
	FailedFiles   []string
}

// Message returns the status message reported to callers.
func (o SyncOutcome) Message() string {
	switch o.State {
	case SyncSkippedInProgress:
		return "Sync in progress"
	case SyncSkippedUnhealthy:
		return "Vector store unavailable, sync skipped"
	case SyncSkippedRecent, SyncUnchanged:
		return "No sync needed"
	case SyncCompleted:
		return "Sync successful"
	default:
		return "Sync failed"
	}
}
