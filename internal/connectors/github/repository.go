package github

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure Repository implements the interface.
var _ driven.Repository = (*Repository)(nil)

// Repository reads sources hosted on GitHub.
type Repository struct {
	client *Client
	log    *logger.Logger
}

// NewRepository creates a repository reader over client.
func NewRepository(client *Client, log *logger.Logger) *Repository {
	if log == nil {
		log = logger.Discard()
	}
	return &Repository{client: client, log: log.With("github")}
}

// LatestRevision returns the head commit of the source branch.
func (r *Repository) LatestRevision(ctx context.Context, src domain.Source) (string, error) {
	owner, repo, err := ParseRepoURL(src.URL)
	if err != nil {
		return "", err
	}
	return r.client.BranchHead(ctx, owner, repo, src.Branch)
}

// ListFiles returns every file path in the tree at revision.
func (r *Repository) ListFiles(ctx context.Context, src domain.Source, revision string) ([]string, error) {
	owner, repo, err := ParseRepoURL(src.URL)
	if err != nil {
		return nil, err
	}
	paths, truncated, err := r.client.Tree(ctx, owner, repo, revision)
	if err != nil {
		return nil, err
	}
	if truncated {
		r.log.Warn("tree of %s/%s at %s is truncated, %d files listed", owner, repo, revision, len(paths))
	}
	return paths, nil
}

// Compare returns the file changes between base and head.
func (r *Repository) Compare(ctx context.Context, src domain.Source, base, head string) ([]domain.FileChange, error) {
	owner, repo, err := ParseRepoURL(src.URL)
	if err != nil {
		return nil, err
	}
	files, err := r.client.Compare(ctx, owner, repo, base, head)
	if err != nil {
		return nil, err
	}

	changes := make([]domain.FileChange, 0, len(files))
	for _, f := range files {
		status, ok := changeStatus(f.GetStatus())
		if !ok {
			continue
		}
		changes = append(changes, domain.FileChange{
			Path:         f.GetFilename(),
			PreviousPath: f.GetPreviousFilename(),
			Status:       status,
		})
	}
	return changes, nil
}

// FetchFile returns the raw bytes of path at revision.
func (r *Repository) FetchFile(ctx context.Context, src domain.Source, path, revision string) ([]byte, error) {
	owner, repo, err := ParseRepoURL(src.URL)
	if err != nil {
		return nil, err
	}
	data, err := r.client.FileContent(ctx, owner, repo, path, revision)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	return data, nil
}

// Close releases resources.
func (r *Repository) Close() error {
	return nil
}

// changeStatus maps compare API statuses. "unchanged" entries are dropped.
func changeStatus(s string) (domain.ChangeStatus, bool) {
	switch s {
	case "added", "copied":
		return domain.FileAdded, true
	case "modified", "changed":
		return domain.FileModified, true
	case "removed":
		return domain.FileRemoved, true
	case "renamed":
		return domain.FileRenamed, true
	default:
		return "", false
	}
}
