package driven

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// Repository reads a versioned remote file tree.
type Repository interface {
	// LatestRevision returns the head revision of the source's branch.
	LatestRevision(ctx context.Context, src domain.Source) (string, error)

	// ListFiles returns every file path in the tree at revision.
	ListFiles(ctx context.Context, src domain.Source, revision string) ([]string, error)

	// Compare returns the file changes between base and head.
	Compare(ctx context.Context, src domain.Source, base, head string) ([]domain.FileChange, error)

	// FetchFile returns the raw bytes of path at revision.
	FetchFile(ctx context.Context, src domain.Source, path, revision string) ([]byte, error)

	// Close releases resources.
	Close() error
}
