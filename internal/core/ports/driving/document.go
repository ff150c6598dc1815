package driving

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// Ingestor indexes uploaded files.
type Ingestor interface {
	// IngestUpload indexes the file under its name and returns a status message.
	IngestUpload(ctx context.Context, data []byte, filename string) (string, error)
}

// DocumentIndex exposes the indexed documents.
type DocumentIndex interface {
	// Document returns a stored document, or domain.ErrNotFound.
	Document(ctx context.Context, docID string) (*domain.DocumentRecord, error)

	// Documents lists stored documents ordered by id.
	Documents(ctx context.Context) ([]domain.DocumentRecord, error)

	// Remove deletes a document from the index and metadata.
	// Unknown ids are a no-op.
	Remove(ctx context.Context, docID string) error
}

// RepositoryFiles looks up well-known files in the component repository.
type RepositoryFiles interface {
	// ComponentsList returns the component catalogue.
	ComponentsList(ctx context.Context) (string, error)

	// StyleGuide returns the styling configuration.
	StyleGuide(ctx context.Context) (string, error)

	// ComponentCode returns the markup of the given components.
	ComponentCode(ctx context.Context, refs []ComponentRef) (string, error)

	// ComponentMetadata returns the documentation pages of the named components.
	ComponentMetadata(ctx context.Context, names []string) (string, error)
}

// ComponentRef names one component by category and slug.
type ComponentRef struct {
	Category string `json:"category"`
	Slug     string `json:"slug"`
}
