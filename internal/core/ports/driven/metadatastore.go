package driven

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// MetadataStore persists document records and the chunk list written
// to the vector index for each document.
type MetadataStore interface {
	// Get returns the record for docID, or domain.ErrNotFound.
	Get(ctx context.Context, docID string) (*domain.DocumentRecord, error)

	// Chunks returns the chunks recorded for docID, or domain.ErrNotFound.
	Chunks(ctx context.Context, docID string) ([]domain.Chunk, error)

	// Put replaces the record and its chunk list in one step and persists both.
	Put(ctx context.Context, record domain.DocumentRecord, chunks []domain.Chunk) error

	// Delete removes the record and its chunk list. Unknown ids are a no-op.
	Delete(ctx context.Context, docID string) error

	// List returns all records ordered by DocID.
	List(ctx context.Context) ([]domain.DocumentRecord, error)
}
