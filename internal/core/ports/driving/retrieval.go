package driving

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// Retriever assembles answer context for natural-language queries.
type Retriever interface {
	// Retrieve returns the context and source files for query.
	// An empty query returns domain.ErrInvalidInput.
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) (domain.RetrievalResult, error)

	// Diagnose reports score and type distributions for query.
	Diagnose(ctx context.Context, query string) (domain.Diagnostics, error)
}
