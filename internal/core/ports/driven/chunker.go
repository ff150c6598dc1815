package driven

import "github.com/custodia-labs/docsync/internal/core/domain"

// Chunker splits document text into typed chunks.
// Implementations must be deterministic for a given text apart from ids.
type Chunker interface {
	Chunk(text string) []domain.Chunk
}
