package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

func entry(id, doc, content string, typ domain.ChunkType, docType string) domain.IndexEntry {
	return domain.IndexEntry{
		ChunkID: id,
		Content: content,
		Metadata: domain.ChunkMetadata{
			DocID:        doc,
			ChunkType:    typ,
			DocumentType: docType,
		},
	}
}

func TestVectorIndex_QueryScoresByTermOverlap(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("1", "a.md", "Button component styles", domain.ChunkParagraph, ""),
		entry("2", "b.md", "Button only", domain.ChunkParagraph, ""),
		entry("3", "c.md", "unrelated text", domain.ChunkParagraph, ""),
	}))

	hits, err := idx.Query(ctx, "button styles", 10, domain.SearchFilter{})
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, "a.md", hits[0].DocID)
	assert.InDelta(t, 1.0, hits[0].RelevanceScore, 1e-9)
	assert.Equal(t, "b.md", hits[1].DocID)
	assert.InDelta(t, 0.5, hits[1].RelevanceScore, 1e-9)
}

func TestVectorIndex_QueryFiltersConjunctively(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{
		entry("1", "a.md", "token", domain.ChunkCode, "upload"),
		entry("2", "b.md", "token", domain.ChunkCode, ""),
		entry("3", "c.md", "token", domain.ChunkList, "upload"),
	}))

	hits, err := idx.Query(ctx, "token", 10, domain.SearchFilter{ChunkType: domain.ChunkCode, DocumentType: "upload"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.md", hits[0].DocID)
}

func TestVectorIndex_QueryLimit(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{entry(id, id+".md", "same", domain.ChunkParagraph, "")}))
	}

	hits, err := idx.Query(ctx, "same", 2, domain.SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = idx.Query(ctx, "   ", 2, domain.SearchFilter{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorIndex_DeleteToleratesUnknownIDs(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, []domain.IndexEntry{entry("1", "a.md", "x", domain.ChunkParagraph, "")}))

	require.NoError(t, idx.Delete(ctx, []string{"1", "missing"}))
	assert.Equal(t, 0, idx.Len())
	assert.False(t, idx.Has("1"))
}

func TestQueryCache(t *testing.T) {
	c := NewQueryCache()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", domain.RetrievalResult{Context: "ctx"}))
	res, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ctx", res.Context)

	require.NoError(t, c.Invalidate(ctx))
	assert.Equal(t, 0, c.Len())
}
