package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync/internal/core/domain"
)

func newTestRetrieval(t *testing.T, docs map[string]string) (*RetrievalEngine, *VectorStore, *fakeIndex) {
	t.Helper()
	idx := newFakeIndex()
	store, _ := newTestVectorStore(idx)
	for id, content := range docs {
		_, err := store.Upsert(context.Background(), id, content, "")
		require.NoError(t, err)
	}
	return NewRetrievalEngine(store, nil), store, idx
}

// filler returns a single-paragraph document of exactly n bytes that
// mentions "widget" and is unique per letter.
func filler(letter byte, n int) string {
	return "widget " + strings.Repeat(string(letter), n-len("widget "))
}

func chunkOpts(maxLen int) domain.RetrieveOptions {
	return domain.RetrieveOptions{
		MaxResults:        5,
		MinRelevanceScore: 0.3,
		MaxContextLength:  maxLen,
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"How do I configure the Widget?", "configure widget"},
		{"one two three four five six seven eight nine ten eleven", "three four five seven eight"},
		{"", ""},
		{"a an the", ""},
		{"Größe Übersicht", "größe übersicht"},
		{"C++ tips", "tips"},
		{"don't panic!", "dont panic"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeQuery(tt.query))
		})
	}
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	engine, _, _ := newTestRetrieval(t, nil)

	_, err := engine.Retrieve(context.Background(), "   ", domain.DefaultRetrieveOptions())

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRetrieve_UnknownChunkType(t *testing.T) {
	engine, _, _ := newTestRetrieval(t, nil)
	opts := chunkOpts(1000)
	opts.FilterByChunkType = []domain.ChunkType{"table"}

	_, err := engine.Retrieve(context.Background(), "widget", opts)

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRetrieve_FullDocuments(t *testing.T) {
	engine, _, _ := newTestRetrieval(t, map[string]string{
		"A.md": "Hello test world",
		"B.md": "unrelated",
	})

	res, err := engine.Retrieve(context.Background(), "test", domain.DefaultRetrieveOptions())

	require.NoError(t, err)
	assert.Equal(t, "[File: A.md]\nHello test world", res.Context)
	assert.Equal(t, "A.md", res.SourceFiles)
}

func TestRetrieve_FullDocumentsOnceEach(t *testing.T) {
	engine, _, _ := newTestRetrieval(t, map[string]string{
		"guide.md": "widget intro\n\nwidget setup\n\nwidget faq",
	})

	res, err := engine.Retrieve(context.Background(), "widget", domain.DefaultRetrieveOptions())

	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(res.Context, "[File: guide.md]"))
	assert.Contains(t, res.Context, "widget intro\n\nwidget setup\n\nwidget faq")
	assert.Equal(t, "guide.md", res.SourceFiles)
}

func TestRetrieve_FullDocumentsSkipsUnknownDocument(t *testing.T) {
	engine, _, idx := newTestRetrieval(t, map[string]string{"A.md": "widget text"})
	require.NoError(t, idx.VectorIndex.Upsert(context.Background(), []domain.IndexEntry{
		domain.NewIndexEntry("ghost.md", "", domain.Chunk{ID: "ghost#0", Content: "widget ghost", Type: domain.ChunkParagraph}),
	}))

	res, err := engine.Retrieve(context.Background(), "widget", domain.DefaultRetrieveOptions())

	require.NoError(t, err)
	assert.Equal(t, "[File: A.md]\nwidget text", res.Context)
	assert.Equal(t, "A.md", res.SourceFiles)
}

func TestRetrieve_DeduplicatesIdenticalContent(t *testing.T) {
	docs := map[string]string{
		"one.md": "shared widget content",
		"two.md": "shared widget content",
	}

	t.Run("full documents", func(t *testing.T) {
		engine, _, _ := newTestRetrieval(t, docs)

		res, err := engine.Retrieve(context.Background(), "widget", domain.DefaultRetrieveOptions())

		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(res.Context, "[File: "))
		assert.NotContains(t, res.SourceFiles, "\n")
	})

	t.Run("chunks", func(t *testing.T) {
		engine, _, _ := newTestRetrieval(t, docs)

		res, err := engine.Retrieve(context.Background(), "widget", chunkOpts(4000))

		require.NoError(t, err)
		assert.Equal(t, "shared widget content", res.Context)
		assert.NotContains(t, res.SourceFiles, "\n")
	})
}

func TestRetrieve_ContextStaysWithinBudget(t *testing.T) {
	docs := make(map[string]string)
	for i := range 5 {
		docs[string(rune('a'+i))+".md"] = filler(byte('a'+i), 300)
	}
	engine, _, _ := newTestRetrieval(t, docs)

	res, err := engine.Retrieve(context.Background(), "widget", chunkOpts(500))

	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Context), 500)
	// After the first chunk only 198 bytes remain, too few to cut another.
	assert.Len(t, res.Context, 300)
	assert.NotContains(t, res.Context, truncatedMarker)
}

func TestRetrieve_TruncatesHighScoringChunk(t *testing.T) {
	engine, _, _ := newTestRetrieval(t, map[string]string{
		"a.md": filler('a', 400),
		"b.md": filler('b', 400),
	})

	res, err := engine.Retrieve(context.Background(), "widget", chunkOpts(700))

	require.NoError(t, err)
	assert.Len(t, res.Context, 700)
	assert.True(t, strings.HasSuffix(res.Context, truncatedMarker))
	assert.Equal(t, 1, strings.Count(res.Context, truncatedMarker))
	assert.Len(t, strings.Split(res.SourceFiles, "\n"), 2)
}

func TestRetrieve_LowScoringChunkIsNotTruncated(t *testing.T) {
	engine, _, _ := newTestRetrieval(t, map[string]string{
		"a.md": filler('a', 400),
		"b.md": filler('b', 400),
	})

	// Half the terms match, so every hit scores 0.5.
	res, err := engine.Retrieve(context.Background(), "widget gadget", chunkOpts(700))

	require.NoError(t, err)
	assert.Len(t, res.Context, 400)
	assert.NotContains(t, res.Context, truncatedMarker)
	assert.NotContains(t, res.SourceFiles, "\n")
}

func TestRetrieve_MinimumRelevance(t *testing.T) {
	engine, _, _ := newTestRetrieval(t, map[string]string{
		"both.md":   "widget and gadget",
		"widget.md": "only widget here",
	})
	opts := chunkOpts(4000)
	opts.MinRelevanceScore = 0.8

	res, err := engine.Retrieve(context.Background(), "widget gadget", opts)

	require.NoError(t, err)
	assert.Equal(t, "widget and gadget", res.Context)
	assert.Equal(t, "both.md", res.SourceFiles)
}

func TestRetrieve_OrdersByScore(t *testing.T) {
	engine, _, _ := newTestRetrieval(t, map[string]string{
		"both.md":   "widget and gadget",
		"widget.md": "only widget here",
	})

	res, err := engine.Retrieve(context.Background(), "widget gadget", chunkOpts(4000))

	require.NoError(t, err)
	assert.Equal(t, "widget and gadget\n\nonly widget here", res.Context)
	assert.Equal(t, "both.md\nwidget.md", res.SourceFiles)
}

func TestRetrieve_FilterByChunkTypeWithMetadata(t *testing.T) {
	engine, _, idx := newTestRetrieval(t, map[string]string{
		"guide.md": "# Widget\n\nwidget paragraph text\n\n- widget item",
	})
	opts := chunkOpts(4000)
	opts.FilterByChunkType = []domain.ChunkType{domain.ChunkList}
	opts.IncludeMetadata = true

	res, err := engine.Retrieve(context.Background(), "widget", opts)

	require.NoError(t, err)
	assert.Equal(t, "[guide.md · list · score=1.00]\n- widget item", res.Context)
	assert.Equal(t, 1, idx.queryCalls)
}

func TestRetrieve_FilterByManyChunkTypes(t *testing.T) {
	engine, _, idx := newTestRetrieval(t, map[string]string{
		"guide.md": "# Widget\n\nwidget paragraph text\n\n- widget item",
	})
	opts := chunkOpts(4000)
	opts.FilterByChunkType = []domain.ChunkType{domain.ChunkSection, domain.ChunkList}

	res, err := engine.Retrieve(context.Background(), "widget", opts)

	require.NoError(t, err)
	assert.Contains(t, res.Context, "# Widget")
	assert.Contains(t, res.Context, "- widget item")
	assert.NotContains(t, res.Context, "paragraph")
	assert.Equal(t, 2, idx.queryCalls)
}

func TestRetrieve_SearchFailure(t *testing.T) {
	engine, _, idx := newTestRetrieval(t, nil)
	idx.queryErrs = []error{errors.New("bad request")}

	_, err := engine.Retrieve(context.Background(), "widget", domain.DefaultRetrieveOptions())

	assert.Error(t, err)
}

func TestRetrieve_UsesQueryCache(t *testing.T) {
	engine, store, idx := newTestRetrieval(t, map[string]string{"A.md": "widget text"})
	cache := memory.NewQueryCache()
	engine.SetQueryCache(cache)
	store.SetQueryCache(cache)

	first, err := engine.Retrieve(context.Background(), "widget", domain.DefaultRetrieveOptions())
	require.NoError(t, err)
	second, err := engine.Retrieve(context.Background(), "widget", domain.DefaultRetrieveOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, idx.queryCalls)
	assert.Equal(t, 1, cache.Len())

	_, err = store.Upsert(context.Background(), "B.md", "widget more", "")
	require.NoError(t, err)
	assert.Zero(t, cache.Len(), "index writes invalidate cached results")
}

func TestDiagnose(t *testing.T) {
	idx := newFakeIndex()
	store, _ := newTestVectorStore(idx)
	_, err := store.Upsert(context.Background(), "both.md", "widget and gadget", "")
	require.NoError(t, err)
	_, err = store.Upsert(context.Background(), "notes.txt", "- only widget here", domain.DocumentTypeUpload)
	require.NoError(t, err)
	engine := NewRetrievalEngine(store, nil)

	d, err := engine.Diagnose(context.Background(), "Widget? Gadget!")

	require.NoError(t, err)
	assert.Equal(t, "widget gadget", d.NormalizedQuery)
	assert.Equal(t, 2, d.Sampled)
	assert.Equal(t, 2, d.Documents)
	assert.InDelta(t, 0.75, d.MeanScore, 1e-9)
	assert.InDelta(t, 0.5, d.MinScore, 1e-9)
	assert.InDelta(t, 1.0, d.MaxScore, 1e-9)
	assert.Equal(t, map[domain.ChunkType]int{domain.ChunkParagraph: 1, domain.ChunkList: 1}, d.ChunkTypes)
	assert.Equal(t, map[string]int{"repository": 1, "upload": 1}, d.DocumentTypes)
}

func TestDiagnose_NoHits(t *testing.T) {
	engine, _, _ := newTestRetrieval(t, nil)

	d, err := engine.Diagnose(context.Background(), "widget")

	require.NoError(t, err)
	assert.Zero(t, d.Sampled)
	assert.Zero(t, d.MeanScore)
}
