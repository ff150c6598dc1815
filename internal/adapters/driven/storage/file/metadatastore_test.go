package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

func testRecord(id string) domain.DocumentRecord {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return domain.DocumentRecord{DocID: id, Content: "body of " + id, CreatedAt: at, LastModified: at}
}

func TestMetadataStore_PutGetPersist(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := NewMetadataStore(dir)
	require.NoError(t, err)

	chunks := []domain.Chunk{{ID: "c1", Content: "body", Type: domain.ChunkParagraph, EndOffset: 4}}
	require.NoError(t, store.Put(ctx, testRecord("a.md"), chunks))

	reopened, err := NewMetadataStore(dir)
	require.NoError(t, err)

	rec, err := reopened.Get(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, testRecord("a.md"), *rec)

	got, err := reopened.Chunks(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, chunks, got)
}

func TestMetadataStore_FilesAndPermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewMetadataStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), testRecord("a.md"), nil))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	for _, name := range []string{metadataFile, chunkMapFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
	}

	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a.md"`)
	assert.Contains(t, string(data), `"content": "body of a.md"`)
}

func TestMetadataStore_Delete(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := NewMetadataStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, testRecord("a.md"), []domain.Chunk{{ID: "c1"}}))

	require.NoError(t, store.Delete(ctx, "a.md"))
	require.NoError(t, store.Delete(ctx, "never-existed"))

	reopened, err := NewMetadataStore(dir)
	require.NoError(t, err)
	_, err = reopened.Get(ctx, "a.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = reopened.Chunks(ctx, "a.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetadataStore_List(t *testing.T) {
	store, err := NewMetadataStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	for _, id := range []string{"b.md", "a.md", "c.md"} {
		require.NoError(t, store.Put(ctx, testRecord(id), nil))
	}

	docs, err := store.List(ctx)

	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.md", docs[0].DocID)
	assert.Equal(t, "c.md", docs[2].DocID)
}

func TestMetadataStore_CorruptFileIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), []byte("{not json"), 0600))

	_, err := NewMetadataStore(dir)

	assert.Error(t, err)
}
