package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync/internal/core/domain"
)

func newTestIngest() (*IngestService, *memory.MetadataStore, *fakeIndex) {
	idx := newFakeIndex()
	store, meta := newTestVectorStore(idx)
	return NewIngestService(store, fakeExtractor{}, nil, nil), meta, idx
}

func TestIngestUpload(t *testing.T) {
	svc, meta, _ := newTestIngest()

	msg, err := svc.IngestUpload(context.Background(), []byte("# Notes\n\nsome text"), "notes.md")

	require.NoError(t, err)
	assert.Equal(t, "File notes.md ingested successfully (2 chunks)", msg)
	rec, err := meta.Get(context.Background(), "notes.md")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentTypeUpload, rec.DocumentType)
	assert.Equal(t, "# Notes\n\nsome text", rec.Content)
}

func TestIngestUpload_UsesBaseName(t *testing.T) {
	tests := map[string]string{
		"docs/guide.md":          "guide.md",
		`C:\Users\me\report.txt`: "report.txt",
		"  spaced.mdx ":          "spaced.mdx",
	}
	for filename, want := range tests {
		t.Run(filename, func(t *testing.T) {
			svc, meta, _ := newTestIngest()

			_, err := svc.IngestUpload(context.Background(), []byte("content"), filename)

			require.NoError(t, err)
			_, err = meta.Get(context.Background(), want)
			assert.NoError(t, err)
		})
	}
}

func TestIngestUpload_ReplacesPreviousUpload(t *testing.T) {
	svc, meta, idx := newTestIngest()
	_, err := svc.IngestUpload(context.Background(), []byte("first\n\nversion"), "a.md")
	require.NoError(t, err)

	_, err = svc.IngestUpload(context.Background(), []byte("second"), "a.md")

	require.NoError(t, err)
	chunks, err := meta.Chunks(context.Background(), "a.md")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "second", chunks[0].Content)
	assert.Equal(t, 1, idx.Len())
}

func TestIngestUpload_PDF(t *testing.T) {
	svc, meta, _ := newTestIngest()

	_, err := svc.IngestUpload(context.Background(), []byte("%PDF body"), "Manual.PDF")

	require.NoError(t, err)
	rec, err := meta.Get(context.Background(), "Manual.PDF")
	require.NoError(t, err)
	assert.Equal(t, "extracted %PDF body", rec.Content)
}

func TestIngestUpload_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		filename string
		want     error
	}{
		{"empty file", "", "a.md", domain.ErrInvalidInput},
		{"missing name", "text", "  ", domain.ErrInvalidInput},
		{"unsupported type", "text", "image.png", domain.ErrUnsupportedType},
		{"no extension", "text", "Makefile", domain.ErrUnsupportedType},
		{"whitespace only", " \n\t ", "blank.txt", domain.ErrNoText},
		{"unreadable pdf", "%PD", "scan.pdf", domain.ErrNoText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, meta, _ := newTestIngest()

			_, err := svc.IngestUpload(context.Background(), []byte(tt.data), tt.filename)

			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			docs, err := meta.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, docs)
		})
	}
}

func TestIngestUpload_PDFWithoutExtractor(t *testing.T) {
	idx := newFakeIndex()
	store, _ := newTestVectorStore(idx)
	svc := NewIngestService(store, nil, nil, nil)

	_, err := svc.IngestUpload(context.Background(), []byte("%PDF body"), "a.pdf")

	assert.True(t, errors.Is(err, domain.ErrNoText))
}

func TestIngestUpload_CustomExtensions(t *testing.T) {
	idx := newFakeIndex()
	store, _ := newTestVectorStore(idx)
	svc := NewIngestService(store, nil, []string{"rst"}, nil)

	_, err := svc.IngestUpload(context.Background(), []byte("text"), "a.rst")
	require.NoError(t, err)

	_, err = svc.IngestUpload(context.Background(), []byte("text"), "a.md")
	assert.True(t, errors.Is(err, domain.ErrUnsupportedType))
}

func TestExtractText_StripsByteOrderMark(t *testing.T) {
	got := extractText(context.Background(), nil, nil, "a.md", []byte("\ufeff  hello \n"))

	assert.Equal(t, "hello", got)
}
