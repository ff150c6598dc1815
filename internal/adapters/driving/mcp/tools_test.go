package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns context and sources", func(t *testing.T) {
		retriever := &mockRetriever{result: domain.RetrievalResult{
			Context:     "[File: a.md]\ninstall",
			SourceFiles: "a.md\nb.md",
		}}
		server := newTestServer(t, &Ports{Retriever: retriever})

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "install"})

		require.NoError(t, err)
		assert.Equal(t, "[File: a.md]\ninstall", output.Context)
		assert.Equal(t, []string{"a.md", "b.md"}, output.SourceFiles)
		assert.Equal(t, domain.DefaultRetrieveOptions(), retriever.gotOpts)
	})

	t.Run("input overrides defaults", func(t *testing.T) {
		retriever := &mockRetriever{}
		server := newTestServer(t, &Ports{Retriever: retriever})
		minScore := 0.5
		full := false

		_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{
			Query:                "install",
			MaxResults:           8,
			MinRelevanceScore:    &minScore,
			ChunkTypes:           []string{"code", "list"},
			MaxContextLength:     900,
			IncludeMetadata:      true,
			IncludeFullDocuments: &full,
		})

		require.NoError(t, err)
		assert.Equal(t, 8, retriever.gotOpts.MaxResults)
		assert.Equal(t, 0.5, retriever.gotOpts.MinRelevanceScore)
		assert.Equal(t, []domain.ChunkType{domain.ChunkCode, domain.ChunkList}, retriever.gotOpts.FilterByChunkType)
		assert.Equal(t, 900, retriever.gotOpts.MaxContextLength)
		assert.True(t, retriever.gotOpts.IncludeMetadata)
		assert.False(t, retriever.gotOpts.IncludeFullDocuments)
	})

	t.Run("unknown chunk type is invalid input", func(t *testing.T) {
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{}})

		_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "x", ChunkTypes: []string{"table"}})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{err: errors.New("index down")}})

		_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "x"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "index down")
	})
}

func TestServer_handleBuildPrompt(t *testing.T) {
	prompts := &mockPrompts{prompt: domain.Prompt{System: "sys", User: "usr", SourceFiles: []string{"a.md"}}}
	server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Prompts: prompts})

	_, output, err := server.handleBuildPrompt(context.Background(), nil, RetrieveInput{Query: "how"})

	require.NoError(t, err)
	assert.Equal(t, PromptOutput{System: "sys", User: "usr", SourceFiles: "a.md"}, output)
}

func TestServer_handleSync(t *testing.T) {
	ctx := context.Background()

	t.Run("single repository", func(t *testing.T) {
		sync := &mockSync{outcome: domain.SyncOutcome{
			SourceID: "o/r@main", State: domain.SyncCompleted, FilesIngested: 3,
		}}
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Sync: sync})

		_, output, err := server.handleSync(ctx, nil, SyncInput{RepoURL: "https://github.com/o/r", Force: true})

		require.NoError(t, err)
		assert.Equal(t, "Sync successful", output.Message)
		require.Len(t, output.Outcomes, 1)
		assert.Equal(t, 3, output.Outcomes[0].FilesIngested)
		assert.Equal(t, "https://github.com/o/r", sync.gotURL)
		assert.True(t, sync.gotOpts.Force)
	})

	t.Run("skip is not an error", func(t *testing.T) {
		sync := &mockSync{outcome: domain.SyncOutcome{State: domain.SyncSkippedInProgress}}
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Sync: sync})

		_, output, err := server.handleSync(ctx, nil, SyncInput{RepoURL: "https://github.com/o/r"})

		require.NoError(t, err)
		assert.Equal(t, "Sync in progress", output.Message)
	})

	t.Run("empty url syncs all", func(t *testing.T) {
		sync := &mockSync{outcomes: []domain.SyncOutcome{
			{SourceID: "a", State: domain.SyncCompleted},
			{SourceID: "b", State: domain.SyncUnchanged},
		}}
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Sync: sync})

		_, output, err := server.handleSync(ctx, nil, SyncInput{})

		require.NoError(t, err)
		assert.Equal(t, "Synced 2 repositories", output.Message)
		assert.Len(t, output.Outcomes, 2)
		assert.Equal(t, "No sync needed", output.Outcomes[1].Message)
	})

	t.Run("failure is returned", func(t *testing.T) {
		sync := &mockSync{err: fmt.Errorf("source: %w", domain.ErrInvalidInput)}
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Sync: sync})

		_, _, err := server.handleSync(ctx, nil, SyncInput{RepoURL: "nope"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestServer_handleSyncStatus(t *testing.T) {
	src, err := domain.NewSource("https://github.com/o/r", "main")
	require.NoError(t, err)
	sync := &mockSync{statuses: []driving.SourceStatus{
		{Source: src, Revision: "abc", LastSync: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{Source: src, Running: true},
	}}
	server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Sync: sync})

	_, output, err := server.handleSyncStatus(context.Background(), nil, struct{}{})

	require.NoError(t, err)
	require.Len(t, output.Sources, 2)
	assert.Equal(t, src.ID(), output.Sources[0].Source)
	assert.Equal(t, "2026-03-01T12:00:00Z", output.Sources[0].LastSync)
	assert.Empty(t, output.Sources[1].LastSync)
	assert.True(t, output.Sources[1].Running)
}

func TestServer_fileTools(t *testing.T) {
	ctx := context.Background()

	t.Run("components list", func(t *testing.T) {
		files := &mockFiles{text: "catalogue"}
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Files: files})

		_, output, err := server.handleComponentsList(ctx, nil, struct{}{})

		require.NoError(t, err)
		assert.Equal(t, "catalogue", output.Context)
	})

	t.Run("missing style guide", func(t *testing.T) {
		files := &mockFiles{err: fmt.Errorf("tailwind.config.js: %w", domain.ErrNotFound)}
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Files: files})

		_, _, err := server.handleStyleGuide(ctx, nil, struct{}{})

		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "file not found in repository")
	})

	t.Run("component code", func(t *testing.T) {
		files := &mockFiles{text: "<button/>"}
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Files: files})
		refs := []driving.ComponentRef{{Category: "forms", Slug: "button"}}

		_, output, err := server.handleComponentCode(ctx, nil, ComponentCodeInput{Components: refs})

		require.NoError(t, err)
		assert.Equal(t, "<button/>", output.Context)
		assert.Equal(t, refs, files.refs)
	})

	t.Run("component code requires components", func(t *testing.T) {
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Files: &mockFiles{}})

		_, _, err := server.handleComponentCode(ctx, nil, ComponentCodeInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("component metadata", func(t *testing.T) {
		files := &mockFiles{text: "docs"}
		server := newTestServer(t, &Ports{Retriever: &mockRetriever{}, Files: files})

		_, output, err := server.handleComponentMetadata(ctx, nil,
			ComponentMetadataInput{ComponentNames: []string{"Button"}})

		require.NoError(t, err)
		assert.Equal(t, "docs", output.Context)
		assert.Equal(t, []string{"Button"}, files.names)

		_, _, err = server.handleComponentMetadata(ctx, nil, ComponentMetadataInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
