package mcp

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	result  domain.RetrievalResult
	gotOpts domain.RetrieveOptions
	err     error
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, opts domain.RetrieveOptions) (domain.RetrievalResult, error) {
	m.gotOpts = opts
	return m.result, m.err
}

func (m *mockRetriever) Diagnose(_ context.Context, q string) (domain.Diagnostics, error) {
	return domain.Diagnostics{Query: q}, m.err
}

// mockPrompts is a mock implementation of driving.PromptBuilder.
type mockPrompts struct {
	prompt domain.Prompt
	err    error
}

func (m *mockPrompts) BuildPrompt(_ context.Context, _ string, _ domain.RetrieveOptions) (domain.Prompt, error) {
	return m.prompt, m.err
}

// mockSync is a mock implementation of driving.SyncCoordinator.
type mockSync struct {
	outcome  domain.SyncOutcome
	outcomes []domain.SyncOutcome
	statuses []driving.SourceStatus
	gotURL   string
	gotOpts  driving.SyncOptions
	err      error
}

func (m *mockSync) Sync(_ context.Context, url, _ string, opts driving.SyncOptions) (domain.SyncOutcome, error) {
	m.gotURL, m.gotOpts = url, opts
	return m.outcome, m.err
}

func (m *mockSync) SyncAll(_ context.Context, opts driving.SyncOptions) ([]domain.SyncOutcome, error) {
	m.gotOpts = opts
	return m.outcomes, m.err
}

func (m *mockSync) Status(_ context.Context) ([]driving.SourceStatus, error) {
	return m.statuses, m.err
}

// mockFiles is a mock implementation of driving.RepositoryFiles.
type mockFiles struct {
	text  string
	refs  []driving.ComponentRef
	names []string
	err   error
}

func (m *mockFiles) ComponentsList(_ context.Context) (string, error) { return m.text, m.err }
func (m *mockFiles) StyleGuide(_ context.Context) (string, error)     { return m.text, m.err }

func (m *mockFiles) ComponentCode(_ context.Context, refs []driving.ComponentRef) (string, error) {
	m.refs = refs
	return m.text, m.err
}

func (m *mockFiles) ComponentMetadata(_ context.Context, names []string) (string, error) {
	m.names = names
	return m.text, m.err
}

// mockDocuments is a mock implementation of driving.DocumentIndex.
type mockDocuments struct {
	docs []domain.DocumentRecord
	err  error
}

func (m *mockDocuments) Document(_ context.Context, id string) (*domain.DocumentRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].DocID == id {
			return &m.docs[i], nil
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
}

func (m *mockDocuments) Documents(_ context.Context) ([]domain.DocumentRecord, error) {
	return m.docs, m.err
}

func (m *mockDocuments) Remove(_ context.Context, _ string) error { return m.err }
