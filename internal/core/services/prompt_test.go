package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

type stubRetriever struct {
	res   domain.RetrievalResult
	err   error
	query string
}

func (r *stubRetriever) Retrieve(_ context.Context, query string, _ domain.RetrieveOptions) (domain.RetrievalResult, error) {
	r.query = query
	return r.res, r.err
}

func (r *stubRetriever) Diagnose(context.Context, string) (domain.Diagnostics, error) {
	return domain.Diagnostics{}, nil
}

type stubPrompts struct {
	text string
	err  error
}

func (p stubPrompts) Load(string) (string, error) { return p.text, p.err }

func TestBuildPrompt(t *testing.T) {
	res := domain.RetrievalResult{Context: "[File: a.md]\nhello", SourceFiles: "a.md\nb.md"}

	p := BuildPrompt("", "  what is hello? ", res)

	assert.Equal(t, domain.DefaultSystemPrompt, p.System)
	assert.Equal(t, "Context:\n[File: a.md]\nhello\n\nQuestion: what is hello?\nAnswer:", p.User)
	assert.Equal(t, []string{"a.md", "b.md"}, p.SourceFiles)
}

func TestBuildPrompt_CustomSystemAndNoSources(t *testing.T) {
	p := BuildPrompt("be brief", "q", domain.RetrievalResult{})

	assert.Equal(t, "be brief", p.System)
	assert.Nil(t, p.SourceFiles)
}

func TestPromptService_UsesStoredSystemPrompt(t *testing.T) {
	r := &stubRetriever{res: domain.RetrievalResult{Context: "ctx", SourceFiles: "a.md"}}
	svc := NewPromptService(r, stubPrompts{text: "answer tersely"}, nil)

	p, err := svc.BuildPrompt(context.Background(), "how?", domain.RetrieveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "how?", r.query)
	assert.Equal(t, "answer tersely", p.System)
	assert.Equal(t, "Context:\nctx\n\nQuestion: how?\nAnswer:", p.User)
}

func TestPromptService_StoreFailureFallsBack(t *testing.T) {
	svc := NewPromptService(&stubRetriever{}, stubPrompts{err: errors.New("disk gone")}, nil)

	p, err := svc.BuildPrompt(context.Background(), "how?", domain.RetrieveOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSystemPrompt, p.System)
}

func TestPromptService_RetrieveError(t *testing.T) {
	svc := NewPromptService(&stubRetriever{err: domain.ErrInvalidInput}, nil, nil)

	_, err := svc.BuildPrompt(context.Background(), "", domain.RetrieveOptions{})

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
