package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

func newTestFiles() (*FileService, *fakeRepo) {
	repo := newFakeRepo("rev1", map[string]string{
		"ui/components-list.txt":                 "button\ncard",
		"ui/tailwind.config.js":                  "module.exports = {}",
		"ui/comp-code/forms/button.html":         "<button/>",
		"ui/comp-code/layout/card.html":          "<div class=card/>",
		"ui/DOCS_METADATA/button.md":             "# Button",
		"ui/DOCS_METADATA/archive/old-button.md": "# Old",
	})
	src := domain.Source{URL: testRepoURL, Branch: "develop"}
	return NewFileService(repo, src, nil), repo
}

func TestFileService_ComponentsList(t *testing.T) {
	svc, repo := newTestFiles()

	got, err := svc.ComponentsList(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "button\ncard", got)
	assert.Equal(t, []string{"list@develop", "fetch ui/components-list.txt@develop"}, repo.callLog())
}

func TestFileService_StyleGuide(t *testing.T) {
	svc, _ := newTestFiles()

	got, err := svc.StyleGuide(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "module.exports = {}", got)
}

func TestFileService_ComponentCode(t *testing.T) {
	svc, _ := newTestFiles()

	got, err := svc.ComponentCode(context.Background(), []driving.ComponentRef{
		{Category: "forms", Slug: "button"},
		{Category: "forms", Slug: "missing"},
		{Category: "layout", Slug: "card"},
	})

	require.NoError(t, err)
	assert.Equal(t,
		"ui/comp-code/forms/button.html\n<button/>\n\nui/comp-code/layout/card.html\n<div class=card/>",
		got)
}

func TestFileService_ComponentMetadata(t *testing.T) {
	svc, _ := newTestFiles()

	got, err := svc.ComponentMetadata(context.Background(), []string{"button"})

	require.NoError(t, err)
	assert.Equal(t, "ui/DOCS_METADATA/button.md\n# Button", got)
}

func TestFileService_NotFound(t *testing.T) {
	svc, repo := newTestFiles()
	delete(repo.files, "ui/tailwind.config.js")

	_, err := svc.StyleGuide(context.Background())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = svc.ComponentMetadata(context.Background(), []string{"nothing"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFileService_InvalidInput(t *testing.T) {
	svc, _ := newTestFiles()

	_, err := svc.ComponentCode(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = svc.ComponentCode(context.Background(), []driving.ComponentRef{{Slug: "button"}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = svc.ComponentMetadata(context.Background(), []string{" "})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestFindSuffix(t *testing.T) {
	paths := []string{"a/xbutton.md", "a/button.md", "button.md"}

	p, ok := findSuffix(paths, "button.md")
	assert.True(t, ok)
	assert.Equal(t, "a/button.md", p)

	_, ok = findSuffix(paths, "card.md")
	assert.False(t, ok)
}
