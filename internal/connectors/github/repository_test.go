package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// fakeGitHub serves the subset of the REST API the repository uses.
type fakeGitHub struct {
	status map[string]int
	auth   []string
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	if code, ok := f.status[r.URL.Path]; ok {
		w.WriteHeader(code)
		_, _ = fmt.Fprintf(w, `{"message": "status %d"}`, code)
		return
	}

	w.Header().Set("X-RateLimit-Remaining", "4999")
	w.Header().Set("X-RateLimit-Limit", "5000")
	switch r.URL.Path {
	case "/repos/acme/docs/branches/main":
		_, _ = w.Write([]byte(`{"name": "main", "commit": {"sha": "rev2"}}`))
	case "/repos/acme/docs/git/trees/rev2":
		if r.URL.Query().Get("recursive") != "1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"sha": "rev2", "truncated": false, "tree": [
			{"path": "docs", "type": "tree"},
			{"path": "docs/guide.md", "type": "blob"},
			{"path": "README.md", "type": "blob"}
		]}`))
	case "/repos/acme/docs/compare/rev1...rev2":
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s%s?page=2>; rel="next"`, "http://"+r.Host, r.URL.Path))
			_, _ = w.Write([]byte(`{"files": [
				{"filename": "a.md", "status": "added"},
				{"filename": "b.md", "status": "modified"},
				{"filename": "c.md", "status": "unchanged"}
			]}`))
			return
		}
		_, _ = w.Write([]byte(`{"files": [
			{"filename": "d.md", "status": "removed"},
			{"filename": "new.md", "previous_filename": "old.md", "status": "renamed"}
		]}`))
	case "/repos/acme/docs/contents/docs/guide.md":
		if r.URL.Query().Get("ref") != "rev2" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		content := base64.StdEncoding.EncodeToString([]byte("# Guide\n\nHello"))
		_, _ = fmt.Fprintf(w, `{"type": "file", "encoding": "base64", "name": "guide.md", "path": "docs/guide.md", "content": %q}`, content)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Not Found"}`))
	}
}

func setupRepository(t *testing.T, token string) (*Repository, *fakeGitHub) {
	t.Helper()
	fake := &fakeGitHub{status: make(map[string]int)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), ClientConfig{
		Token:             token,
		BaseURL:           srv.URL,
		RequestsPerSecond: -1,
		HTTPClient:        srv.Client(),
	})
	require.NoError(t, err)
	return NewRepository(client, nil), fake
}

var testSource = domain.Source{URL: "https://github.com/acme/docs", Branch: "main"}

func TestRepository_LatestRevision(t *testing.T) {
	repo, fake := setupRepository(t, "ghp_test")

	rev, err := repo.LatestRevision(context.Background(), testSource)

	require.NoError(t, err)
	assert.Equal(t, "rev2", rev)
	assert.Equal(t, []string{"Bearer ghp_test"}, fake.auth)
	assert.Equal(t, 4999, repo.client.RateLimiter().Remaining())
}

func TestRepository_LatestRevision_UnknownBranch(t *testing.T) {
	repo, _ := setupRepository(t, "")

	_, err := repo.LatestRevision(context.Background(), domain.Source{URL: testSource.URL, Branch: "gone"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBranchNotFound))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRepository_Unauthenticated(t *testing.T) {
	repo, fake := setupRepository(t, "")

	_, err := repo.LatestRevision(context.Background(), testSource)

	require.NoError(t, err)
	assert.Equal(t, []string{""}, fake.auth)
}

func TestRepository_ListFiles(t *testing.T) {
	repo, _ := setupRepository(t, "")

	paths, err := repo.ListFiles(context.Background(), testSource, "rev2")

	require.NoError(t, err)
	assert.Equal(t, []string{"docs/guide.md", "README.md"}, paths)
}

func TestRepository_Compare(t *testing.T) {
	repo, _ := setupRepository(t, "")

	changes, err := repo.Compare(context.Background(), testSource, "rev1", "rev2")

	require.NoError(t, err)
	assert.Equal(t, []domain.FileChange{
		{Path: "a.md", Status: domain.FileAdded},
		{Path: "b.md", Status: domain.FileModified},
		{Path: "d.md", Status: domain.FileRemoved},
		{Path: "new.md", PreviousPath: "old.md", Status: domain.FileRenamed},
	}, changes)
}

func TestRepository_FetchFile(t *testing.T) {
	repo, _ := setupRepository(t, "")

	data, err := repo.FetchFile(context.Background(), testSource, "docs/guide.md", "rev2")

	require.NoError(t, err)
	assert.Equal(t, "# Guide\n\nHello", string(data))
}

func TestRepository_FetchFile_Missing(t *testing.T) {
	repo, _ := setupRepository(t, "")

	_, err := repo.FetchFile(context.Background(), testSource, "nope.md", "rev2")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, IsNotFound(err))
}

func TestRepository_ServerErrorIsTransient(t *testing.T) {
	repo, fake := setupRepository(t, "")
	fake.status["/repos/acme/docs/branches/main"] = http.StatusBadGateway

	_, err := repo.LatestRevision(context.Background(), testSource)

	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestRepository_InvalidSourceURL(t *testing.T) {
	repo, _ := setupRepository(t, "")

	_, err := repo.LatestRevision(context.Background(), domain.Source{URL: "not-a-repo", Branch: "main"})

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestChangeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want domain.ChangeStatus
		ok   bool
	}{
		{"added", domain.FileAdded, true},
		{"copied", domain.FileAdded, true},
		{"changed", domain.FileModified, true},
		{"removed", domain.FileRemoved, true},
		{"renamed", domain.FileRenamed, true},
		{"unchanged", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := changeStatus(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
