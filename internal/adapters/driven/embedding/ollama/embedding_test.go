package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewEmbeddingService(Config{BaseURL: srv.URL + "/"})
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultDimensions, svc.Dimensions())
}

func TestEmbedBatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, []string{"one", "two"}, req.Input)
		_, _ = w.Write([]byte(`{"embeddings": [[0.5, 1], [1, 0.5]]}`))
	})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"one", "two"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 1}, {1, 0.5}}, vecs)
}

func TestEmbed_CountMismatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings": []}`))
	})

	_, err := svc.Embed(context.Background(), "one")

	assert.Error(t, err)
}

func TestEmbed_ModelLoadingIsTransient(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "model is loading"}`))
	})

	_, err := svc.Embed(context.Background(), "one")

	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
	assert.Contains(t, err.Error(), "model is loading")
}

func TestEmbed_UnknownModel(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model not found"}`))
	})

	_, err := svc.Embed(context.Background(), "one")

	require.Error(t, err)
	assert.False(t, domain.IsTransient(err))
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models": []}`))
	})

	assert.NoError(t, svc.Ping(context.Background()))
}
