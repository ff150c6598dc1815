// Package gemini provides an embedding service adapter using the Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel      = "text-embedding-004"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 768

	// maxBatch is the API limit on requests per batchEmbedContents call.
	maxBatch  = 100
	userAgent = "docsync"
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Google API key (required).
	APIKey string

	// BaseURL is the API base URL including version.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (default: 768).
	Dimensions int

	// HTTPClient overrides the transport built from the Google API options.
	HTTPClient *http.Client
}

// EmbeddingService generates embeddings using the Gemini API.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type embedRequest struct {
	Model   string  `json:"model"`
	Content content `json:"content"`
}

type batchRequest struct {
	Requests []embedRequest `json:"requests"`
}

type values struct {
	Values []float32 `json:"values"`
}

type batchResponse struct {
	Embeddings []values `json:"embeddings"`
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: API key is required", domain.ErrEmbeddingUnavailable)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	client := cfg.HTTPClient
	if client == nil {
		// The key travels in a header, so the transport needs no credentials.
		c, _, err := htransport.NewClient(ctx,
			option.WithoutAuthentication(),
			option.WithUserAgent(userAgent),
		)
		if err != nil {
			return nil, fmt.Errorf("gemini: create http client: %w", err)
		}
		c.Timeout = cfg.Timeout
		client = c
	}

	return &EmbeddingService{
		client:     client,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      strings.TrimPrefix(cfg.Model, "models/"),
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("gemini: no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for texts, at most 100 per request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		batch, err := s.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (s *EmbeddingService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := batchRequest{Requests: make([]embedRequest, len(texts))}
	for i, t := range texts {
		req.Requests[i] = embedRequest{
			Model:   "models/" + s.model,
			Content: content{Parts: []part{{Text: t}}},
		}
	}

	var resp batchResponse
	if err := s.call(ctx, http.MethodPost, ":batchEmbedContents", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping fetches the model description, validating the key without inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.call(ctx, http.MethodGet, "", nil, nil)
}

// Close releases idle connections.
func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// call sends a request to the model resource; suffix is appended to its path.
func (s *EmbeddingService) call(ctx context.Context, method, suffix string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("gemini: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := s.baseURL + "/models/" + url.PathEscape(s.model) + suffix
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, http.NoBody)
	}
	if err != nil {
		return fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: send request: %w", err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return classify(err)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	return nil
}

// classify marks rate limiting and server-side failures as transient.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("gemini: %w: %w", domain.ErrTransient, err)
		case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
			return fmt.Errorf("gemini: %w: %w", domain.ErrEmbeddingUnavailable, err)
		}
	}
	return fmt.Errorf("gemini: %w", err)
}
