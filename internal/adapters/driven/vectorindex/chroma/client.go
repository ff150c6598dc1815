// Package chroma implements driven.VectorIndex over the Chroma REST API (v2).
//
// Text is embedded client-side through a driven.EmbeddingService; Chroma
// only stores vectors, documents and metadata. New collections use the
// cosine space. An existing collection keeps the space it was created
// with, so distances are mapped to relevance by that space: 1 - d for
// cosine and ip, 1 - d/2 for l2 (squared distance between unit vectors),
// clamped to [0,1].
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:10947"
	DefaultTenant     = "default_tenant"
	DefaultDatabase   = "default_database"
	DefaultCollection = "rag-collection"
	DefaultTimeout    = 30 * time.Second
)

// Metadata keys stored with every entry.
const (
	keyDocID        = "docId"
	keyChunkType    = "chunkType"
	keyDocumentType = "documentType"
)

// Distance spaces of an HNSW collection. Chroma defaults to l2.
const (
	spaceCosine = "cosine"
	spaceIP     = "ip"
	spaceL2     = "l2"

	keySpace = "hnsw:space"
)

// Config holds configuration for the Chroma index.
type Config struct {
	// BaseURL is the server address (default: http://localhost:10947).
	BaseURL string

	// Tenant and Database select the namespace (defaults: default_tenant, default_database).
	Tenant   string
	Database string

	// Collection is the collection name (default: rag-collection).
	Collection string

	// Token is sent as X-Chroma-Token when set.
	Token string

	// Timeout is the HTTP client timeout (default: 30s).
	Timeout time.Duration

	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
}

// Index is a Chroma-backed vector index.
type Index struct {
	client   *http.Client
	baseURL  string
	tenant   string
	database string
	name     string
	token    string
	embedder driven.EmbeddingService

	mu           sync.Mutex
	collectionID string
	space        string
}

// New creates a Chroma index client. No request is made until first use.
func New(cfg Config, embedder driven.EmbeddingService) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("chroma: %w: embedding service is required", domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("chroma: %w: base url: %v", domain.ErrConfiguration, err)
	}
	if cfg.Tenant == "" {
		cfg.Tenant = DefaultTenant
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Index{
		client:   client,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		tenant:   cfg.Tenant,
		database: cfg.Database,
		name:     cfg.Collection,
		token:    cfg.Token,
		embedder: embedder,
	}, nil
}

type collectionRequest struct {
	Name        string         `json:"name"`
	GetOrCreate bool           `json:"get_or_create"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type collectionResponse struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Metadata      map[string]any `json:"metadata"`
	Configuration struct {
		HNSW *struct {
			Space string `json:"space"`
		} `json:"hnsw"`
	} `json:"configuration_json"`
}

// distanceSpace returns the collection's space. Newer servers report it
// in the configuration, older ones only in the metadata.
func (r collectionResponse) distanceSpace() string {
	if h := r.Configuration.HNSW; h != nil && h.Space != "" {
		return h.Space
	}
	if s, ok := r.Metadata[keySpace].(string); ok && s != "" {
		return s
	}
	return spaceL2
}

type upsertRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]*string        `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

// EnsureCollection gets or creates the collection and caches its id.
// A collection in a space other than cosine, ip or l2 is rejected with
// domain.ErrConfiguration.
func (x *Index) EnsureCollection(ctx context.Context) error {
	_, err := x.collection(ctx)
	return err
}

func (x *Index) collection(ctx context.Context) (string, error) {
	id, _, err := x.collectionSpace(ctx)
	return id, err
}

func (x *Index) collectionSpace(ctx context.Context) (string, string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.collectionID != "" {
		return x.collectionID, x.space, nil
	}

	var resp collectionResponse
	err := x.do(ctx, http.MethodPost, x.databasePath()+"/collections", collectionRequest{
		Name:        x.name,
		GetOrCreate: true,
		Metadata:    map[string]any{keySpace: spaceCosine},
	}, &resp)
	if err != nil {
		return "", "", fmt.Errorf("ensure collection %s: %w", x.name, err)
	}
	if resp.ID == "" {
		return "", "", fmt.Errorf("ensure collection %s: empty collection id", x.name)
	}
	space := resp.distanceSpace()
	switch space {
	case spaceCosine, spaceIP, spaceL2:
	default:
		return "", "", fmt.Errorf("ensure collection %s: %w: unsupported distance space %q",
			x.name, domain.ErrConfiguration, space)
	}
	x.collectionID = resp.ID
	x.space = space
	return resp.ID, space, nil
}

// Upsert embeds and writes entries.
func (x *Index) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	id, err := x.collection(ctx)
	if err != nil {
		return err
	}

	req := upsertRequest{
		IDs:       make([]string, len(entries)),
		Documents: make([]string, len(entries)),
		Metadatas: make([]map[string]any, len(entries)),
	}
	for i, e := range entries {
		req.IDs[i] = e.ChunkID
		req.Documents[i] = e.Content
		req.Metadatas[i] = metadataOf(e.Metadata)
	}
	req.Embeddings, err = x.embedder.EmbedBatch(ctx, req.Documents)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(entries), err)
	}
	if len(req.Embeddings) != len(entries) {
		return fmt.Errorf("embedding returned %d vectors for %d chunks", len(req.Embeddings), len(entries))
	}

	if err := x.do(ctx, http.MethodPost, x.collectionPath(id)+"/upsert", req, nil); err != nil {
		return x.forget(fmt.Errorf("upsert %d entries: %w", len(entries), err))
	}
	return nil
}

// Delete removes entries by chunk id. Chroma ignores unknown ids.
func (x *Index) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	id, err := x.collection(ctx)
	if err != nil {
		return err
	}
	if err := x.do(ctx, http.MethodPost, x.collectionPath(id)+"/delete", deleteRequest{IDs: chunkIDs}, nil); err != nil {
		return x.forget(fmt.Errorf("delete %d entries: %w", len(chunkIDs), err))
	}
	return nil
}

// Query embeds text and returns up to k hits satisfying filter.
func (x *Index) Query(
	ctx context.Context, text string, k int, filter domain.SearchFilter,
) ([]domain.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}
	id, space, err := x.collectionSpace(ctx)
	if err != nil {
		return nil, err
	}
	vector, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var resp queryResponse
	err = x.do(ctx, http.MethodPost, x.collectionPath(id)+"/query", queryRequest{
		QueryEmbeddings: [][]float32{vector},
		NResults:        k,
		Where:           whereOf(filter),
		Include:         []string{"documents", "metadatas", "distances"},
	}, &resp)
	if err != nil {
		return nil, x.forget(fmt.Errorf("query: %w", err))
	}
	return hitsOf(resp, space), nil
}

// Heartbeat checks that the server answers.
func (x *Index) Heartbeat(ctx context.Context) error {
	return x.do(ctx, http.MethodGet, "/api/v2/heartbeat", nil, nil)
}

// Close releases idle connections.
func (x *Index) Close() error {
	x.client.CloseIdleConnections()
	return nil
}

// forget drops the cached collection id when the collection has vanished,
// so the next call recreates it.
func (x *Index) forget(err error) error {
	if IsNotFound(err) {
		x.mu.Lock()
		x.collectionID = ""
		x.space = ""
		x.mu.Unlock()
	}
	return err
}

func (x *Index) databasePath() string {
	return "/api/v2/tenants/" + url.PathEscape(x.tenant) + "/databases/" + url.PathEscape(x.database)
}

func (x *Index) collectionPath(id string) string {
	return x.databasePath() + "/collections/" + url.PathEscape(id)
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (x *Index) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, x.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if x.token != "" {
		req.Header.Set("X-Chroma-Token", x.token)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("chroma: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("chroma: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("chroma: decode response: %w", err)
	}
	return nil
}

// errorMessage extracts Chroma's {"error":..,"message":..} body, falling
// back to the raw text.
func errorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		switch {
		case e.Error != "" && e.Message != "":
			return e.Error + ": " + e.Message
		case e.Message != "":
			return e.Message
		case e.Error != "":
			return e.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func metadataOf(m domain.ChunkMetadata) map[string]any {
	out := map[string]any{
		keyDocID:     m.DocID,
		keyChunkType: string(m.ChunkType),
	}
	if m.DocumentType != "" {
		out[keyDocumentType] = m.DocumentType
	}
	return out
}

// whereOf builds Chroma's where clause. Two conditions need $and.
func whereOf(f domain.SearchFilter) map[string]any {
	var conds []map[string]any
	if f.ChunkType != "" {
		conds = append(conds, map[string]any{keyChunkType: map[string]any{"$eq": string(f.ChunkType)}})
	}
	if f.DocumentType != "" {
		conds = append(conds, map[string]any{keyDocumentType: map[string]any{"$eq": f.DocumentType}})
	}
	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		and := make([]any, len(conds))
		for i, c := range conds {
			and[i] = c
		}
		return map[string]any{"$and": and}
	}
}

// relevance maps a distance in space to a score in [0,1].
func relevance(distance float64, space string) float64 {
	var score float64
	switch space {
	case spaceL2:
		score = 1 - distance/2
	default:
		score = 1 - distance
	}
	return math.Max(0, math.Min(1, score))
}

// hitsOf flattens the single-query response.
func hitsOf(resp queryResponse, space string) []domain.SearchHit {
	if len(resp.IDs) == 0 {
		return nil
	}
	ids := resp.IDs[0]
	hits := make([]domain.SearchHit, 0, len(ids))
	for i, id := range ids {
		hit := domain.SearchHit{ChunkID: id}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) && resp.Documents[0][i] != nil {
			hit.Content = *resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			md := resp.Metadatas[0][i]
			hit.DocID, _ = md[keyDocID].(string)
			ct, _ := md[keyChunkType].(string)
			hit.ChunkType = domain.ChunkType(ct)
			hit.DocumentType, _ = md[keyDocumentType].(string)
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			hit.RelevanceScore = relevance(resp.Distances[0][i], space)
		}
		hits = append(hits, hit)
	}
	return hits
}
