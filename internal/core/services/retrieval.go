package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure RetrievalEngine implements the interface.
var _ driving.Retriever = (*RetrievalEngine)(nil)

const (
	// maxQueryTerms caps the normalised query.
	maxQueryTerms = 5

	// minTermLength is the shortest term kept; shorter words are dropped.
	minTermLength = 4

	// truncateMinScore is the score a chunk needs to be cut to fit the budget.
	truncateMinScore = 0.7

	// truncateMinRoom is the budget that must remain for a cut chunk.
	truncateMinRoom = 200

	// diagnosticsSample is the number of hits aggregated by Diagnose.
	diagnosticsSample = 20

	truncatedMarker = "...[truncated]"
	chunkSeparator  = "\n\n"
)

// RetrievalEngine turns queries into bounded, deduplicated context.
type RetrievalEngine struct {
	store *VectorStore
	cache driven.QueryCache
	log   *logger.Logger
}

// NewRetrievalEngine creates a retrieval engine over the vector store.
func NewRetrievalEngine(store *VectorStore, log *logger.Logger) *RetrievalEngine {
	if log == nil {
		log = logger.Discard()
	}
	return &RetrievalEngine{
		store: store,
		log:   log.With("retrieve"),
	}
}

// SetQueryCache enables result caching.
func (e *RetrievalEngine) SetQueryCache(cache driven.QueryCache) {
	e.cache = cache
}

// NormalizeQuery reduces a query to at most five lowercase keywords
// longer than three characters, with punctuation removed. It is a
// keyword heuristic, not query understanding.
func NormalizeQuery(query string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, query)

	terms := make([]string, 0, maxQueryTerms)
	for _, w := range strings.Fields(stripped) {
		if utf8.RuneCountInString(w) < minTermLength {
			continue
		}
		terms = append(terms, w)
		if len(terms) == maxQueryTerms {
			break
		}
	}
	return strings.Join(terms, " ")
}

// Retrieve returns the context and source files for query.
func (e *RetrievalEngine) Retrieve(
	ctx context.Context, query string, opts domain.RetrieveOptions,
) (domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.RetrievalResult{}, fmt.Errorf("retrieve: %w: empty query", domain.ErrInvalidInput)
	}
	opts = opts.Normalized()
	for _, t := range opts.FilterByChunkType {
		if _, err := domain.ParseChunkType(string(t)); err != nil {
			return domain.RetrievalResult{}, fmt.Errorf("retrieve: %w", err)
		}
	}

	key := cacheKey(query, opts)
	if cached, ok := e.cacheGet(ctx, key); ok {
		e.log.Debug("cache hit for %q", query)
		return cached, nil
	}

	searchText := NormalizeQuery(query)
	if searchText == "" {
		searchText = query
	}
	e.log.Debug("query %q normalised to %q", query, searchText)

	hits, err := e.candidates(ctx, searchText, opts)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("retrieve: %w", err)
	}

	var result domain.RetrievalResult
	if opts.IncludeFullDocuments {
		result, err = e.assembleDocuments(ctx, hits)
		if err != nil {
			return domain.RetrievalResult{}, fmt.Errorf("retrieve: %w", err)
		}
	} else {
		result = assembleChunks(hits, opts)
	}
	e.log.Debug("assembled %d chars from %d hits", len(result.Context), len(hits))

	e.cacheSet(ctx, key, result)
	return result, nil
}

// candidates runs the similarity searches and returns hits above the
// score floor, best first.
func (e *RetrievalEngine) candidates(
	ctx context.Context, text string, opts domain.RetrieveOptions,
) ([]domain.SearchHit, error) {
	var hits []domain.SearchHit

	if types := opts.FilterByChunkType; len(types) > 0 {
		per := max(int(math.Ceil(float64(opts.MaxResults)/float64(len(types)))), 1)
		results := make([][]domain.SearchHit, len(types))

		g, gctx := errgroup.WithContext(ctx)
		for i, t := range types {
			g.Go(func() error {
				res, err := e.store.Search(gctx, text, per, domain.SearchFilter{ChunkType: t})
				if err != nil {
					return fmt.Errorf("search %s chunks: %w", t, err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, res := range results {
			hits = append(hits, res...)
		}
	} else {
		res, err := e.store.Search(ctx, text, 2*opts.MaxResults, domain.SearchFilter{})
		if err != nil {
			return nil, err
		}
		hits = res
	}

	kept := hits[:0]
	for _, h := range hits {
		if h.RelevanceScore >= opts.MinRelevanceScore {
			kept = append(kept, h)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})
	if len(opts.FilterByChunkType) > 0 && len(kept) > opts.MaxResults {
		kept = kept[:opts.MaxResults]
	}
	return kept, nil
}

// assembleDocuments emits each matched document in full under a
// "[File: <id>]" header, in order of its best hit.
func (e *RetrievalEngine) assembleDocuments(
	ctx context.Context, hits []domain.SearchHit,
) (domain.RetrievalResult, error) {
	var (
		parts   []string
		sources []string
		seenDoc = make(map[string]bool)
		seenSum = make(map[string]bool)
	)

	for _, h := range hits {
		if seenDoc[h.DocID] {
			continue
		}
		seenDoc[h.DocID] = true

		rec, err := e.store.Document(ctx, h.DocID)
		if errors.Is(err, domain.ErrNotFound) {
			e.log.Warn("hit for unknown document %s, skipping", h.DocID)
			continue
		}
		if err != nil {
			return domain.RetrievalResult{}, fmt.Errorf("load %s: %w", h.DocID, err)
		}

		sum := contentHash(rec.Content)
		if seenSum[sum] {
			continue
		}
		seenSum[sum] = true

		parts = append(parts, "[File: "+h.DocID+"]\n"+rec.Content)
		sources = append(sources, h.DocID)
	}

	return domain.RetrievalResult{
		Context:     strings.Join(parts, chunkSeparator),
		SourceFiles: strings.Join(sources, "\n"),
	}, nil
}

// assembleChunks packs chunks, best first, into the context budget.
// A chunk that does not fit is cut only when it scores above 0.7 and
// at least 200 characters of budget remain; otherwise packing stops.
func assembleChunks(hits []domain.SearchHit, opts domain.RetrieveOptions) domain.RetrievalResult {
	var (
		b       strings.Builder
		sources []string
		seenDoc = make(map[string]bool)
		seenSum = make(map[string]bool)
	)

	for _, h := range hits {
		sum := contentHash(h.Content)
		if seenSum[sum] {
			continue
		}
		seenSum[sum] = true

		piece := h.Content
		if opts.IncludeMetadata {
			piece = fmt.Sprintf("[%s · %s · score=%.2f]\n%s", h.DocID, h.ChunkType, h.RelevanceScore, piece)
		}

		sep := 0
		if b.Len() > 0 {
			sep = len(chunkSeparator)
		}
		room := opts.MaxContextLength - b.Len() - sep

		if len(piece) > room {
			if h.RelevanceScore <= truncateMinScore || room < truncateMinRoom {
				break
			}
			piece = cutAt(piece, room-len(truncatedMarker)) + truncatedMarker
		}

		if sep > 0 {
			b.WriteString(chunkSeparator)
		}
		b.WriteString(piece)
		if !seenDoc[h.DocID] {
			seenDoc[h.DocID] = true
			sources = append(sources, h.DocID)
		}
		if strings.HasSuffix(piece, truncatedMarker) {
			break
		}
	}

	return domain.RetrievalResult{
		Context:     b.String(),
		SourceFiles: strings.Join(sources, "\n"),
	}
}

// Diagnose aggregates score and type distributions over the top hits.
func (e *RetrievalEngine) Diagnose(ctx context.Context, query string) (domain.Diagnostics, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Diagnostics{}, fmt.Errorf("diagnose: %w: empty query", domain.ErrInvalidInput)
	}
	searchText := NormalizeQuery(query)
	if searchText == "" {
		searchText = query
	}

	hits, err := e.store.Search(ctx, searchText, diagnosticsSample, domain.SearchFilter{})
	if err != nil {
		return domain.Diagnostics{}, fmt.Errorf("diagnose: %w", err)
	}

	d := domain.Diagnostics{
		Query:           query,
		NormalizedQuery: searchText,
		Sampled:         len(hits),
		ChunkTypes:      make(map[domain.ChunkType]int),
		DocumentTypes:   make(map[string]int),
	}
	docs := make(map[string]bool)
	var total float64
	for i, h := range hits {
		total += h.RelevanceScore
		if i == 0 || h.RelevanceScore < d.MinScore {
			d.MinScore = h.RelevanceScore
		}
		if i == 0 || h.RelevanceScore > d.MaxScore {
			d.MaxScore = h.RelevanceScore
		}
		d.ChunkTypes[h.ChunkType]++
		docType := h.DocumentType
		if docType == "" {
			docType = "repository"
		}
		d.DocumentTypes[docType]++
		docs[h.DocID] = true
	}
	if len(hits) > 0 {
		d.MeanScore = total / float64(len(hits))
	}
	d.Documents = len(docs)

	e.log.Debug("diagnostics for %q: %d hits, mean %.3f, min %.3f, max %.3f, types %v",
		query, d.Sampled, d.MeanScore, d.MinScore, d.MaxScore, d.ChunkTypes)
	return d, nil
}

func (e *RetrievalEngine) cacheGet(ctx context.Context, key string) (domain.RetrievalResult, bool) {
	if e.cache == nil {
		return domain.RetrievalResult{}, false
	}
	res, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.log.Warn("query cache read failed: %v", err)
		return domain.RetrievalResult{}, false
	}
	if !ok || res == nil {
		return domain.RetrievalResult{}, false
	}
	return *res, true
}

func (e *RetrievalEngine) cacheSet(ctx context.Context, key string, res domain.RetrievalResult) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, res); err != nil {
		e.log.Warn("query cache write failed: %v", err)
	}
}

func cacheKey(query string, opts domain.RetrieveOptions) string {
	return contentHash(fmt.Sprintf("%s\x00%+v", query, opts))
}

func contentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// cutAt returns the longest prefix of s no longer than n bytes that
// ends on a rune boundary.
func cutAt(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
