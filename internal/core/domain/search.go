package domain

import "strings"

// SearchFilter restricts a similarity query. Set fields are combined
// conjunctively; empty fields do not filter.
type SearchFilter struct {
	DocumentType string
	ChunkType    ChunkType
}

// IsEmpty reports whether the filter restricts nothing.
func (f SearchFilter) IsEmpty() bool {
	return f.DocumentType == "" && f.ChunkType == ""
}

// SearchHit is a candidate chunk returned by the vector index.
type SearchHit struct {
	DocID        string    `json:"docId"`
	ChunkID      string    `json:"chunkId"`
	Content      string    `json:"chunkContent"`
	ChunkType    ChunkType `json:"chunkType"`
	DocumentType string    `json:"documentType,omitempty"`

	// RelevanceScore is normalised to [0,1], higher is better.
	RelevanceScore float64 `json:"relevanceScore"`
}

// Matches reports whether the hit satisfies the filter.
func (h SearchHit) Matches(f SearchFilter) bool {
	if f.DocumentType != "" && h.DocumentType != f.DocumentType {
		return false
	}
	if f.ChunkType != "" && h.ChunkType != f.ChunkType {
		return false
	}
	return true
}

// Retrieval defaults.
const (
	DefaultMaxResults        = 5
	DefaultMinRelevanceScore = 0.3
	DefaultMaxContextLength  = 4000
)

// RetrieveOptions configures context assembly for a query.
// Start from DefaultRetrieveOptions; zero values of numeric fields are
// replaced by defaults.
type RetrieveOptions struct {
	MaxResults           int         `json:"maxResults"`
	MinRelevanceScore    float64     `json:"minRelevanceScore"`
	IncludeMetadata      bool        `json:"includeMetadata"`
	FilterByChunkType    []ChunkType `json:"filterByChunkType,omitempty"`
	MaxContextLength     int         `json:"maxContextLength"`
	IncludeFullDocuments bool        `json:"includeFullDocuments"`
}

// DefaultRetrieveOptions returns the default options.
func DefaultRetrieveOptions() RetrieveOptions {
	return RetrieveOptions{
		MaxResults:           DefaultMaxResults,
		MinRelevanceScore:    DefaultMinRelevanceScore,
		MaxContextLength:     DefaultMaxContextLength,
		IncludeFullDocuments: true,
	}
}

// Normalized fills zero numeric fields with defaults.
func (o RetrieveOptions) Normalized() RetrieveOptions {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.MinRelevanceScore < 0 {
		o.MinRelevanceScore = 0
	}
	if o.MaxContextLength <= 0 {
		o.MaxContextLength = DefaultMaxContextLength
	}
	return o
}

// RetrievalResult is the answer-ready context for a query.
type RetrievalResult struct {
	Context string `json:"context"`

	// SourceFiles is the newline-joined list of unique document ids.
	SourceFiles string `json:"source_files"`
}

// Sources splits SourceFiles into document ids.
func (r RetrievalResult) Sources() []string {
	if r.SourceFiles == "" {
		return nil
	}
	return strings.Split(r.SourceFiles, "\n")
}

// Diagnostics aggregates score and type distributions over a sample of hits.
type Diagnostics struct {
	Query           string            `json:"query"`
	NormalizedQuery string            `json:"normalizedQuery"`
	Sampled         int               `json:"sampled"`
	MeanScore       float64           `json:"meanScore"`
	MinScore        float64           `json:"minScore"`
	MaxScore        float64           `json:"maxScore"`
	ChunkTypes      map[ChunkType]int `json:"chunkTypes"`
	DocumentTypes   map[string]int    `json:"documentTypes"`
	Documents       int               `json:"documents"`
}
