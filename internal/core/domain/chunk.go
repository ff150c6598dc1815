package domain

import "fmt"

// ChunkType classifies a chunk by the shape of its text.
type ChunkType string

// Chunk types produced by the chunker.
const (
	ChunkParagraph ChunkType = "paragraph"
	ChunkSection   ChunkType = "section"
	ChunkCode      ChunkType = "code"
	ChunkList      ChunkType = "list"
)

// AllChunkTypes returns every known chunk type.
func AllChunkTypes() []ChunkType {
	return []ChunkType{ChunkParagraph, ChunkSection, ChunkCode, ChunkList}
}

// ParseChunkType validates a chunk type string.
func ParseChunkType(s string) (ChunkType, error) {
	switch ChunkType(s) {
	case ChunkParagraph, ChunkSection, ChunkCode, ChunkList:
		return ChunkType(s), nil
	default:
		return "", fmt.Errorf("%w: chunk type %q", ErrInvalidInput, s)
	}
}

// Chunk is a contiguous, typed slice of a document's text.
// Chunks are immutable once created.
type Chunk struct {
	// ID is stable for the lifetime of a document version.
	ID string `json:"id"`

	// Content is the trimmed text of the chunk. Never empty.
	Content string `json:"content"`

	// StartOffset and EndOffset locate the chunk in the source text.
	// They are approximate: the union of all offsets does not
	// reconstruct the original text.
	StartOffset int `json:"startIndex"`
	EndOffset   int `json:"endIndex"`

	// Type is the chunk classification.
	Type ChunkType `json:"chunkType"`
}

// ChunkMetadata is the metadata stored alongside each index entry.
type ChunkMetadata struct {
	DocID        string
	ChunkType    ChunkType
	DocumentType string
}

// Validate checks the metadata before it crosses the index boundary.
func (m ChunkMetadata) Validate() error {
	if m.DocID == "" {
		return fmt.Errorf("%w: empty document id", ErrInvalidInput)
	}
	if _, err := ParseChunkType(string(m.ChunkType)); err != nil {
		return err
	}
	return nil
}

// IndexEntry is one chunk as written to the vector index.
type IndexEntry struct {
	ChunkID  string
	Content  string
	Metadata ChunkMetadata
}

// NewIndexEntry builds the index entry for a chunk of a document.
func NewIndexEntry(docID, documentType string, c Chunk) IndexEntry {
	return IndexEntry{
		ChunkID: c.ID,
		Content: c.Content,
		Metadata: ChunkMetadata{
			DocID:        docID,
			ChunkType:    c.Type,
			DocumentType: documentType,
		},
	}
}
