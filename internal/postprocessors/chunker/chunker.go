// Package chunker splits document text into semantically typed chunks.
//
// Text is split on blank lines. Each block is classified as code, list,
// section or paragraph, in that order. Paragraphs longer than the
// configured maximum are split on sentence boundaries and packed greedily.
//
// Offsets are approximate: they come from a running cursor and the
// chunks do not reconstruct the original text.
package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// DefaultMaxParagraphLength is the paragraph length above which a
// paragraph is split on sentences.
const DefaultMaxParagraphLength = 1000

var (
	blockSplit   = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd  = regexp.MustCompile(`[.!?]+`)
	codeKeyword  = regexp.MustCompile(`\b(function|class)\b`)
	listMarker   = regexp.MustCompile(`^\s*([-*+]|\d+\.)\s`)
	headingMark  = regexp.MustCompile(`^#{1,6}\s`)
	allCapsBlock = regexp.MustCompile(`^[A-Z][A-Z\s]+$`)
)

// IDFunc returns the id of the chunk at the given position.
type IDFunc func(ordinal int) string

// Sequential returns an IDFunc producing "<prefix>#<ordinal>".
func Sequential(prefix string) IDFunc {
	return func(ordinal int) string {
		return prefix + "#" + strconv.Itoa(ordinal)
	}
}

// Chunker splits text into chunks. It is safe for concurrent use.
type Chunker struct {
	maxParagraph int
	newID        IDFunc
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxParagraphLength sets the split threshold for long paragraphs.
func WithMaxParagraphLength(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxParagraph = n
		}
	}
}

// WithIDFunc makes chunk ids deterministic.
func WithIDFunc(fn IDFunc) Option {
	return func(c *Chunker) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New creates a chunker with the given options.
// Without WithIDFunc, chunk ids are random UUIDs.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxParagraph: DefaultMaxParagraphLength,
		newID:        func(int) string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the chunk type of a single block.
func Classify(block string) domain.ChunkType {
	switch {
	case strings.Contains(block, "```") || codeKeyword.MatchString(block):
		return domain.ChunkCode
	case listMarker.MatchString(block):
		return domain.ChunkList
	case headingMark.MatchString(block) || allCapsBlock.MatchString(block):
		return domain.ChunkSection
	default:
		return domain.ChunkParagraph
	}
}

// Chunk splits text. Empty blocks produce no chunks.
func (c *Chunker) Chunk(text string) []domain.Chunk {
	var chunks []domain.Chunk
	cursor := 0

	emit := func(content string, start int, typ domain.ChunkType) {
		chunks = append(chunks, domain.Chunk{
			ID:          c.newID(len(chunks)),
			Content:     content,
			StartOffset: start,
			EndOffset:   start + len(content),
			Type:        typ,
		})
	}

	for _, block := range blockSplit.Split(text, -1) {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" {
			continue
		}

		typ := Classify(block)
		if typ != domain.ChunkParagraph || len(trimmed) <= c.maxParagraph {
			emit(trimmed, cursor, typ)
			cursor += len(block) + 2
			continue
		}

		for _, group := range c.packSentences(trimmed) {
			emit(strings.TrimSpace(group), cursor, domain.ChunkParagraph)
			cursor += len(group)
		}
	}

	return chunks
}

// packSentences groups sentences greedily so that each group stays
// within the paragraph limit. A single sentence longer than the limit
// forms its own group.
func (c *Chunker) packSentences(paragraph string) []string {
	var (
		groups  []string
		current strings.Builder
	)

	for _, sentence := range sentenceEnd.Split(paragraph, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(sentence)+1 > c.maxParagraph {
			groups = append(groups, current.String())
			current.Reset()
		}
		current.WriteString(sentence)
		current.WriteString(". ")
	}
	if strings.TrimSpace(current.String()) != "" {
		groups = append(groups, current.String())
	}
	return groups
}
