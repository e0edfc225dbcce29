package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

const (
	// How far to look back from a cut point for a word boundary.
	boundaryLookback = 80
	// Chunks smaller than this carry too little signal to index.
	minChunkChars = 30
)

// Chunker splits page text into overlapping fixed-size segments.
type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
}

// New creates a chunker. Non-positive sizes fall back to the 1000/200
// defaults, and the overlap is clamped below the chunk size.
func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 200
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Chunker{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}
}

// Split cuts text into segments of at most ChunkSize characters where each
// segment after the first begins ChunkOverlap characters before the end of
// its predecessor. Cuts prefer a word boundary within a small lookback
// window and never land inside a multi-byte rune (the overlap shrinks by
// up to three bytes when it would). Text shorter than ChunkSize yields
// exactly one segment with no overlap. Concatenating the segments in
// order, dropping the first ChunkOverlap bytes of each segment after the
// first, reproduces the input exactly for word-delimited text.
func (c *Chunker) Split(text string) []string {
	if len(text) <= c.ChunkSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var segments []string
	start := 0
	for {
		end := start + c.ChunkSize
		if end >= len(text) {
			segments = append(segments, text[start:])
			break
		}

		cut := c.wordBoundary(text, start, end)
		segments = append(segments, text[start:cut])

		next := cut - c.ChunkOverlap
		for next > start && next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		if next <= start {
			// Overlap would stall progress on a pathological cut; drop it
			// for this step rather than loop forever.
			next = cut
		}
		start = next
	}
	return segments
}

// wordBoundary finds the nearest whitespace boundary at or before end,
// falling back to the hard cut when none exists within the lookback window.
func (c *Chunker) wordBoundary(text string, start, end int) int {
	low := end - boundaryLookback
	if low < start+1 {
		low = start + 1
	}
	for i := end; i > low; i-- {
		if text[i-1] == ' ' || text[i-1] == '\n' || text[i-1] == '\t' {
			return i
		}
	}
	// Hard cut; back off so a multi-byte rune is never split.
	for end > start+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// ChunkDocument splits every page of a source document, tagging each chunk
// with its page number and a sequential index within the document. Chunks
// below the minimum size are dropped unless they are a page's only chunk.
func (c *Chunker) ChunkDocument(doc models.SourceDocument) []models.Chunk {
	var chunks []models.Chunk
	idx := 0

	for _, page := range doc.Pages {
		segments := c.Split(page.Text)
		for _, segment := range segments {
			if len(segments) > 1 && len(strings.TrimSpace(segment)) < minChunkChars {
				continue
			}

			chunks = append(chunks, models.Chunk{
				ID:      uuid.NewString(),
				Content: segment,
				Metadata: models.Metadata{
					BookTitle:        doc.BookTitle,
					Page:             page.Number,
					ChunkIndex:       idx,
					SourceFile:       doc.Filename,
					ExtractionMethod: doc.ExtractionMethod,
				},
			})
			idx++
		}
	}

	return chunks
}
