package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

func TestSplitShortTextSingleSegment(t *testing.T) {
	c := New(1000, 200)

	segments := c.Split("light the lamp and offer flowers")

	require.Len(t, segments, 1)
	assert.Equal(t, "light the lamp and offer flowers", segments[0])
}

func TestSplitEmptyText(t *testing.T) {
	c := New(1000, 200)
	assert.Nil(t, c.Split(""))
}

func TestSplitSegmentSizeAndOverlap(t *testing.T) {
	c := New(100, 20)
	text := strings.Repeat("om namah shivaya ", 40) // 680 chars

	segments := c.Split(text)

	require.Greater(t, len(segments), 1)
	for i, seg := range segments {
		assert.LessOrEqual(t, len(seg), 100, "segment %d too long", i)
	}

	// Each segment after the first starts with the last 20 characters of
	// its predecessor.
	for i := 1; i < len(segments); i++ {
		prev := segments[i-1]
		assert.True(t, strings.HasPrefix(segments[i], prev[len(prev)-20:]),
			"segment %d does not overlap its predecessor", i)
	}
}

func TestSplitReassemblyReproducesInput(t *testing.T) {
	c := New(100, 20)
	text := strings.Repeat("the priest recites the sankalpa before the offering ", 25)

	segments := c.Split(text)
	require.Greater(t, len(segments), 1)

	var b strings.Builder
	b.WriteString(segments[0])
	for _, seg := range segments[1:] {
		b.WriteString(seg[20:])
	}
	assert.Equal(t, text, b.String())
}

func TestSplitPrefersWordBoundary(t *testing.T) {
	c := New(100, 20)
	text := strings.Repeat("word ", 60)

	segments := c.Split(text)
	require.Greater(t, len(segments), 1)
	for _, seg := range segments[:len(segments)-1] {
		assert.True(t, strings.HasSuffix(seg, " "),
			"segment should end at a word boundary: %q", seg)
	}
}

func TestSplitNeverSplitsRunes(t *testing.T) {
	c := New(100, 20)

	// Unbroken Devanagari forces hard cuts with no word boundary in reach.
	text := strings.Repeat("श्रीगणेशायनमः", 40)
	segments := c.Split(text)

	require.Greater(t, len(segments), 1)
	for i, segment := range segments {
		assert.True(t, utf8.ValidString(segment), "segment %d contains a split rune", i)
	}
}

func TestNewClampsOverlap(t *testing.T) {
	c := New(100, 150)
	assert.Equal(t, 50, c.ChunkOverlap)

	c = New(0, -1)
	assert.Equal(t, 1000, c.ChunkSize)
	assert.Equal(t, 200, c.ChunkOverlap)
}

func TestChunkDocumentMetadata(t *testing.T) {
	c := New(100, 20)
	doc := models.SourceDocument{
		Filename:  "ganesh_puja.pdf",
		BookTitle: "Ganesh Puja",
		Pages: []models.PageText{
			{Number: 1, Text: strings.Repeat("invocation of ganesha ", 10)},
			{Number: 3, Text: strings.Repeat("offering of modak and durva grass ", 10)},
		},
	}

	chunks := c.ChunkDocument(doc)
	require.NotEmpty(t, chunks)

	seenPages := map[int]bool{}
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Metadata.ChunkIndex)
		assert.Equal(t, "Ganesh Puja", chunk.Metadata.BookTitle)
		assert.Equal(t, "ganesh_puja.pdf", chunk.Metadata.SourceFile)
		assert.NotEmpty(t, chunk.ID)
		seenPages[chunk.Metadata.Page] = true
	}
	assert.True(t, seenPages[1])
	assert.True(t, seenPages[3])
}

func TestChunkDocumentKeepsShortOnlyChunk(t *testing.T) {
	c := New(1000, 200)
	doc := models.SourceDocument{
		Filename: "note.txt",
		Pages:    []models.PageText{{Number: 1, Text: "short note"}},
	}

	chunks := c.ChunkDocument(doc)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short note", chunks[0].Content)
}

func TestChunkDocumentDropsTinyTrailingSegments(t *testing.T) {
	c := New(100, 10)
	// Ends with a fragment well below the minimum chunk size.
	text := strings.Repeat("a detailed description of the ritual sequence ", 5) + "om"
	doc := models.SourceDocument{
		Filename: "book.pdf",
		Pages:    []models.PageText{{Number: 1, Text: text}},
	}

	for _, chunk := range c.ChunkDocument(doc) {
		assert.GreaterOrEqual(t, len(strings.TrimSpace(chunk.Content)), 30)
	}
}
