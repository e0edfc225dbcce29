package processor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

func TestCleanText(t *testing.T) {
	input := "  The priest begins the sankalpa\n42\n--\nom\nthen offers flowers  to the deity\n"

	got := CleanText(input)

	assert.Equal(t, "The priest begins the sankalpa then offers flowers to the deity", got)
}

func TestCleanTextDropsSymbolOnlyLines(t *testing.T) {
	assert.Equal(t, "real content here", CleanText("***\n===\nreal content here\n---"))
}

func TestBookTitle(t *testing.T) {
	assert.Equal(t, "Durga Puja Vidhi", BookTitle("durga_puja-vidhi.pdf"))
	assert.Equal(t, "Ganesh", BookTitle("ganesh.txt"))
	assert.Equal(t, "Morning Prayers", BookTitle("morning prayers.pdf"))
}

func TestBookTitleKeepsMultiByteLetters(t *testing.T) {
	assert.Equal(t, "दुर्गा पूजा", BookTitle("दुर्गा_पूजा.pdf"))
	assert.Equal(t, "Shiva पूजन Vidhi", BookTitle("shiva_पूजन_vidhi.pdf"))
}

func TestContentHashStable(t *testing.T) {
	a := ContentHash([]byte("same content"))
	b := ContentHash([]byte("same content"))
	c := ContentHash([]byte("different content"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestLoadDocumentPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evening_aarti.txt")
	content := "The evening aarti is performed at dusk with a lit lamp waved before the deity."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := NewProcessor()
	doc, err := p.LoadDocument(path)
	require.NoError(t, err)

	assert.Equal(t, "evening_aarti.txt", doc.Filename)
	assert.Equal(t, "Evening Aarti", doc.BookTitle)
	assert.Equal(t, "text", doc.ExtractionMethod)
	assert.Equal(t, ContentHash([]byte(content)), doc.ContentHash)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Contains(t, doc.Pages[0].Text, "evening aarti is performed at dusk")
}

func TestLoadDocumentTooShortFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stub.txt")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0o644))

	p := NewProcessor()
	_, err := p.LoadDocument(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable text")
}

func TestLoadDocumentMissingFile(t *testing.T) {
	p := NewProcessor()
	_, err := p.LoadDocument(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}

func TestCleanPagesRemovesRunningHeaders(t *testing.T) {
	body := strings.Repeat("detailed instructions for the ritual sequence ", 3)
	var pages []models.PageText
	for i := 1; i <= 4; i++ {
		pages = append(pages, models.PageText{
			Number: i,
			Text:   "Puja Vidhi Handbook\n" + body + "\nChapter One",
		})
	}

	p := NewProcessor()
	cleaned := p.cleanPages(pages)

	require.Len(t, cleaned, 4)
	for _, page := range cleaned {
		assert.NotContains(t, page.Text, "Puja Vidhi Handbook")
		assert.NotContains(t, page.Text, "Chapter One")
		assert.Contains(t, page.Text, "detailed instructions")
	}
}

func TestCleanPagesKeepsHeadersOnFewPages(t *testing.T) {
	body := strings.Repeat("some meaningful page content for the index ", 3)
	pages := []models.PageText{
		{Number: 1, Text: "Header\n" + body},
		{Number: 2, Text: "Header\n" + body},
	}

	p := NewProcessor()
	cleaned := p.cleanPages(pages)

	require.Len(t, cleaned, 2)
	assert.Contains(t, cleaned[0].Text, "Header")
}

func TestCleanPagesDropsNearEmptyPages(t *testing.T) {
	pages := []models.PageText{
		{Number: 1, Text: "tiny"},
		{Number: 2, Text: strings.Repeat("substantial page content worth indexing ", 3)},
	}

	p := NewProcessor()
	cleaned := p.cleanPages(pages)

	require.Len(t, cleaned, 1)
	assert.Equal(t, 2, cleaned[0].Number)
}
