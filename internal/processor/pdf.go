package processor

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/phuslu/log"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

var (
	pageNumberLine = regexp.MustCompile(`^\d+$`)
	symbolOnlyLine = regexp.MustCompile(`^[^\w\s]*$`)
	multiSpace     = regexp.MustCompile(`\s+`)
)

// Processor extracts page-indexed text from source files and cleans it for
// chunking. PDF extraction goes through ledongthuc/pdf; plain-text files are
// treated as a single page.
type Processor struct{}

// NewProcessor creates a document processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadDocument reads a source file and returns a cleaned, page-indexed
// SourceDocument with its content hash.
func (p *Processor) LoadDocument(filePath string) (models.SourceDocument, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return models.SourceDocument{}, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	filename := filepath.Base(filePath)
	doc := models.SourceDocument{
		Filename:    filename,
		BookTitle:   BookTitle(filename),
		ContentHash: ContentHash(raw),
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf":
		pages, err := p.extractPDFPages(filePath)
		if err != nil {
			return models.SourceDocument{}, err
		}
		doc.Pages = pages
		doc.ExtractionMethod = "pdf"
	default:
		// Plain text: the whole file is page 1.
		doc.Pages = []models.PageText{{Number: 1, Text: string(raw)}}
		doc.ExtractionMethod = "text"
	}

	doc.Pages = p.cleanPages(doc.Pages)
	if len(doc.Pages) == 0 {
		return models.SourceDocument{}, fmt.Errorf("no usable text extracted from %s", filename)
	}

	return doc, nil
}

// extractPDFPages extracts text page by page. A page that fails to extract
// is skipped rather than failing the document.
func (p *Processor) extractPDFPages(filePath string) ([]models.PageText, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var pages []models.PageText
	total := r.NumPage()
	for num := 1; num <= total; num++ {
		page := r.Page(num)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Str("file", filePath).Int("page", num).Err(err).
				Msg("Failed to extract page, skipping")
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		pages = append(pages, models.PageText{Number: num, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text extracted from %s", filePath)
	}
	return pages, nil
}

// cleanPages strips repeated headers/footers, junk lines and excess
// whitespace, then drops pages left with too little text to index.
func (p *Processor) cleanPages(pages []models.PageText) []models.PageText {
	repeated := detectRepeatedLines(pages)

	var cleaned []models.PageText
	for _, page := range pages {
		text := removeRepeatedLines(page.Text, repeated)
		text = CleanText(text)
		if len(text) < 50 {
			continue
		}
		cleaned = append(cleaned, models.PageText{Number: page.Number, Text: text})
	}
	return cleaned
}

// CleanText normalizes extracted text: page-number-only lines, very short
// lines and symbol-only lines are removed, and whitespace is collapsed.
func CleanText(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if pageNumberLine.MatchString(line) {
			continue
		}
		if len(line) < 3 {
			continue
		}
		if symbolOnlyLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	cleaned := strings.Join(kept, " ")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// detectRepeatedLines finds first/last lines that recur across at least half
// of the pages, which marks them as running headers or footers.
func detectRepeatedLines(pages []models.PageText) []string {
	if len(pages) < 3 {
		return nil
	}

	first := make(map[string]int)
	last := make(map[string]int)
	for _, page := range pages {
		lines := nonEmptyLines(page.Text)
		if len(lines) > 0 {
			first[lines[0]]++
		}
		if len(lines) > 1 {
			last[lines[len(lines)-1]]++
		}
	}

	threshold := len(pages) / 2
	var repeated []string
	for line, count := range first {
		if count >= threshold {
			repeated = append(repeated, line)
		}
	}
	for line, count := range last {
		if count >= threshold {
			repeated = append(repeated, line)
		}
	}
	return repeated
}

func removeRepeatedLines(text string, repeated []string) string {
	if len(repeated) == 0 {
		return text
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		skip := false
		for _, pattern := range repeated {
			if trimmed == pattern {
				skip = true
				break
			}
		}
		if !skip {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// BookTitle derives a human-readable title from a filename:
// "durga_puja-vidhi.pdf" becomes "Durga Puja Vidhi".
func BookTitle(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)

	words := strings.Fields(stem)
	for i, word := range words {
		_, size := utf8.DecodeRuneInString(word)
		words[i] = strings.ToUpper(word[:size]) + word[size:]
	}
	return strings.Join(words, " ")
}

// ContentHash fingerprints raw file content for idempotent ingestion.
func ContentHash(raw []byte) string {
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}
