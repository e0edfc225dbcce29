package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikk2511/Puja-ai-shopify/internal/chunker"
	"github.com/nikk2511/Puja-ai-shopify/internal/database"
	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// countingEmbedder returns fixed-size vectors and counts embedded texts.
type countingEmbedder struct {
	texts int
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	e.texts += len(texts)
	vectors := make([][]float64, len(texts))
	for i := range vectors {
		vectors[i] = []float64{1, float64(i)}
	}
	return vectors, nil
}

func testDoc(filename, hash string) models.SourceDocument {
	return models.SourceDocument{
		Filename:    filename,
		BookTitle:   "Test Book",
		ContentHash: hash,
		Pages: []models.PageText{
			{Number: 1, Text: strings.Repeat("instructions for the morning ritual sequence ", 5)},
		},
	}
}

func newTestPipeline(store database.Store, embedder Embedder) *Pipeline {
	return NewPipeline(store, chunker.New(1000, 200), embedder)
}

func TestIngestDocumentIndexesChunks(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	embedder := &countingEmbedder{}
	p := newTestPipeline(store, embedder)

	report, err := p.IngestDocument(ctx, testDoc("book.pdf", "hash1"), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 0, report.DocumentsSkipped)
	assert.Greater(t, report.ChunksCreated, 0)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.ChunksCreated, count)

	hash, err := store.SourceHash(ctx, "book.pdf")
	require.NoError(t, err)
	assert.Equal(t, "hash1", hash)
}

func TestIngestSkipsUnchangedDocument(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	embedder := &countingEmbedder{}
	p := newTestPipeline(store, embedder)

	_, err := p.IngestDocument(ctx, testDoc("book.pdf", "hash1"), false)
	require.NoError(t, err)
	callsAfterFirst := embedder.calls

	report, err := p.IngestDocument(ctx, testDoc("book.pdf", "hash1"), false)
	require.NoError(t, err)

	assert.Equal(t, 0, report.DocumentsProcessed)
	assert.Equal(t, 1, report.DocumentsSkipped)
	assert.Equal(t, callsAfterFirst, embedder.calls, "unchanged document must not be re-embedded")
}

func TestIngestForceReindexesUnchangedDocument(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	embedder := &countingEmbedder{}
	p := newTestPipeline(store, embedder)

	_, err := p.IngestDocument(ctx, testDoc("book.pdf", "hash1"), false)
	require.NoError(t, err)

	report, err := p.IngestDocument(ctx, testDoc("book.pdf", "hash1"), true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsProcessed)
}

func TestIngestChangedDocumentReplacesEntries(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	embedder := &countingEmbedder{}
	p := newTestPipeline(store, embedder)

	_, err := p.IngestDocument(ctx, testDoc("book.pdf", "hash1"), false)
	require.NoError(t, err)
	countBefore, err := store.Count(ctx)
	require.NoError(t, err)

	_, err = p.IngestDocument(ctx, testDoc("book.pdf", "hash2"), false)
	require.NoError(t, err)

	countAfter, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, countBefore, countAfter, "stale entries must be replaced, not accumulated")

	hash, err := store.SourceHash(ctx, "book.pdf")
	require.NoError(t, err)
	assert.Equal(t, "hash2", hash)
}

func TestIngestCollectsPerDocumentErrors(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	embedder := &countingEmbedder{}
	p := newTestPipeline(store, embedder)

	empty := models.SourceDocument{Filename: "empty.pdf", ContentHash: "h"}
	docs := []models.SourceDocument{
		testDoc("a.pdf", "ha"),
		testDoc("b.pdf", "hb"),
		empty,
		testDoc("c.pdf", "hc"),
	}

	report := p.Ingest(ctx, docs, false)

	assert.Equal(t, 3, report.DocumentsProcessed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "empty.pdf")
	assert.Contains(t, report.Errors[0], "no chunks produced")
}

func TestIngestEmbedFailureReported(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	embedder := &countingEmbedder{err: errors.New("embedding provider down")}
	p := newTestPipeline(store, embedder)

	_, err := p.IngestDocument(ctx, testDoc("book.pdf", "hash1"), false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding provider down")
}

func TestIngestPathsHandlesCorruptFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	body := strings.Repeat("the ritual begins with a purification of the space ", 5)
	var paths []string
	for i := 0; i < 4; i++ {
		path := filepath.Join(dir, fmt.Sprintf("book_%d.txt", i))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		paths = append(paths, path)
	}
	corrupt := filepath.Join(dir, "corrupt.pdf")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a pdf"), 0o644))
	paths = append(paths, corrupt)

	store := database.NewMemoryStore()
	p := newTestPipeline(store, &countingEmbedder{})

	report := p.IngestPaths(ctx, paths, false)

	assert.Equal(t, 4, report.DocumentsProcessed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "corrupt.pdf")
}

func TestIngestDirIndexesSupportedFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	body := strings.Repeat("offering flowers and incense to the deity each morning ", 5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte(body+"extra"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.docx"), []byte(body), 0o644))

	store := database.NewMemoryStore()
	p := newTestPipeline(store, &countingEmbedder{})

	report, err := p.IngestDir(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.DocumentsProcessed)
	assert.Empty(t, report.Errors)
}
