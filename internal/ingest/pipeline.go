// Package ingest drives document ingestion: extract, chunk, embed, index.
// Ingestion is idempotent by content hash unless forced, and a failure on
// one document never aborts the rest of the corpus.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phuslu/log"

	"github.com/nikk2511/Puja-ai-shopify/internal/chunker"
	"github.com/nikk2511/Puja-ai-shopify/internal/database"
	"github.com/nikk2511/Puja-ai-shopify/internal/models"
	"github.com/nikk2511/Puja-ai-shopify/internal/processor"
)

// Embedder is the slice of the embedding gateway the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Pipeline ingests source documents into the vector index.
type Pipeline struct {
	store     database.Store
	chunker   *chunker.Chunker
	embedder  Embedder
	processor *processor.Processor
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(store database.Store, ch *chunker.Chunker, embedder Embedder) *Pipeline {
	return &Pipeline{
		store:     store,
		chunker:   ch,
		embedder:  embedder,
		processor: processor.NewProcessor(),
	}
}

// IngestDir ingests every PDF and text file in a directory, sorted by name.
func (p *Pipeline) IngestDir(ctx context.Context, dir string, force bool) (*models.IngestionReport, error) {
	var paths []string
	for _, pattern := range []string{"*.pdf", "*.txt"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	return p.IngestPaths(ctx, paths, force), nil
}

// IngestPaths ingests the given files. Extraction and indexing failures are
// collected per document in the report.
func (p *Pipeline) IngestPaths(ctx context.Context, paths []string, force bool) *models.IngestionReport {
	report := &models.IngestionReport{}

	for _, path := range paths {
		doc, err := p.processor.LoadDocument(path)
		if err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s: %v", filepath.Base(path), err))
			continue
		}
		p.ingestInto(ctx, report, doc, force)
	}
	return report
}

// Ingest ingests already-loaded documents with the same per-document
// failure semantics as IngestPaths.
func (p *Pipeline) Ingest(ctx context.Context, docs []models.SourceDocument, force bool) *models.IngestionReport {
	report := &models.IngestionReport{}
	for _, doc := range docs {
		p.ingestInto(ctx, report, doc, force)
	}
	return report
}

// IngestDocument ingests a single document, the admin upload path. It
// returns an error when that one document failed.
func (p *Pipeline) IngestDocument(ctx context.Context, doc models.SourceDocument, force bool) (*models.IngestionReport, error) {
	report := p.Ingest(ctx, []models.SourceDocument{doc}, force)
	if len(report.Errors) > 0 {
		return report, fmt.Errorf("ingestion failed: %s", strings.Join(report.Errors, "; "))
	}
	return report, nil
}

func (p *Pipeline) ingestInto(ctx context.Context, report *models.IngestionReport, doc models.SourceDocument, force bool) {
	created, skipped, err := p.ingestOne(ctx, doc, force)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", doc.Filename, err))
		return
	}
	if skipped {
		report.DocumentsSkipped++
		log.Info().Str("file", doc.Filename).Msg("Skipping unchanged document")
		return
	}
	report.DocumentsProcessed++
	report.ChunksCreated += created
}

// ingestOne processes one document: skip when its content hash is already
// indexed (unless forced), otherwise replace its entries wholesale.
func (p *Pipeline) ingestOne(ctx context.Context, doc models.SourceDocument, force bool) (int, bool, error) {
	if !force {
		hash, err := p.store.SourceHash(ctx, doc.Filename)
		if err != nil {
			return 0, false, err
		}
		if hash != "" && hash == doc.ContentHash {
			return 0, true, nil
		}
	}

	// Stale entries go first so a re-ingest never leaves duplicates behind.
	if err := p.store.DeleteSource(ctx, doc.Filename); err != nil {
		return 0, false, err
	}

	chunks := p.chunker.ChunkDocument(doc)
	if len(chunks) == 0 {
		return 0, false, fmt.Errorf("no chunks produced")
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, false, err
	}

	entries := make([]models.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = models.IndexEntry{Chunk: chunks[i], Embedding: vectors[i]}
	}

	if err := p.store.Upsert(ctx, entries); err != nil {
		return 0, false, err
	}
	if err := p.store.RecordSourceHash(ctx, doc.Filename, doc.ContentHash); err != nil {
		return 0, false, err
	}

	log.Info().Str("file", doc.Filename).Int("chunks", len(entries)).
		Msg("Indexed document")
	return len(entries), false, nil
}
