// Package pipeline wires admission, caching, planning, retrieval and
// generation into the ask flow, plus the admin operations around it.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"

	"github.com/nikk2511/Puja-ai-shopify/internal/cache"
	"github.com/nikk2511/Puja-ai-shopify/internal/database"
	"github.com/nikk2511/Puja-ai-shopify/internal/generator"
	"github.com/nikk2511/Puja-ai-shopify/internal/ingest"
	"github.com/nikk2511/Puja-ai-shopify/internal/models"
	"github.com/nikk2511/Puja-ai-shopify/internal/planner"
	"github.com/nikk2511/Puja-ai-shopify/internal/products"
	"github.com/nikk2511/Puja-ai-shopify/internal/ratelimit"
	"github.com/nikk2511/Puja-ai-shopify/internal/retriever"
)

const snippetMaxChars = 200

// Pipeline answers puja questions from the indexed corpus.
type Pipeline struct {
	store     database.Store
	retriever *retriever.Retriever
	generator *generator.Generator
	cache     *cache.Cache
	limiter   *ratelimit.Limiter
	matcher   *products.Matcher
	ingestor  *ingest.Pipeline
	pdfDir    string
}

// Deps lists the collaborators the pipeline needs.
type Deps struct {
	Store     database.Store
	Retriever *retriever.Retriever
	Generator *generator.Generator
	Cache     *cache.Cache
	Limiter   *ratelimit.Limiter
	Matcher   *products.Matcher
	Ingestor  *ingest.Pipeline
	PDFDir    string
}

// New assembles a pipeline from its collaborators.
func New(deps Deps) *Pipeline {
	return &Pipeline{
		store:     deps.Store,
		retriever: deps.Retriever,
		generator: deps.Generator,
		cache:     deps.Cache,
		limiter:   deps.Limiter,
		matcher:   deps.Matcher,
		ingestor:  deps.Ingestor,
		pdfDir:    deps.PDFDir,
	}
}

// Ask answers a question for a client. Either question or presetID must be
// set; a preset overrides the free-form question. The client is checked
// against the rate limit before any other work, and cached answers are
// returned without touching the embedding or chat models.
func (p *Pipeline) Ask(ctx context.Context, question, presetID, clientID string) (models.AskResult, error) {
	if !p.limiter.Allow(clientID) {
		return models.AskResult{}, fmt.Errorf("client %q: %w", clientID, models.ErrRateLimited)
	}

	key := cache.Key(question, presetID)
	if result, ok := p.cache.Get(key); ok {
		result.CacheHit = true
		log.Info().Str("key", key).Msg("Answer served from cache")
		return result, nil
	}

	retrievalQuery, err := planner.Plan(question, presetID)
	if err != nil {
		return models.AskResult{}, err
	}

	retrieved, err := p.retriever.Retrieve(ctx, retrievalQuery)
	if err != nil {
		return models.AskResult{}, err
	}

	generated, err := p.generator.Generate(ctx, retrievalQuery, retrieved)
	if err != nil {
		return models.AskResult{}, err
	}

	p.matcher.Enrich(generated.Answer.Materials)

	result := models.AskResult{
		Answer:       generated.Answer,
		RawModelText: generated.RawText,
		Sources:      buildSources(retrieved),
		CostEstimate: generated.Cost,
	}
	p.cache.Put(key, result)
	return result, nil
}

// UploadDocument stores an uploaded file under the corpus directory and
// indexes it immediately, reporting the chunks created.
func (p *Pipeline) UploadDocument(ctx context.Context, data []byte, filename string) (*models.IngestionReport, error) {
	if p.pdfDir != "" {
		if err := os.MkdirAll(p.pdfDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create corpus dir: %w", err)
		}
	}
	path := filepath.Join(p.pdfDir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	report := p.ingestor.IngestPaths(ctx, []string{path}, true)
	if len(report.Errors) > 0 {
		return report, fmt.Errorf("failed to index upload: %s", strings.Join(report.Errors, "; "))
	}
	return report, nil
}

// ReindexAll re-ingests the corpus directory. With force set, documents are
// re-chunked and re-embedded even when their content hash is unchanged.
func (p *Pipeline) ReindexAll(ctx context.Context, force bool) (*models.IngestionReport, error) {
	return p.ingestor.IngestDir(ctx, p.pdfDir, force)
}

// ClearCache drops all cached answers and returns how many were removed.
func (p *Pipeline) ClearCache() int {
	return p.cache.Clear()
}

// Stats reports operational counters.
func (p *Pipeline) Stats(ctx context.Context) (models.Stats, error) {
	count, err := p.store.Count(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to count index entries: %w", err)
	}
	return models.Stats{
		CacheEntries:    p.cache.Len(),
		IndexEntryCount: count,
		ProductMappings: p.matcher.Len(),
		RateWindows:     p.limiter.Len(),
	}, nil
}

// Presets lists the available preset questions.
func (p *Pipeline) Presets() []planner.Preset {
	return planner.Presets()
}

func buildSources(retrieved models.RetrievedContext) []models.SourceRef {
	refs := make([]models.SourceRef, 0, len(retrieved.Chunks))
	for _, sc := range retrieved.Chunks {
		refs = append(refs, models.SourceRef{
			Book:       sc.Chunk.Metadata.BookTitle,
			Page:       sc.Chunk.Metadata.Page,
			Snippet:    truncateSnippet(sc.Chunk.Content),
			Similarity: sc.Similarity,
		})
	}
	return refs
}

func truncateSnippet(text string) string {
	if len(text) <= snippetMaxChars {
		return text
	}
	return text[:snippetMaxChars] + "..."
}
