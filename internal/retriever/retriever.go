// Package retriever runs planned queries against the vector index, applies
// the similarity threshold and truncates to the configured top-K.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/nikk2511/Puja-ai-shopify/internal/database"
	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// Embedder is the slice of the embedding gateway the retriever needs.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float64, error)
}

// Retriever fetches relevant chunks for a retrieval query.
type Retriever struct {
	store         database.Store
	embedder      Embedder
	fetchK        int
	topK          int
	minSimilarity float64
}

// Options configures retrieval. Zero values fall back to defaults.
type Options struct {
	FetchK        int
	TopK          int
	MinSimilarity float64
}

// New creates a retriever.
func New(store database.Store, embedder Embedder, opts Options) *Retriever {
	if opts.FetchK <= 0 {
		opts.FetchK = 16
	}
	if opts.TopK <= 0 {
		opts.TopK = 8
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = 0.5
	}

	return &Retriever{
		store:         store,
		embedder:      embedder,
		fetchK:        opts.FetchK,
		topK:          opts.TopK,
		minSimilarity: opts.MinSimilarity,
	}
}

// Retrieve embeds the query and returns the chunks whose similarity clears
// the threshold, descending by similarity and capped at top-K. An empty
// result is not an error; the caller decides how to answer without context.
func (r *Retriever) Retrieve(ctx context.Context, query string) (models.RetrievedContext, error) {
	vector, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		return models.RetrievedContext{}, fmt.Errorf("failed to embed query: %w", err)
	}

	// The index orders ascending by distance with a stable tie-break on
	// document order, so the slice below is already descending by
	// similarity.
	results, err := r.store.Query(ctx, vector, r.fetchK)
	if err != nil {
		return models.RetrievedContext{}, fmt.Errorf("failed to query index: %w", err)
	}

	var chunks []models.ScoredChunk
	var kept []wordSet
	for _, result := range results {
		similarity := 1 - result.Distance
		if similarity < r.minSimilarity {
			continue
		}

		// Overlapping chunks from the same page can be near copies of each
		// other; keep only the most similar of each group.
		words := newWordSet(result.Chunk.Content)
		if isNearDuplicate(words, kept) {
			continue
		}

		chunks = append(chunks, models.ScoredChunk{
			Chunk:      result.Chunk,
			Similarity: similarity,
		})
		kept = append(kept, words)
		if len(chunks) == r.topK {
			break
		}
	}

	log.Debug().Int("candidates", len(results)).Int("kept", len(chunks)).
		Msg("Retrieved context")
	return models.RetrievedContext{Chunks: chunks}, nil
}

// duplicateThreshold is the word-set Jaccard similarity above which two
// chunks count as the same content.
const duplicateThreshold = 0.9

type wordSet map[string]struct{}

func newWordSet(text string) wordSet {
	set := make(wordSet)
	for _, word := range strings.Fields(text) {
		set[word] = struct{}{}
	}
	return set
}

func isNearDuplicate(words wordSet, kept []wordSet) bool {
	for _, existing := range kept {
		if jaccard(words, existing) > duplicateThreshold {
			return true
		}
	}
	return false
}

func jaccard(a, b wordSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	overlap := 0
	for word := range a {
		if _, ok := b[word]; ok {
			overlap++
		}
	}
	union := len(a) + len(b) - overlap
	return float64(overlap) / float64(union)
}
