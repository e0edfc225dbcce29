// Package database provides the persistent vector index and its supporting
// tables (ingestion ledger, product mapping). The primary implementation is
// PostgreSQL with the pgvector extension; an in-memory implementation backs
// tests and ephemeral runs.
package database

import (
	"context"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// SearchResult is one ranked hit from the vector index. Distance is cosine
// distance: lower means more similar. Similarity used elsewhere in the
// pipeline is 1 - Distance.
type SearchResult struct {
	Chunk    models.Chunk
	Distance float64
}

// Store is the vector index. Concurrent readers are always safe; an upsert
// is atomic per entry so readers never observe a partial entry.
type Store interface {
	// Upsert inserts or replaces index entries by chunk id.
	Upsert(ctx context.Context, entries []models.IndexEntry) error

	// Query returns the k nearest entries to the vector, ascending by
	// distance.
	Query(ctx context.Context, vector []float64, k int) ([]SearchResult, error)

	// DeleteSource removes all entries belonging to one source document and
	// its ledger record.
	DeleteSource(ctx context.Context, sourceFile string) error

	// Count returns the number of stored index entries.
	Count(ctx context.Context) (int, error)

	// SourceHash returns the recorded content hash for a source document,
	// or "" when the document has never been ingested.
	SourceHash(ctx context.Context, sourceFile string) (string, error)

	// RecordSourceHash records the content hash of an ingested document.
	RecordSourceHash(ctx context.Context, sourceFile, hash string) error

	// Products returns the material-name-to-storefront-URL mapping.
	Products(ctx context.Context) (map[string]string, error)

	// UpsertProducts inserts or replaces product mappings by material name.
	UpsertProducts(ctx context.Context, mapping map[string]string) error
}
