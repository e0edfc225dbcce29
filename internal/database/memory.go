package database

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// MemoryStore is a brute-force in-memory implementation of Store. It backs
// tests and ephemeral runs; it keeps the same cosine-distance semantics as
// the Postgres store.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []models.IndexEntry
	hashes   map[string]string
	products map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes:   make(map[string]string),
		products: make(map[string]string),
	}
}

// Upsert inserts or replaces entries by chunk id.
func (s *MemoryStore) Upsert(_ context.Context, entries []models.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range entries {
		replaced := false
		for i := range s.entries {
			if s.entries[i].Chunk.ID == entry.Chunk.ID {
				s.entries[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			s.entries = append(s.entries, entry)
		}
	}
	return nil
}

// Query returns the k nearest entries by cosine distance. Ties keep
// insertion order, which is the original document order.
func (s *MemoryStore) Query(_ context.Context, vector []float64, k int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.entries))
	for _, entry := range s.entries {
		results = append(results, SearchResult{
			Chunk:    entry.Chunk,
			Distance: cosineDistance(vector, entry.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// DeleteSource removes all entries for one source document.
func (s *MemoryStore) DeleteSource(_ context.Context, sourceFile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, entry := range s.entries {
		if entry.Chunk.Metadata.SourceFile != sourceFile {
			kept = append(kept, entry)
		}
	}
	s.entries = kept
	delete(s.hashes, sourceFile)
	return nil
}

// Count returns the number of stored entries.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// SourceHash returns the recorded content hash for a source document.
func (s *MemoryStore) SourceHash(_ context.Context, sourceFile string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hashes[sourceFile], nil
}

// RecordSourceHash records the content hash of an ingested document.
func (s *MemoryStore) RecordSourceHash(_ context.Context, sourceFile, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[sourceFile] = hash
	return nil
}

// Products returns a copy of the product mapping.
func (s *MemoryStore) Products(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mapping := make(map[string]string, len(s.products))
	for name, url := range s.products {
		mapping[name] = url
	}
	return mapping, nil
}

// UpsertProducts inserts or replaces product mappings.
func (s *MemoryStore) UpsertProducts(_ context.Context, mapping map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, url := range mapping {
		s.products[name] = url
	}
	return nil
}

// cosineDistance is 1 - cosine similarity, matching pgvector's <=> operator.
func cosineDistance(a, b []float64) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
