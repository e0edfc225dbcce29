package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// DB is the PostgreSQL + pgvector implementation of Store.
type DB struct {
	Pool *pgxpool.Pool
}

var _ Store = (*DB)(nil)

// NewDB creates a new database connection pool.
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Initialize sets up the tables and indices. The embedding dimension is
// fixed at schema creation and must match the embedding model.
func (db *DB) Initialize(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", dimension)
	}

	_, err := db.Pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`)
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	_, err = db.Pool.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS index_entries (
            id TEXT PRIMARY KEY,
            content TEXT NOT NULL,
            book_title TEXT NOT NULL,
            page INTEGER NOT NULL,
            chunk_index INTEGER NOT NULL,
            source_file TEXT NOT NULL,
            extraction_method TEXT,
            embedding vector(%d) NOT NULL
        )
    `, dimension))
	if err != nil {
		return fmt.Errorf("failed to create index_entries table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS index_entries_embedding_idx ON index_entries
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS index_entries_source_idx ON index_entries (source_file)
	`)
	if err != nil {
		return fmt.Errorf("failed to create source index: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS source_documents (
            source_file TEXT PRIMARY KEY,
            content_hash TEXT NOT NULL,
            ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create source_documents table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS product_map (
            material_name TEXT PRIMARY KEY,
            product_url TEXT NOT NULL
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create product_map table: %w", err)
	}

	return nil
}

// Upsert inserts or replaces index entries by chunk id.
func (db *DB) Upsert(ctx context.Context, entries []models.IndexEntry) error {
	for _, entry := range entries {
		_, err := db.Pool.Exec(ctx, `
            INSERT INTO index_entries (
                id, content, book_title, page, chunk_index,
                source_file, extraction_method, embedding
            )
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector)
            ON CONFLICT (id) DO UPDATE SET
                content = EXCLUDED.content,
                book_title = EXCLUDED.book_title,
                page = EXCLUDED.page,
                chunk_index = EXCLUDED.chunk_index,
                source_file = EXCLUDED.source_file,
                extraction_method = EXCLUDED.extraction_method,
                embedding = EXCLUDED.embedding
        `,
			entry.Chunk.ID,
			entry.Chunk.Content,
			entry.Chunk.Metadata.BookTitle,
			entry.Chunk.Metadata.Page,
			entry.Chunk.Metadata.ChunkIndex,
			entry.Chunk.Metadata.SourceFile,
			entry.Chunk.Metadata.ExtractionMethod,
			vectorLiteral(entry.Embedding))
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", entry.Chunk.ID, err)
		}
	}
	return nil
}

// Query returns the k nearest entries by cosine distance.
func (db *DB) Query(ctx context.Context, vector []float64, k int) ([]SearchResult, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, content, book_title, page, chunk_index, source_file,
		       extraction_method, embedding <=> $1::vector AS distance
		FROM index_entries
		ORDER BY embedding <=> $1::vector, source_file, chunk_index
		LIMIT $2
	`, vectorLiteral(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar chunks: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			chunk            models.Chunk
			extractionMethod *string
			distance         float64
		)
		if err := rows.Scan(
			&chunk.ID,
			&chunk.Content,
			&chunk.Metadata.BookTitle,
			&chunk.Metadata.Page,
			&chunk.Metadata.ChunkIndex,
			&chunk.Metadata.SourceFile,
			&extractionMethod,
			&distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if extractionMethod != nil {
			chunk.Metadata.ExtractionMethod = *extractionMethod
		}
		results = append(results, SearchResult{Chunk: chunk, Distance: distance})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}

// DeleteSource removes all entries for one source document and its ledger
// record.
func (db *DB) DeleteSource(ctx context.Context, sourceFile string) error {
	if _, err := db.Pool.Exec(ctx,
		`DELETE FROM index_entries WHERE source_file = $1`, sourceFile); err != nil {
		return fmt.Errorf("failed to delete entries for %s: %w", sourceFile, err)
	}
	if _, err := db.Pool.Exec(ctx,
		`DELETE FROM source_documents WHERE source_file = $1`, sourceFile); err != nil {
		return fmt.Errorf("failed to delete ledger record for %s: %w", sourceFile, err)
	}
	return nil
}

// Count returns the number of stored index entries.
func (db *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM index_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count index entries: %w", err)
	}
	return count, nil
}

// SourceHash returns the recorded content hash for a source document.
func (db *DB) SourceHash(ctx context.Context, sourceFile string) (string, error) {
	var hash string
	err := db.Pool.QueryRow(ctx,
		`SELECT content_hash FROM source_documents WHERE source_file = $1`,
		sourceFile).Scan(&hash)
	if err != nil {
		// No row means never ingested.
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up source hash: %w", err)
	}
	return hash, nil
}

// RecordSourceHash records the content hash of an ingested document.
func (db *DB) RecordSourceHash(ctx context.Context, sourceFile, hash string) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO source_documents (source_file, content_hash, ingested_at)
        VALUES ($1, $2, now())
        ON CONFLICT (source_file) DO UPDATE SET
            content_hash = EXCLUDED.content_hash,
            ingested_at = now()
    `, sourceFile, hash)
	if err != nil {
		return fmt.Errorf("failed to record source hash: %w", err)
	}
	return nil
}

// Products returns the material-name-to-storefront-URL mapping.
func (db *DB) Products(ctx context.Context) (map[string]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT material_name, product_url FROM product_map`)
	if err != nil {
		return nil, fmt.Errorf("failed to query product map: %w", err)
	}
	defer rows.Close()

	mapping := make(map[string]string)
	for rows.Next() {
		var name, url string
		if err := rows.Scan(&name, &url); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		mapping[name] = url
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return mapping, nil
}

// UpsertProducts inserts or replaces product mappings by material name.
func (db *DB) UpsertProducts(ctx context.Context, mapping map[string]string) error {
	for name, url := range mapping {
		_, err := db.Pool.Exec(ctx, `
            INSERT INTO product_map (material_name, product_url)
            VALUES ($1, $2)
            ON CONFLICT (material_name) DO UPDATE SET product_url = EXCLUDED.product_url
        `, name, url)
		if err != nil {
			return fmt.Errorf("failed to upsert product %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// vectorLiteral renders a vector in pgvector's input format, e.g.
// "[0.12,0.34]".
func vectorLiteral(vector []float64) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	sb.WriteByte(']')
	return sb.String()
}
