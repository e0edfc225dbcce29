package models

import "time"

// SourceDocument represents one ingested book or pamphlet. Documents are
// immutable once ingested; re-ingesting a changed file supersedes the old
// entries rather than mutating them.
type SourceDocument struct {
	Filename         string     `json:"filename"`
	BookTitle        string     `json:"book_title"`
	ContentHash      string     `json:"content_hash"`
	ExtractionMethod string     `json:"extraction_method"`
	Pages            []PageText `json:"pages"`
}

// PageText is the cleaned text of a single page of a source document.
type PageText struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Chunk represents a chunk of text from a source document.
type Chunk struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Metadata contains provenance information about a chunk.
type Metadata struct {
	BookTitle        string `json:"book_title"`
	Page             int    `json:"page"`
	ChunkIndex       int    `json:"chunk_index"`
	SourceFile       string `json:"source_file"`
	ExtractionMethod string `json:"extraction_method,omitempty"`
}

// IndexEntry is the stored tuple of a chunk and its embedding vector.
type IndexEntry struct {
	Chunk     Chunk     `json:"chunk"`
	Embedding []float64 `json:"embedding"`
}

// ScoredChunk is a retrieved chunk with its similarity to the query
// (1 - cosine distance, higher is more similar).
type ScoredChunk struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// RetrievedContext is the ordered retrieval result for one query,
// descending by similarity and capped at the configured top-K.
type RetrievedContext struct {
	Chunks []ScoredChunk `json:"chunks"`
}

// Empty reports whether nothing cleared the similarity threshold.
func (rc RetrievedContext) Empty() bool {
	return len(rc.Chunks) == 0
}

// Step is one numbered step of a ritual procedure.
type Step struct {
	StepNo      int    `json:"step_no" validate:"required,min=1"`
	Title       string `json:"title"`
	Instruction string `json:"instruction" validate:"required"`
}

// Material is one required item, optionally linked to a storefront product.
type Material struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description,omitempty"`
	Quantity     string `json:"quantity,omitempty"`
	ProductMatch string `json:"product_match,omitempty"`
}

// SourceCitation cites a book excerpt that backs part of an answer.
type SourceCitation struct {
	Book    string `json:"book" validate:"required"`
	Page    int    `json:"page"`
	Snippet string `json:"snippet,omitempty"`
}

// StructuredAnswer is the validated JSON answer produced by the language
// model. Every populated list must be consistent with the retrieved context;
// citations outside the retrieved set are removed during validation.
type StructuredAnswer struct {
	Summary   string           `json:"summary" validate:"required"`
	Steps     []Step           `json:"steps" validate:"dive"`
	Materials []Material       `json:"materials" validate:"dive"`
	Timings   []string         `json:"timings"`
	Mantras   []string         `json:"mantras"`
	Sources   []SourceCitation `json:"sources" validate:"dive"`
	Notes     string           `json:"notes,omitempty"`
}

// CostEstimate approximates the provider cost of one generation.
type CostEstimate struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	InputCost        float64 `json:"input_cost"`
	OutputCost       float64 `json:"output_cost"`
	TotalCost        float64 `json:"total_cost"`
}

// SourceRef is the caller-facing view of one retrieved source.
type SourceRef struct {
	Book       string  `json:"book"`
	Page       int     `json:"page"`
	Snippet    string  `json:"snippet"`
	Similarity float64 `json:"similarity"`
}

// AskResult is the successful outcome of one question through the pipeline.
type AskResult struct {
	Answer       *StructuredAnswer `json:"response"`
	RawModelText string            `json:"raw_llm_text,omitempty"`
	Sources      []SourceRef       `json:"sources"`
	CostEstimate *CostEstimate     `json:"cost_estimate,omitempty"`
	CacheHit     bool              `json:"cache_hit"`
}

// CacheEntry is a memoized answer keyed by normalized question + preset.
type CacheEntry struct {
	Result    AskResult `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// IngestionReport aggregates the outcome of an ingestion run. Per-document
// failures are collected in Errors and never abort the run.
type IngestionReport struct {
	DocumentsProcessed int      `json:"documents_processed"`
	DocumentsSkipped   int      `json:"documents_skipped"`
	ChunksCreated      int      `json:"chunks_created"`
	Errors             []string `json:"errors"`
}

// Stats describes the observable state of the pipeline for the admin surface.
type Stats struct {
	CacheEntries    int `json:"cache_entries"`
	IndexEntryCount int `json:"index_entry_count"`
	ProductMappings int `json:"product_mappings"`
	RateWindows     int `json:"rate_windows"`
}
