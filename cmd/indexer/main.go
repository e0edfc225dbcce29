package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"github.com/nikk2511/Puja-ai-shopify/internal/chunker"
	"github.com/nikk2511/Puja-ai-shopify/internal/config"
	"github.com/nikk2511/Puja-ai-shopify/internal/database"
	"github.com/nikk2511/Puja-ai-shopify/internal/embedding"
	"github.com/nikk2511/Puja-ai-shopify/internal/ingest"
	"github.com/nikk2511/Puja-ai-shopify/internal/models"
	"github.com/nikk2511/Puja-ai-shopify/internal/products"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	dir := flag.String("dir", "", "Corpus directory (overrides config)")
	file := flag.String("file", "", "Index a single file instead of a directory")
	force := flag.Bool("force", false, "Re-index documents even when unchanged")
	seedProducts := flag.Bool("seed-products", false, "Load the product map file into the database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *dir == "" {
		*dir = cfg.Ingest.PDFDir
	}

	ctx := context.Background()

	db, err := database.NewDB(ctx, cfg.Database.ConnString)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	embedClient, err := embedding.FromConfig(cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create embedding client")
	}
	gateway := embedding.NewGateway(embedClient, embedding.GatewayOptions{
		BatchSize:         cfg.Embedding.BatchSize,
		MaxRetries:        cfg.Embedding.MaxRetries,
		Timeout:           cfg.EmbeddingTimeout(),
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})

	// The vector column width depends on the embedding model, so probe it
	// before creating tables.
	probe, err := gateway.EmbedOne(ctx, "dimension probe")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to probe embedding dimension")
	}
	if err := db.Initialize(ctx, len(probe)); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	if *seedProducts {
		mapping, err := products.LoadSeedFile(cfg.Ingest.ProductMapFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load product map")
		}
		if err := db.UpsertProducts(ctx, mapping); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed product map")
		}
		log.Info().Int("mappings", len(mapping)).Msg("Product map seeded")
	}

	ch := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	pipe := ingest.NewPipeline(db, ch, gateway)

	start := time.Now()
	var report *models.IngestionReport
	if *file != "" {
		report = pipe.IngestPaths(ctx, []string{*file}, *force)
	} else {
		report, err = pipe.IngestDir(ctx, *dir, *force)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to ingest corpus directory")
		}
	}

	fmt.Printf("Processed: %d  Skipped: %d  Chunks: %d  Errors: %d  (%.1fs)\n",
		report.DocumentsProcessed, report.DocumentsSkipped, report.ChunksCreated,
		len(report.Errors), time.Since(start).Seconds())
	for _, e := range report.Errors {
		fmt.Println("  error: " + e)
	}
}
