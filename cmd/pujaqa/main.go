package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/nikk2511/Puja-ai-shopify/internal/cache"
	"github.com/nikk2511/Puja-ai-shopify/internal/chunker"
	"github.com/nikk2511/Puja-ai-shopify/internal/config"
	"github.com/nikk2511/Puja-ai-shopify/internal/database"
	"github.com/nikk2511/Puja-ai-shopify/internal/embedding"
	"github.com/nikk2511/Puja-ai-shopify/internal/generator"
	"github.com/nikk2511/Puja-ai-shopify/internal/ingest"
	"github.com/nikk2511/Puja-ai-shopify/internal/llm"
	"github.com/nikk2511/Puja-ai-shopify/internal/models"
	"github.com/nikk2511/Puja-ai-shopify/internal/pipeline"
	"github.com/nikk2511/Puja-ai-shopify/internal/planner"
	"github.com/nikk2511/Puja-ai-shopify/internal/products"
	"github.com/nikk2511/Puja-ai-shopify/internal/ratelimit"
	"github.com/nikk2511/Puja-ai-shopify/internal/retriever"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	queryFlag := flag.String("q", "", "Question to answer (non-interactive mode)")
	presetFlag := flag.String("preset", "", "Preset puja id instead of a free-form question")
	interactive := flag.Bool("i", false, "Run in interactive mode")
	listPresets := flag.Bool("presets", false, "List available presets and exit")
	showStats := flag.Bool("stats", false, "Print index and cache stats and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if *listPresets {
		fmt.Println("Available presets:")
		for _, p := range planner.Presets() {
			fmt.Printf("  %-22s %s\n", p.ID, p.Name)
		}
		return
	}

	ctx := context.Background()

	db, err := database.NewDB(ctx, cfg.Database.ConnString)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	qa := buildPipeline(ctx, cfg, db)

	if *showStats {
		stats, err := qa.Stats(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read stats")
		}
		fmt.Printf("Index entries:    %d\n", stats.IndexEntryCount)
		fmt.Printf("Cached answers:   %d\n", stats.CacheEntries)
		fmt.Printf("Product mappings: %d\n", stats.ProductMappings)
		fmt.Printf("Rate windows:     %d\n", stats.RateWindows)
		return
	}

	if *interactive {
		runInteractiveMode(ctx, qa)
		return
	}

	if *queryFlag == "" && *presetFlag == "" {
		log.Fatal().Msg("A question is required. Use -q 'your question', -preset <id> or -i")
	}

	answer(ctx, qa, *queryFlag, *presetFlag)
}

func buildPipeline(ctx context.Context, cfg *config.Config, db *database.DB) *pipeline.Pipeline {
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

	llmClient, err := llm.FromConfig(cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create LLM client")
	}

	mapping, err := products.Load(ctx, db, cfg.Ingest.ProductMapFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load product map")
	}

	ch := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)

	return pipeline.New(pipeline.Deps{
		Store: db,
		Retriever: retriever.New(db, gateway, retriever.Options{
			FetchK:        cfg.Retriever.FetchK,
			TopK:          cfg.Retriever.TopK,
			MinSimilarity: cfg.Retriever.MinSimilarity,
		}),
		Generator: generator.New(llmClient, generator.Options{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLMTimeout(),
		}),
		Cache:    cache.New(cfg.CacheTTL()),
		Limiter:  ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateWindow()),
		Matcher:  products.NewMatcher(mapping),
		Ingestor: ingest.NewPipeline(db, ch, gateway),
		PDFDir:   cfg.Ingest.PDFDir,
	})
}

func runInteractiveMode(ctx context.Context, qa *pipeline.Pipeline) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Puja Assistant - Ask about puja procedures (type 'exit' to quit, '/presets' to list presets)")

	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		lower := strings.ToLower(input)
		if lower == "exit" || lower == "quit" {
			break
		}

		if lower == "/presets" {
			for _, p := range planner.Presets() {
				fmt.Printf("  %-22s %s\n", p.ID, p.Name)
			}
			continue
		}
		if lower == "/clear-cache" {
			fmt.Printf("Removed %d cached answers\n", qa.ClearCache())
			continue
		}

		if preset, ok := strings.CutPrefix(input, "/preset "); ok {
			answer(ctx, qa, "", strings.TrimSpace(preset))
			continue
		}

		answer(ctx, qa, input, "")
	}
}

func answer(ctx context.Context, qa *pipeline.Pipeline, question, presetID string) {
	start := time.Now()
	result, err := qa.Ask(ctx, question, presetID, "cli")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println(formatAnswer(result))
	log.Info().Dur("elapsed", time.Since(start)).Bool("cache_hit", result.CacheHit).
		Msg("Question answered")
}

func formatAnswer(result models.AskResult) string {
	var sb strings.Builder
	ans := result.Answer

	sb.WriteString(ans.Summary)
	sb.WriteString("\n")

	if len(ans.Steps) > 0 {
		sb.WriteString("\nProcedure:\n")
		for _, step := range ans.Steps {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", step.StepNo, step.Title, step.Instruction))
		}
	}

	if len(ans.Materials) > 0 {
		sb.WriteString("\nMaterials:\n")
		for _, m := range ans.Materials {
			line := "  - " + m.Name
			if m.Quantity != "" {
				line += " (" + m.Quantity + ")"
			}
			if m.ProductMatch != "" {
				line += " [shop: " + m.ProductMatch + "]"
			}
			sb.WriteString(line + "\n")
		}
	}

	if len(ans.Timings) > 0 {
		sb.WriteString("\nTimings:\n")
		for _, t := range ans.Timings {
			sb.WriteString("  - " + t + "\n")
		}
	}

	if len(ans.Mantras) > 0 {
		sb.WriteString("\nMantras:\n")
		for _, m := range ans.Mantras {
			sb.WriteString("  - " + m + "\n")
		}
	}

	if len(result.Sources) > 0 {
		sb.WriteString("\nSources:\n")
		for i, src := range result.Sources {
			sb.WriteString(fmt.Sprintf("  %d. [%s, Page: %d] (similarity %.2f)\n",
				i+1, src.Book, src.Page, src.Similarity))
		}
	}

	if ans.Notes != "" {
		sb.WriteString("\nNotes: " + ans.Notes + "\n")
	}

	if result.CostEstimate != nil && result.CostEstimate.TotalCost > 0 {
		sb.WriteString(fmt.Sprintf("\nEstimated cost: $%.5f (%d prompt + %d completion tokens)\n",
			result.CostEstimate.TotalCost, result.CostEstimate.PromptTokens,
			result.CostEstimate.CompletionTokens))
	}

	return sb.String()
}
