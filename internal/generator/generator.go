// Package generator turns a question plus retrieved context into a validated
// structured answer via the configured chat model.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"

	"github.com/nikk2511/Puja-ai-shopify/internal/llm"
	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// Generator produces structured answers grounded in retrieved chunks.
type Generator struct {
	client      llm.Client
	validate    *validator.Validate
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// Options configures generation. Zero MaxTokens falls back to 1500 and zero
// Timeout to 60 seconds.
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Result carries the parsed answer together with the raw model text and the
// cost of producing it.
type Result struct {
	Answer  *models.StructuredAnswer
	RawText string
	Cost    *models.CostEstimate
}

// New creates a generator.
func New(client llm.Client, opts Options) *Generator {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1500
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Generator{
		client:      client,
		validate:    validator.New(),
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		timeout:     opts.Timeout,
	}
}

// Generate answers the question from the retrieved context. When the context
// is empty it returns ErrNoRelevantContent without calling the model. When
// the model output cannot be parsed after one corrective retry, the error
// wraps ErrMalformedModelOutput and carries the raw text.
func (g *Generator) Generate(ctx context.Context, question string, retrieved models.RetrievedContext) (*Result, error) {
	if retrieved.Empty() {
		return nil, models.ErrNoRelevantContent
	}

	userPrompt := buildUserPrompt(question, retrieved)
	opts := llm.Options{Temperature: g.temperature, MaxTokens: g.maxTokens}

	completion, err := g.complete(ctx, userPrompt, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	cost := estimateCost(g.client.ModelName(), systemPrompt+userPrompt, completion.Text,
		completion.PromptTokens, completion.CompletionTokens)

	answer, parseErr := g.parse(completion.Text)
	if parseErr != nil {
		log.Warn().Err(parseErr).Msg("Model output unparseable, retrying once")

		retry, err := g.complete(ctx, userPrompt+correctionPrompt, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate answer on retry: %w", err)
		}
		retryCost := estimateCost(g.client.ModelName(), systemPrompt+userPrompt+correctionPrompt,
			retry.Text, retry.PromptTokens, retry.CompletionTokens)
		cost = addCosts(cost, retryCost)

		answer, parseErr = g.parse(retry.Text)
		if parseErr != nil {
			return nil, &models.MalformedOutputError{RawText: retry.Text, Cause: parseErr}
		}
		completion = retry
	}

	stripUngroundedSources(answer, retrieved)

	return &Result{Answer: answer, RawText: completion.Text, Cost: cost}, nil
}

// complete runs one model call under the configured timeout. A call that
// overruns it surfaces ErrUpstreamTimeout rather than hanging the pipeline.
func (g *Generator) complete(ctx context.Context, user string, opts llm.Options) (*llm.Completion, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	completion, err := g.client.Complete(callCtx, systemPrompt, user, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("model call exceeded %s: %w", g.timeout, models.ErrUpstreamTimeout)
		}
		return nil, err
	}
	return completion, nil
}

func (g *Generator) parse(raw string) (*models.StructuredAnswer, error) {
	text, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var answer models.StructuredAnswer
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return nil, fmt.Errorf("failed to decode answer JSON: %w", err)
	}
	if err := g.validate.Struct(&answer); err != nil {
		return nil, fmt.Errorf("answer failed validation: %w", err)
	}
	return &answer, nil
}

// stripUngroundedSources drops citations naming a book/page pair that was
// not in the retrieved context.
func stripUngroundedSources(answer *models.StructuredAnswer, retrieved models.RetrievedContext) {
	known := make(map[string]bool, len(retrieved.Chunks))
	for _, sc := range retrieved.Chunks {
		known[fmt.Sprintf("%s|%d", sc.Chunk.Metadata.BookTitle, sc.Chunk.Metadata.Page)] = true
	}

	kept := answer.Sources[:0]
	for _, src := range answer.Sources {
		if known[fmt.Sprintf("%s|%d", src.Book, src.Page)] {
			kept = append(kept, src)
		}
	}
	answer.Sources = kept
}

func addCosts(a, b *models.CostEstimate) *models.CostEstimate {
	return &models.CostEstimate{
		PromptTokens:     a.PromptTokens + b.PromptTokens,
		CompletionTokens: a.CompletionTokens + b.CompletionTokens,
		InputCost:        a.InputCost + b.InputCost,
		OutputCost:       a.OutputCost + b.OutputCost,
		TotalCost:        a.TotalCost + b.TotalCost,
	}
}
