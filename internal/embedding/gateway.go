package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// Gateway wraps an embedding Client with batching, request pacing, a
// per-attempt timeout and bounded exponential-backoff retries. A batch
// either succeeds whole or fails whole, so chunk-to-vector alignment is
// never ambiguous.
type Gateway struct {
	client     Client
	batchSize  int
	maxRetries int
	timeout    time.Duration
	backoff    time.Duration
	limiter    *rate.Limiter
}

// GatewayOptions configures a Gateway. Zero values fall back to defaults.
type GatewayOptions struct {
	BatchSize         int
	MaxRetries        int
	Timeout           time.Duration
	InitialBackoff    time.Duration
	RequestsPerSecond float64
}

// NewGateway creates an embedding gateway around a provider client.
func NewGateway(client Client, opts GatewayOptions) *Gateway {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}

	return &Gateway{
		client:     client,
		batchSize:  opts.BatchSize,
		maxRetries: opts.MaxRetries,
		timeout:    opts.Timeout,
		backoff:    opts.InitialBackoff,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

// Embed converts texts to vectors, preserving input order and length parity.
// The input is split into provider-sized batches; any batch that keeps
// failing after retries fails the whole call.
func (g *Gateway) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := start + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := g.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// EmbedOne embeds a single text.
func (g *Gateway) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	vectors, err := g.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (g *Gateway) embedBatch(ctx context.Context, batch []string) ([][]float64, error) {
	var lastErr error
	backoff := g.backoff

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		if attempt > 1 {
			log.Warn().Int("attempt", attempt).Err(lastErr).
				Msg("Retrying embedding batch")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		vectors, err := g.client.Embed(attemptCtx, batch)
		cancel()

		if err == nil {
			if len(vectors) != len(batch) {
				return nil, fmt.Errorf("provider returned %d vectors for %d texts: %w",
					len(vectors), len(batch), models.ErrEmbeddingUnavailable)
			}
			return vectors, nil
		}
		lastErr = err
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return nil, fmt.Errorf("embedding batch timed out after %d attempts: %w",
			g.maxRetries, models.ErrUpstreamTimeout)
	}
	return nil, fmt.Errorf("embedding batch failed after %d attempts: %v: %w",
		g.maxRetries, lastErr, models.ErrEmbeddingUnavailable)
}
