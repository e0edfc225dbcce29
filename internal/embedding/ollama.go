package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaClient generates embeddings using a local Ollama server.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates an Ollama embedding client. An empty host falls
// back to the OLLAMA_HOST environment variable.
func NewOllamaClient(host, model string) (*OllamaClient, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = parsed
	}

	return &OllamaClient{
		client: api.NewClient(hostURL, http.DefaultClient),
		model:  model,
	}, nil
}

// Embed generates one embedding per text. Ollama's embedding endpoint takes
// a single prompt, so texts are sent sequentially within the batch.
func (c *OllamaClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, 0, len(texts))
	for _, text := range texts {
		req := api.EmbeddingRequest{
			Model:  c.model,
			Prompt: text,
		}

		resp, err := c.client.Embeddings(ctx, &req)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding: %w", err)
		}
		vectors = append(vectors, resp.Embedding)
	}
	return vectors, nil
}

// ModelName returns the configured embedding model.
func (c *OllamaClient) ModelName() string { return c.model }
