package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// OllamaClient generates completions using a local Ollama server.
type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates an Ollama completion client. An empty host falls
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

// Complete generates a response for the given system and user prompts.
func (c *OllamaClient) Complete(ctx context.Context, system, user string, opts Options) (*Completion, error) {
	req := api.GenerateRequest{
		Model:  c.model,
		System: system,
		Prompt: user,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}

	var builder strings.Builder
	var promptTokens, completionTokens int

	err := c.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		if _, err := builder.WriteString(resp.Response); err != nil {
			return err
		}
		if resp.Done {
			promptTokens = resp.PromptEvalCount
			completionTokens = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}

	return &Completion{
		Text:             builder.String(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}

// ModelName returns the configured model.
func (c *OllamaClient) ModelName() string { return c.model }
