package embedding

import (
	"fmt"
	"os"

	"github.com/nikk2511/Puja-ai-shopify/internal/config"
)

// FromConfig builds an embedding client for the configured provider.
func FromConfig(cfg config.EmbeddingConfig) (Client, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaClient(cfg.Host, cfg.Model)
	case "openai":
		apiKey := os.Getenv(cfg.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("embedding API key env %s is not set", cfg.APIKeyEnv)
		}
		return NewOpenAIClient(cfg.BaseURL, apiKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
