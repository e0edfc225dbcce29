// Package llm provides the language-model capability port used by the
// answer generator, with Ollama and OpenAI-compatible providers.
package llm

import "context"

// Options controls sampling for one completion request.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Completion is the raw result of one model invocation. Token counts come
// from the provider when it reports them, otherwise they are estimated by
// the caller.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Client is the language-model capability port.
type Client interface {
	Complete(ctx context.Context, system, user string, opts Options) (*Completion, error)
	ModelName() string
}
