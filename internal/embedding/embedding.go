// Package embedding converts text to vectors through an external embedding
// capability. Providers implement Client; the Gateway adds batching, pacing,
// retries and the all-or-nothing batch contract on top of any provider.
package embedding

import "context"

// Client is the embedding capability port. Implementations return one vector
// per input text, in input order.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	ModelName() string
}
