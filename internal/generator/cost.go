package generator

import (
	"strings"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// modelPricing is USD per 1K tokens.
type modelPricing struct {
	input  float64
	output float64
}

var pricing = map[string]modelPricing{
	"gpt-4o-mini":   {input: 0.00015, output: 0.0006},
	"gpt-4o":        {input: 0.03, output: 0.06},
	"gpt-3.5-turbo": {input: 0.001, output: 0.002},
}

// estimateTokens approximates a token count when the provider does not
// report one. English prose averages roughly 3 words per 4 tokens.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	return words * 4 / 3
}

// estimateCost prices a completion. Unknown models get a zero-cost estimate
// with the token counts still filled in.
func estimateCost(model, prompt, completion string, promptTokens, completionTokens int) *models.CostEstimate {
	if promptTokens == 0 {
		promptTokens = estimateTokens(prompt)
	}
	if completionTokens == 0 {
		completionTokens = estimateTokens(completion)
	}

	est := &models.CostEstimate{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}
	if p, ok := pricing[model]; ok {
		est.InputCost = float64(promptTokens) / 1000 * p.input
		est.OutputCost = float64(completionTokens) / 1000 * p.output
		est.TotalCost = est.InputCost + est.OutputCost
	}
	return est
}
