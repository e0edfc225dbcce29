// Package planner rewrites raw user questions into retrieval-optimized
// queries. Planning is deterministic for a given input so the response cache
// stays meaningful.
package planner

import (
	"fmt"
	"strings"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// Questions shorter than this many words get the expansion template.
const expansionWordThreshold = 8

// anchorKeywords mark a question as already detailed enough to retrieve well.
var anchorKeywords = []string{
	"step", "procedure", "how to", "materials", "timing", "mantra",
}

// Plan resolves a preset id to its canonical retrieval prompt, or expands a
// free-form question. An unknown preset id fails with ErrUnknownPreset.
func Plan(rawQuestion, presetID string) (string, error) {
	if presetID != "" {
		subject, ok := presetSubjects[presetID]
		if !ok {
			return "", fmt.Errorf("%w: %q", models.ErrUnknownPreset, presetID)
		}
		return fmt.Sprintf(presetTemplate, subject), nil
	}

	return Expand(rawQuestion), nil
}

// Expand applies the rule-based rewrite: short or vague questions are
// wrapped in the detailed template, already-specific questions pass through
// unchanged.
func Expand(rawQuestion string) string {
	question := strings.TrimSpace(rawQuestion)
	if question == "" {
		return question
	}

	if !needsExpansion(question) {
		return question
	}
	return fmt.Sprintf(presetTemplate, question)
}

func needsExpansion(question string) bool {
	if len(strings.Fields(question)) < expansionWordThreshold {
		return true
	}

	lowered := strings.ToLower(question)
	for _, keyword := range anchorKeywords {
		if strings.Contains(lowered, keyword) {
			return false
		}
	}
	return true
}
