package generator

import (
	"fmt"
	"strings"

	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// systemPrompt pins the model to the retrieved excerpts and to a strict JSON
// shape so the answer can be validated and rendered without guesswork.
const systemPrompt = `You are a knowledgeable assistant for Hindu puja (ritual worship) procedures.
Answer ONLY from the provided source excerpts. If the excerpts do not contain
the information needed, write "Not available in source books." for that field.
Never invent steps, materials, timings or mantras.

Respond with a single JSON object and nothing else, using exactly this shape:
{
  "summary": "one or two sentence overview of the procedure",
  "steps": [{"step_no": 1, "title": "short title", "instruction": "what to do"}],
  "materials": [{"name": "item", "description": "what it is for", "quantity": "amount if stated"}],
  "timings": ["auspicious days or times, if stated"],
  "mantras": ["mantras or chants, if present in the excerpts"],
  "sources": [{"book": "book title", "page": 12, "snippet": "short supporting quote"}],
  "notes": "caveats or regional variations, or empty string"
}

Every source you cite must name a book and page that appear in the excerpts.`

// correctionPrompt is appended on the single retry after unparseable output.
const correctionPrompt = `

Your previous reply was not valid JSON. Reply again with ONLY the JSON object
described above. No prose, no markdown fences.`

func buildUserPrompt(question string, ctx models.RetrievedContext) string {
	var b strings.Builder
	b.WriteString("Source excerpts:\n\n")
	for _, sc := range ctx.Chunks {
		fmt.Fprintf(&b, "--- Book: %s | Page: %d | Chunk: %d ---\n%s\n\n",
			sc.Chunk.Metadata.BookTitle, sc.Chunk.Metadata.Page,
			sc.Chunk.Metadata.ChunkIndex, sc.Chunk.Content)
	}
	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String()
}

// extractJSON pulls the JSON object out of a model reply that may wrap it in
// markdown fences or surrounding prose.
func extractJSON(raw string) (string, bool) {
	text := strings.TrimSpace(raw)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), true
		}
		text = strings.TrimSpace(rest)
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), true
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
