package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikk2511/Puja-ai-shopify/internal/llm"
	"github.com/nikk2511/Puja-ai-shopify/internal/models"
)

// spyLLM returns canned replies in order and records every call.
type spyLLM struct {
	replies []string
	prompts []string
	model   string
	err     error
}

func (s *spyLLM) Complete(_ context.Context, _, user string, _ llm.Options) (*llm.Completion, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.prompts = append(s.prompts, user)
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return &llm.Completion{Text: reply, PromptTokens: 100, CompletionTokens: 50}, nil
}

func (s *spyLLM) ModelName() string {
	if s.model == "" {
		return "gpt-4o-mini"
	}
	return s.model
}

func ritualContext() models.RetrievedContext {
	return models.RetrievedContext{Chunks: []models.ScoredChunk{
		{
			Chunk: models.Chunk{
				ID:      "c1",
				Content: "Begin by lighting the lamp and invoking Ganesha.",
				Metadata: models.Metadata{
					BookTitle: "Puja Vidhi", Page: 12, ChunkIndex: 0,
				},
			},
			Similarity: 0.91,
		},
		{
			Chunk: models.Chunk{
				ID:      "c2",
				Content: "Offer modak and durva grass after the invocation.",
				Metadata: models.Metadata{
					BookTitle: "Puja Vidhi", Page: 13, ChunkIndex: 1,
				},
			},
			Similarity: 0.84,
		},
	}}
}

const goodAnswer = `{
	"summary": "Light the lamp, invoke Ganesha, then offer modak.",
	"steps": [{"step_no": 1, "title": "Invocation", "instruction": "Light the lamp and invoke Ganesha."}],
	"materials": [{"name": "modak", "quantity": "21"}],
	"timings": ["morning"],
	"mantras": ["Om Gam Ganapataye Namaha"],
	"sources": [{"book": "Puja Vidhi", "page": 12, "snippet": "lighting the lamp"}],
	"notes": ""
}`

func TestGenerateEmptyContextSkipsModel(t *testing.T) {
	spy := &spyLLM{replies: []string{goodAnswer}}
	g := New(spy, Options{})

	_, err := g.Generate(context.Background(), "ganesh puja", models.RetrievedContext{})

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNoRelevantContent)
	assert.Empty(t, spy.prompts, "model must not be called without context")
}

func TestGeneratePlainJSON(t *testing.T) {
	spy := &spyLLM{replies: []string{goodAnswer}}
	g := New(spy, Options{})

	result, err := g.Generate(context.Background(), "ganesh puja", ritualContext())
	require.NoError(t, err)

	require.NotNil(t, result.Answer)
	assert.Equal(t, "Light the lamp, invoke Ganesha, then offer modak.", result.Answer.Summary)
	require.Len(t, result.Answer.Steps, 1)
	assert.Equal(t, 1, result.Answer.Steps[0].StepNo)
	assert.Len(t, spy.prompts, 1)
}

func TestGenerateFencedJSON(t *testing.T) {
	spy := &spyLLM{replies: []string{"Here is the answer:\n```json\n" + goodAnswer + "\n```\nHope this helps."}}
	g := New(spy, Options{})

	result, err := g.Generate(context.Background(), "ganesh puja", ritualContext())
	require.NoError(t, err)
	assert.Equal(t, "Light the lamp, invoke Ganesha, then offer modak.", result.Answer.Summary)
}

func TestGeneratePromptCarriesExcerptHeaders(t *testing.T) {
	spy := &spyLLM{replies: []string{goodAnswer}}
	g := New(spy, Options{})

	_, err := g.Generate(context.Background(), "ganesh puja", ritualContext())
	require.NoError(t, err)

	require.Len(t, spy.prompts, 1)
	assert.Contains(t, spy.prompts[0], "--- Book: Puja Vidhi | Page: 12 | Chunk: 0 ---")
	assert.Contains(t, spy.prompts[0], "--- Book: Puja Vidhi | Page: 13 | Chunk: 1 ---")
	assert.Contains(t, spy.prompts[0], "Question: ganesh puja")
}

func TestGenerateRetriesOnceThenSucceeds(t *testing.T) {
	spy := &spyLLM{replies: []string{"I cannot answer in JSON, sorry.", goodAnswer}}
	g := New(spy, Options{})

	result, err := g.Generate(context.Background(), "ganesh puja", ritualContext())
	require.NoError(t, err)

	require.Len(t, spy.prompts, 2)
	assert.Contains(t, spy.prompts[1], "was not valid JSON")
	assert.Equal(t, "Light the lamp, invoke Ganesha, then offer modak.", result.Answer.Summary)
	// Both attempts are billed.
	require.NotNil(t, result.Cost)
	assert.Equal(t, 200, result.Cost.PromptTokens)
	assert.Equal(t, 100, result.Cost.CompletionTokens)
}

func TestGenerateMalformedAfterRetry(t *testing.T) {
	spy := &spyLLM{replies: []string{"not json", "still not json"}}
	g := New(spy, Options{})

	_, err := g.Generate(context.Background(), "ganesh puja", ritualContext())

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMalformedModelOutput)

	var malformed *models.MalformedOutputError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "still not json", malformed.RawText)
	assert.Len(t, spy.prompts, 2)
}

func TestGenerateValidationFailureTriggersRetry(t *testing.T) {
	// Valid JSON but an empty summary fails validation.
	invalid := `{"summary": "", "steps": [], "materials": [], "timings": [], "mantras": [], "sources": [], "notes": ""}`
	spy := &spyLLM{replies: []string{invalid, goodAnswer}}
	g := New(spy, Options{})

	result, err := g.Generate(context.Background(), "ganesh puja", ritualContext())
	require.NoError(t, err)
	assert.Len(t, spy.prompts, 2)
	assert.NotEmpty(t, result.Answer.Summary)
}

func TestGenerateStripsUngroundedCitations(t *testing.T) {
	answer := `{
		"summary": "Summary.",
		"steps": [],
		"materials": [],
		"timings": [],
		"mantras": [],
		"sources": [
			{"book": "Puja Vidhi", "page": 12, "snippet": "grounded"},
			{"book": "Imaginary Purana", "page": 99, "snippet": "fabricated"},
			{"book": "Puja Vidhi", "page": 99, "snippet": "wrong page"}
		],
		"notes": ""
	}`
	spy := &spyLLM{replies: []string{answer}}
	g := New(spy, Options{})

	result, err := g.Generate(context.Background(), "ganesh puja", ritualContext())
	require.NoError(t, err)

	require.Len(t, result.Answer.Sources, 1)
	assert.Equal(t, "Puja Vidhi", result.Answer.Sources[0].Book)
	assert.Equal(t, 12, result.Answer.Sources[0].Page)
}

// stalledLLM never replies until its context is cancelled.
type stalledLLM struct{}

func (stalledLLM) Complete(ctx context.Context, _, _ string, _ llm.Options) (*llm.Completion, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledLLM) ModelName() string { return "gpt-4o-mini" }

func TestGenerateTimesOutStalledModel(t *testing.T) {
	g := New(stalledLLM{}, Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := g.Generate(context.Background(), "ganesh puja", ritualContext())

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUpstreamTimeout)
	assert.Less(t, time.Since(start), 5*time.Second, "a stalled model must not block the pipeline")
}

func TestGenerateModelErrorPropagates(t *testing.T) {
	spy := &spyLLM{err: errors.New("connection refused")}
	g := New(spy, Options{})

	_, err := g.Generate(context.Background(), "ganesh puja", ritualContext())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate answer")
}

func TestExtractJSONBraceFallback(t *testing.T) {
	text, ok := extractJSON(`The answer is {"summary": "x"} as requested.`)
	require.True(t, ok)
	assert.Equal(t, `{"summary": "x"}`, text)

	_, ok = extractJSON("no braces here")
	assert.False(t, ok)
}
