package models

import (
	"errors"
	"fmt"
)

// Typed failures surfaced by the answer pipeline. The boundary distinguishes
// "nothing relevant was found" from "the system is unavailable" using these.
var (
	// ErrUnknownPreset indicates the request named a preset id that is not
	// in the preset table.
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrRateLimited indicates the client exceeded the admission window.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrEmbeddingUnavailable indicates the embedding provider kept failing
	// after all retries.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUpstreamTimeout indicates an external capability call did not
	// complete within its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrNoRelevantContent indicates retrieval found nothing above the
	// similarity threshold. This is not a system fault.
	ErrNoRelevantContent = errors.New("no relevant content in source books")

	// ErrMalformedModelOutput indicates the model output could not be parsed
	// as the answer schema, even after a corrective retry.
	ErrMalformedModelOutput = errors.New("malformed model output")
)

// MalformedOutputError wraps ErrMalformedModelOutput and carries the raw
// model text for diagnostics.
type MalformedOutputError struct {
	RawText string
	Cause   error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedModelOutput, e.Cause)
}

func (e *MalformedOutputError) Unwrap() error { return ErrMalformedModelOutput }
