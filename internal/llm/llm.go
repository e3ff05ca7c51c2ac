package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// LLMClient generates a JSON document from an instruction prompt and an
// input value. Implementations return the model text as-is; callers strip
// code fences and validate.
type LLMClient interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

var ErrEmptyResponse = errors.New("llm: empty response from model")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// userContent renders the input value the way every provider sends it.
func userContent(input any) string {
	if input == nil {
		return ""
	}
	if s, ok := input.(string); ok {
		return s
	}
	in, _ := json.MarshalIndent(input, "", "  ")
	return "[INPUT JSON]\n" + string(in)
}
