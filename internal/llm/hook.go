package llm

import (
	"context"
	"encoding/json"
)

// Generation phases, used to tag calls for hooks, logs and the fake client.
const (
	PhaseMockData = "mock-data"
	PhaseSchema   = "widget-schema"
	PhaseRefine   = "widget-refine"
)

type PromptHook interface {
	Before(ctx context.Context, phase, prompt string, input any)
	After(ctx context.Context, phase string, raw json.RawMessage, err error)
}

type ctxKeyPhase struct{}

// WithHook decorates base so every call is reported to hook.
func WithHook(base LLMClient, hook PromptHook) LLMClient {
	if hook == nil {
		return base
	}
	return &hooked{base: base, hook: hook}
}

type hooked struct {
	base LLMClient
	hook PromptHook
}

func (h *hooked) Name() string { return h.base.Name() }
func (h *hooked) Close() error { return h.base.Close() }

func (h *hooked) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	h.hook.Before(ctx, phase, prompt, input)
	raw, err := h.base.GenerateJSON(ctx, prompt, input)
	h.hook.After(ctx, phase, raw, err)
	return raw, err
}

func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
