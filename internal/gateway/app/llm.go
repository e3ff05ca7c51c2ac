package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"widgetgen/internal/gateway/config"
	"widgetgen/internal/llm"
)

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.LLMClient, error) {
	var base llm.LLMClient
	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: GEMINI_API_KEY is required for provider gemini")
		}
		client, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
		base = client
	case "compat":
		if cfg.BaseURL == "" || cfg.Model == "" {
			return nil, fmt.Errorf("llm: LLM_BASE_URL and LLM_MODEL are required for provider compat")
		}
		base = llm.NewCompatClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	case "fake":
		base = llm.NewFakeClient()
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
	log.Printf("llm: provider=%s client=%s", cfg.Provider, base.Name())

	return llm.Wrap(
		llm.WithHook(base, spanHook{}),
		llm.WithLogging(log.Default()),
		llm.Retry(cfg.Retries, time.Second),
		llm.RateLimitFromEnv("LLM", "GEMINI"),
	), nil
}

// spanHook records each model call as events on the active span.
type spanHook struct{}

func (spanHook) Before(ctx context.Context, phase, prompt string, _ any) {
	trace.SpanFromContext(ctx).AddEvent("llm.request", trace.WithAttributes(
		attribute.String("llm.phase", phase),
		attribute.Int("llm.prompt_bytes", len(prompt)),
	))
}

func (spanHook) After(ctx context.Context, phase string, raw json.RawMessage, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("llm.phase", phase),
		attribute.Int("llm.response_bytes", len(raw)),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("llm.error", err.Error()))
	}
	trace.SpanFromContext(ctx).AddEvent("llm.response", trace.WithAttributes(attrs...))
}
