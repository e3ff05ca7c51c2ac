package llm

import (
	"context"
	"encoding/json"
)

// FakeClient returns deterministic payloads per phase for offline runs and
// tests. Schema phases answer inside a ```json fence, like most chat models.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	switch PhaseFrom(ctx) {
	case PhaseMockData:
		return json.RawMessage(fakeMockData), nil
	case PhaseSchema, PhaseRefine:
		return json.RawMessage("```json\n" + fakeSchema + "\n```"), nil
	default:
		return json.RawMessage(`{}`), nil
	}
}

const fakeMockData = `{
  "widget": {"id": "fake-widget", "app": "FakeApp", "version": "1.0"},
  "data": {
    "title": "Daily Steps",
    "today": 8432,
    "goal": 10000,
    "week": [6200, 7100, 8432, 9050, 5400, 12000, 7600]
  },
  "meta": {
    "theme": "light",
    "dataMode": "compact",
    "layout": "compact",
    "primaryColor": "#1976d2",
    "accentColor": "#ff9800",
    "chartTypes": ["line"]
  }
}`

const fakeSchema = `{
  "components": [
    {"id": "root", "component": {"Column": {"children": {"explicitList": ["title", "today", "trend"]}}}},
    {"id": "title", "component": {"Text": {"text": {"path": "/title"}, "usageHint": "h4"}}},
    {"id": "today", "component": {"Text": {"text": {"path": "/today"}, "suffix": " steps"}}},
    {"id": "trend", "component": {"Chart": {"chartType": "line", "data": {"path": "/week"}}}}
  ],
  "root": "root",
  "styles": {"primaryColor": "#1976d2"}
}`
