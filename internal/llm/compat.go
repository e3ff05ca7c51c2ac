package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CompatClient calls an OpenAI-compatible Chat Completions endpoint
// (OpenAI, Qwen, Doubao, Groq and friends).
type CompatClient struct {
	http        *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float32
	maxTokens   int
}

// NewCompatClient creates a client for baseURL, e.g.
// "https://api.openai.com/v1". The chat completions path is appended.
func NewCompatClient(baseURL, apiKey, model string) *CompatClient {
	return &CompatClient{
		http:        &http.Client{Timeout: 120 * time.Second},
		apiKey:      apiKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/") + "/chat/completions",
		temperature: 0.7,
		maxTokens:   4000,
	}
}

func (c *CompatClient) Name() string { return "Compat:" + c.model }
func (c *CompatClient) Close() error { return nil }

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *CompatClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	msgs := []chatMessage{{Role: "system", Content: prompt}}
	if user := userContent(input); user != "" {
		msgs = append(msgs, chatMessage{Role: "user", Content: user})
	}
	b, err := json.Marshal(chatReq{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("llm api error: %s: %s", resp.Status, string(body))
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, NewPermanentError(err)
		}
		return nil, err
	}
	var out chatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}
	return json.RawMessage(out.Choices[0].Message.Content), nil
}
