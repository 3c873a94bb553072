package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatModel sends one system+user exchange and returns the raw reply text
type chatModel interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

func newChatModel(cfg Config, httpClient *http.Client) chatModel {
	if !cfg.Enabled() {
		return nil
	}
	switch cfg.Provider {
	case ProviderOllama:
		return &ollamaModel{baseURL: cfg.BaseURL, model: cfg.Model, client: httpClient}
	case ProviderOpenAI:
		return &openAIModel{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, model: cfg.Model, client: httpClient}
	}
	return nil
}

type ollamaModel struct {
	baseURL string
	model   string
	client  *http.Client
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Message message `json:"message"`
}

func (m *ollamaModel) Chat(ctx context.Context, system, user string) (string, error) {
	body := ollamaRequest{
		Model: m.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream:  false,
		Options: map[string]any{"temperature": 0.7, "top_p": 0.9},
	}

	var resp ollamaResponse
	if err := postJSON(ctx, m.client, m.baseURL+"/api/chat", "", body, &resp); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("ollama: empty response")
	}
	return resp.Message.Content, nil
}

type openAIModel struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type openAIRequest struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens"`
	ResponseFormat map[string]string `json:"response_format"`
}

type openAIResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (m *openAIModel) Chat(ctx context.Context, system, user string) (string, error) {
	body := openAIRequest{
		Model: m.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0.7,
		MaxTokens:      1500,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	var resp openAIResponse
	if err := postJSON(ctx, m.client, m.baseURL+"/chat/completions", m.apiKey, body, &resp); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func postJSON(ctx context.Context, client *http.Client, url, bearer string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(raw), 500))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
