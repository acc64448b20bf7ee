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

// Client defines the interface for interacting with an LLM.
// This abstraction allows for easy mocking in tests.
type Client interface {
	// Chat sends a prompt to the LLM and returns the text response.
	// systemPrompt: Instructions for the AI behavior (e.g., "You are a helpful assistant").
	// userQuery: The actual input from the user.
	Chat(ctx context.Context, systemPrompt, userQuery string) (string, error)

	// ChatWithTools runs one completion over a full conversation, offering
	// the model a set of callable tools. The returned message carries either
	// assistant text or one or more tool calls for the caller to execute.
	ChatWithTools(ctx context.Context, messages []Message, tools []ToolDef) (Message, error)
}

// OpenAIClient implements the Client interface for OpenAI-compatible APIs.
// It works with OpenAI, Ollama, LocalAI, vLLM, etc.
type OpenAIClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient initializes a new LLM client.
func NewClient(cfg Config) *OpenAIClient {
	// Robustness: ensure BaseURL does not end with a slash
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &OpenAIClient{
		cfg: cfg,
		httpClient: &http.Client{
			// Set a reasonable timeout. Generation can be slow.
			Timeout: 120 * time.Second,
		},
	}
}

// Chat performs a plain completion request without tools.
func (c *OpenAIClient) Chat(ctx context.Context, systemPrompt, userQuery string) (string, error) {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: userQuery})

	reply, err := c.ChatWithTools(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

// ChatWithTools performs a completion request over a full conversation.
func (c *OpenAIClient) ChatWithTools(ctx context.Context, messages []Message, tools []ToolDef) (Message, error) {
	// 1. Prepare Payload
	reqBody := ChatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Tools:       tools,
		Temperature: c.cfg.Temperature,
		Stream:      false, // Blocking requests keep the tool loop simple
	}

	if c.cfg.MaxTokens > 0 {
		reqBody.MaxTokens = c.cfg.MaxTokens
	}

	// 2. Send and decode
	return c.sendRequest(ctx, reqBody)
}

// sendRequest handles the common HTTP logic for completion requests.
func (c *OpenAIClient) sendRequest(ctx context.Context, payload ChatRequest) (Message, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.cfg.BaseURL)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBytes))
	if err != nil {
		return Message{}, fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("llm connection failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Message{}, fmt.Errorf("llm api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return Message{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if chatResp.Error != nil {
		return Message{}, fmt.Errorf("provider error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return Message{}, fmt.Errorf("empty response from llm")
	}

	return chatResp.Choices[0].Message, nil
}
