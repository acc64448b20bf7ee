package llm

import "encoding/json"

// Config holds the connection settings for an LLM provider.
// It is designed to be embedded in YAML configuration files.
type Config struct {
	// BaseURL is the API endpoint.
	// Examples:
	// - OpenAI: "https://api.openai.com/v1"
	// - Ollama: "http://localhost:11434/v1"
	// - LocalAI: "http://localhost:8080/v1"
	BaseURL string `yaml:"base_url" json:"base_url"`

	// APIKey is the authentication token.
	// Required for OpenAI ("sk-..."). Often ignored by local Ollama.
	APIKey string `yaml:"api_key" json:"api_key"`

	// Model is the specific model identifier.
	// Examples: "gpt-4o", "llama3", "mistral".
	Model string `yaml:"model" json:"model"`

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64 `yaml:"temperature" json:"temperature"`

	// MaxTokens limits the response length (optional).
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
}

// DefaultConfig returns safe defaults for a local setup (Ollama).
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:11434/v1",
		Model:       "qwen3:4b",
		Temperature: 0.0,
	}
}

// --- Internal API Payloads (OpenAI Compatible) ---

// ChatRequest represents the payload sent to POST /chat/completions
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []ToolDef `json:"tools,omitempty"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

// Message represents a single turn in the chat conversation.
// Assistant turns may carry ToolCalls instead of (or alongside) text;
// tool turns carry the call result in Content and echo the call id.
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolDef declares a function the model is allowed to call.
type ToolDef struct {
	Type     string      `json:"type"` // always "function"
	Function FunctionDef `json:"function"`
}

// FunctionDef describes one callable function: its name, what it does,
// and a JSON Schema for its arguments.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ToolCall is the model's request to invoke a declared function.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its arguments as raw JSON.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatResponse represents the standard response from OpenAI-compatible APIs.
type ChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *APIError `json:"error,omitempty"`
}

// APIError captures error details returned by the provider.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
