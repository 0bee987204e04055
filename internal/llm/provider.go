package llm

import (
	"context"
	"encoding/json"
)

// Provider is a generation backend. Consumers call Generate with a Request
// and receive structured JSON.
type Provider interface {
	// Generate sends a prompt to the backend and returns a structured
	// response. When req.Schema is set the provider uses its native
	// structured output mechanism and validates the result against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns the backend name, e.g. "anthropic".
	Name() string

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the backend.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation history. Content generation sends a
	// single user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When nil, the response Content is raw text as json.RawMessage.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the backend.
type Schema struct {
	// Name identifies this schema (tool name for Anthropic, schema name for
	// OpenAI) and keys the compiled-schema cache. Kebab-case, e.g.
	// "passage-exercise".
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the backend's output.
type Response struct {
	// Content is the generated output: the validated JSON object when a
	// Schema was provided, otherwise the raw text.
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
