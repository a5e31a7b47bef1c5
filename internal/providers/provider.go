// internal/providers/provider.go

// Package providers defines the interface for talking to language model backends.
// It provides a common abstraction layer for sending a prompt and reading the completion,
// regardless of the underlying provider implementation (e.g., OpenAI, Ollama).
package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
)

// ErrEmptyCompletion is returned when a backend answers without any choices.
var ErrEmptyCompletion = errors.New("model returned no completion")

// ChatMessage represents a single message in a chat conversation.
// It contains the role of the message sender (e.g., "user", "assistant") and the message content.
type ChatMessage struct {
	Role    string
	Content string
}

// CompletionRequest encapsulates all the information needed for one model call.
type CompletionRequest struct {
	Host         appconfig.Host
	Model        string
	SystemPrompt string
	Messages     []ChatMessage
	Temperature  float64
	MaxTokens    int
}

// Completion is the raw text returned by the model plus usage metadata.
type Completion struct {
	Model            string
	Content          string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
}

// ChatProvider is the interface that all model providers must implement.
type ChatProvider interface {
	// Complete sends the request and waits for the full completion.
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
	// Close cleans up any resources used by the provider.
	Close() error
}

// HostIdentifier returns a string identifier for a given host, preferring the name over the URL.
func HostIdentifier(host appconfig.Host, fallback string) string {
	name := strings.TrimSpace(host.Name)
	if name != "" {
		return name
	}
	if url := strings.TrimSpace(host.URL); url != "" {
		return url
	}
	return fallback
}

// WithSystemPrompt prepends the system prompt, when set, to the request messages.
func (r CompletionRequest) WithSystemPrompt() []ChatMessage {
	if strings.TrimSpace(r.SystemPrompt) == "" {
		return r.Messages
	}
	return append([]ChatMessage{{Role: "system", Content: r.SystemPrompt}}, r.Messages...)
}
