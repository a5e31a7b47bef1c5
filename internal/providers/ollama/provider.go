// internal/providers/ollama/provider.go
// Package ollama provides a ChatProvider backed by Ollama-compatible HTTP endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers"
)

// Provider implements the providers.ChatProvider interface using Ollama HTTP APIs.
type Provider struct {
	client  *http.Client
	timeout time.Duration
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
	}
}

type chatRequest struct {
	Model    string                  `json:"model"`
	Messages []providers.ChatMessage `json:"messages"`
	Options  map[string]any          `json:"options,omitempty"`
	Stream   bool                    `json:"stream"`
}

// chatResponse defines the structure of a non-streaming /api/chat reply.
type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool  `json:"done"`
	TotalDuration   int64 `json:"total_duration"`
	PromptEvalCount int   `json:"prompt_eval_count"`
	EvalCount       int   `json:"eval_count"`
}

// Complete issues a non-streaming chat request and returns the full reply.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	hostID := providers.HostIdentifier(req.Host, "ollama-host")

	messages := req.WithSystemPrompt()
	if messages == nil {
		messages = []providers.ChatMessage{}
	}
	payload := chatRequest{
		Model:    req.Model,
		Messages: messages,
		Options:  buildOptions(req),
		Stream:   false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Completion{}, err
	}
	logging.LogRequest("PALM->LLM", hostID, req.Model, "/api/chat", body)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := strings.TrimRight(req.Host.URL, "/") + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.Completion{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.Completion{}, fmt.Errorf("ollama: /api/chat: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Completion{}, err
	}
	elapsed := time.Since(start)
	logging.LogRequest("LLM->PALM", hostID, req.Model, "/api/chat", respBody)

	if resp.StatusCode != http.StatusOK {
		return providers.Completion{}, fmt.Errorf("ollama: /api/chat returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return providers.Completion{}, fmt.Errorf("ollama: decode /api/chat response: %w", err)
	}
	if !result.Done && result.Message.Content == "" {
		return providers.Completion{}, providers.ErrEmptyCompletion
	}

	model := result.Model
	if model == "" {
		model = req.Model
	}
	return providers.Completion{
		Model:            model,
		Content:          result.Message.Content,
		PromptTokens:     result.PromptEvalCount,
		CompletionTokens: result.EvalCount,
		Duration:         elapsed,
	}, nil
}

func buildOptions(req providers.CompletionRequest) map[string]any {
	options := map[string]any{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	return options
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
