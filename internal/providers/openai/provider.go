// internal/providers/openai/provider.go
// Package openai provides a ChatProvider backed by OpenAI-compatible chat
// completion endpoints, including llama.cpp's server.
package openai

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers"
)

// Provider implements the providers.ChatProvider interface using go-openai.
// One client is kept per host.
type Provider struct {
	httpClient *http.Client
	timeout    time.Duration

	mu      sync.Mutex
	clients map[string]*goopenai.Client
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		clients:    make(map[string]*goopenai.Client),
	}
}

func (p *Provider) clientFor(host appconfig.Host) *goopenai.Client {
	key := host.Name + "|" + host.URL
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[key]; ok {
		return c
	}
	conf := goopenai.DefaultConfig(host.APIKey())
	if base := strings.TrimRight(strings.TrimSpace(host.URL), "/"); base != "" {
		conf.BaseURL = base
	}
	conf.HTTPClient = p.httpClient
	c := goopenai.NewClientWithConfig(conf)
	p.clients[key] = c
	return c
}

// Complete sends a non-streaming chat completion request.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	hostID := providers.HostIdentifier(req.Host, "openai-host")

	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+1)
	for _, m := range req.WithSystemPrompt() {
		role := strings.TrimSpace(m.Role)
		if role == "" {
			role = goopenai.ChatMessageRoleUser
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	payload := goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: wireTemperature(req.Temperature),
	}
	logging.LogRequest("PALM->LLM", hostID, req.Model, "/chat/completions", payload)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.clientFor(req.Host).CreateChatCompletion(ctx, payload)
	elapsed := time.Since(start)
	if err != nil {
		logging.LogRequest("LLM->PALM", hostID, req.Model, "/chat/completions", err.Error())
		return providers.Completion{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	logging.LogRequest("LLM->PALM", hostID, req.Model, "/chat/completions", resp)

	if len(resp.Choices) == 0 {
		return providers.Completion{}, providers.ErrEmptyCompletion
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return providers.Completion{
		Model:            model,
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Duration:         elapsed,
	}, nil
}

// wireTemperature maps 0 to the smallest positive float32. go-openai omits a
// zero temperature from the request, and the API then samples at 1.0.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
