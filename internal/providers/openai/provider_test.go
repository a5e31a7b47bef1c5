// internal/providers/openai/provider_test.go
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers"
)

func TestProviderComplete(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"model": "served-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "<answer>4</answer>"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10}
		}`))
	}))
	defer server.Close()

	t.Setenv("PALM_TEST_OPENAI_KEY", "test-key")
	cfg := &appconfig.Config{TimeoutSeconds: 5}
	provider := New(cfg)
	defer provider.Close()

	completion, err := provider.Complete(context.Background(), providers.CompletionRequest{
		Host:        appconfig.Host{Name: "local", URL: server.URL + "/v1/", APIKeyEnv: "PALM_TEST_OPENAI_KEY"},
		Model:       "gpt-test",
		Messages:    []providers.ChatMessage{{Role: "user", Content: "2+2?"}},
		Temperature: 0.5,
		MaxTokens:   600,
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if completion.Content != "<answer>4</answer>" || completion.Model != "served-model" {
		t.Fatalf("unexpected completion: %+v", completion)
	}
	if completion.PromptTokens != 7 || completion.CompletionTokens != 3 {
		t.Fatalf("unexpected usage: %+v", completion)
	}
	if got["model"] != "gpt-test" || got["max_tokens"] != float64(600) || got["temperature"] != 0.5 {
		t.Fatalf("unexpected request payload: %v", got)
	}
	messages, _ := got["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %v", got["messages"])
	}
}

func TestProviderCompleteSendsZeroTemperature(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cmpl-3", "choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	defer server.Close()

	provider := New(&appconfig.Config{})
	defer provider.Close()
	_, err := provider.Complete(context.Background(), providers.CompletionRequest{
		Host:        appconfig.Host{URL: server.URL},
		Model:       "m",
		Messages:    []providers.ChatMessage{{Role: "user", Content: "x"}},
		Temperature: 0,
		MaxTokens:   600,
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	temp, ok := got["temperature"].(float64)
	if !ok {
		t.Fatalf("temperature missing from request body: %v", got)
	}
	if temp <= 0 || temp > 1e-6 {
		t.Fatalf("expected a near-zero temperature, got %v", temp)
	}
}

func TestProviderCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cmpl-2", "choices": []}`))
	}))
	defer server.Close()

	provider := New(&appconfig.Config{})
	_, err := provider.Complete(context.Background(), providers.CompletionRequest{
		Host:     appconfig.Host{URL: server.URL},
		Model:    "m",
		Messages: []providers.ChatMessage{{Role: "user", Content: "x"}},
	})
	if !errors.Is(err, providers.ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestProviderCompleteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider := New(&appconfig.Config{})
	_, err := provider.Complete(context.Background(), providers.CompletionRequest{
		Host:     appconfig.Host{URL: server.URL},
		Model:    "m",
		Messages: []providers.ChatMessage{{Role: "user", Content: "x"}},
	})
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}
