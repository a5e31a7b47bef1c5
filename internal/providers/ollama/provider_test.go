// internal/providers/ollama/provider_test.go
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers"
)

// TestProviderComplete verifies that the provider makes a single non-streaming
// request carrying the sampling options and reads back the reply.
func TestProviderComplete(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		capturedBody = body
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"model":"test-model","message":{"role":"assistant","content":"<answer>final</answer>"},"done":true,"prompt_eval_count":12,"eval_count":4}`))
	}))
	defer server.Close()

	provider := New(&appconfig.Config{TimeoutSeconds: 5})
	completion, err := provider.Complete(context.Background(), providers.CompletionRequest{
		Host:         appconfig.Host{Name: "test", URL: server.URL},
		Model:        "test-model",
		SystemPrompt: "be brief",
		Messages:     []providers.ChatMessage{{Role: "user", Content: "hi"}},
		Temperature:  0.5,
		MaxTokens:    600,
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if completion.Content != "<answer>final</answer>" || completion.Model != "test-model" {
		t.Fatalf("unexpected completion: %+v", completion)
	}
	if completion.PromptTokens != 12 || completion.CompletionTokens != 4 {
		t.Fatalf("unexpected token counts: %+v", completion)
	}

	var payload map[string]any
	if err := json.Unmarshal(capturedBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if stream, ok := payload["stream"].(bool); !ok || stream {
		t.Fatalf("expected stream=false, got %v", payload["stream"])
	}
	messages, ok := payload["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %v", payload["messages"])
	}
	options, ok := payload["options"].(map[string]any)
	if !ok {
		t.Fatalf("expected options object, got %T", payload["options"])
	}
	if options["temperature"] != 0.5 || options["num_predict"] != float64(600) {
		t.Fatalf("unexpected options: %v", options)
	}
}

func TestProviderCompleteNon200(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer server.Close()

	provider := New(&appconfig.Config{TimeoutSeconds: 5})
	_, err := provider.Complete(context.Background(), providers.CompletionRequest{
		Host:  appconfig.Host{URL: server.URL},
		Model: "nope",
	})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestProviderCompleteEmptyReply(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":""},"done":false}`))
	}))
	defer server.Close()

	provider := New(&appconfig.Config{TimeoutSeconds: 5})
	_, err := provider.Complete(context.Background(), providers.CompletionRequest{
		Host:     appconfig.Host{URL: server.URL},
		Model:    "m",
		Messages: []providers.ChatMessage{{Role: "user", Content: "x"}},
	})
	if !errors.Is(err, providers.ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}
