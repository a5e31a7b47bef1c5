package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "palm.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
		SetDebug(false)
	})

	LogEvent("hello %s", "world")
	LogDebug("hidden %d", 1)
	SetDebug(true)
	LogDebug("visible %d", 2)
	LogRequest("palm->llm", "local", "qwen", "/v1/chat/completions", map[string]any{"n": 1})
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if strings.Contains(content, "hidden 1") {
		t.Fatalf("debug line written while debug disabled: %s", content)
	}
	if !strings.Contains(content, "[DEBUG] visible 2") {
		t.Fatalf("expected LogDebug content, got: %s", content)
	}
	if !strings.Contains(content, `[PALM->LLM] host=local model=qwen endpoint=/v1/chat/completions payload={"n":1}`) {
		t.Fatalf("expected request line, got: %s", content)
	}
}

func TestBuildRequestMessageDefaults(t *testing.T) {
	msg := buildRequestMessage(" in ", " ", "", " /api/chat ", map[string]any{"ok": true})
	if !strings.Contains(msg, "[IN]") {
		t.Fatalf("expected uppercased direction, got: %s", msg)
	}
	if !strings.Contains(msg, "host=unknown") {
		t.Fatalf("expected default host, got: %s", msg)
	}
	if !strings.Contains(msg, "model=unknown") {
		t.Fatalf("expected default model, got: %s", msg)
	}
	if !strings.Contains(msg, "endpoint=/api/chat") {
		t.Fatalf("expected endpoint, got: %s", msg)
	}
	if !strings.Contains(msg, "payload={\"ok\":true}") {
		t.Fatalf("expected payload json, got: %s", msg)
	}
}

func TestBuildRequestMessageOmitsNilPayload(t *testing.T) {
	msg := buildRequestMessage("out", "h", "m", "", nil)
	if strings.Contains(msg, "payload=") {
		t.Fatalf("expected no payload, got: %s", msg)
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
}
