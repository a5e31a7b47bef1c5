package rag

import (
	"testing"

	"github.com/tmc/langchaingo/schema"
)

func TestFormatContextRespectsTokenLimit(t *testing.T) {
	docs := []schema.Document{
		{PageContent: "one two three four", Metadata: map[string]any{"doc": "a.md"}},
		{PageContent: "five six seven", Metadata: map[string]any{"doc": "b.md"}},
	}

	context, tokens, sources := FormatContext(docs, 5)
	if tokens != 5 {
		t.Fatalf("expected 5 tokens, got %d", tokens)
	}
	if sources != 2 {
		t.Fatalf("expected 2 sources, got %d", sources)
	}
	want := "CONTEXT\n[doc:a.md] one two three four\n[doc:b.md] five"
	if context != want {
		t.Fatalf("unexpected context:\n%s", context)
	}
}

func TestFormatContextNoChunks(t *testing.T) {
	context, tokens, sources := FormatContext(nil, 10)
	if context != "" || tokens != 0 || sources != 0 {
		t.Fatalf("expected empty result when no chunks")
	}
}

func TestFormatContextMissingDocName(t *testing.T) {
	context, _, sources := FormatContext([]schema.Document{{PageContent: "alpha"}}, 0)
	if context != "CONTEXT\n[doc:unknown] alpha" || sources != 1 {
		t.Fatalf("unexpected result %q (%d sources)", context, sources)
	}
}
