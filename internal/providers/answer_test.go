// internal/providers/answer_test.go
package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
)

type stubProvider struct {
	content string
	err     error
	last    CompletionRequest
}

func (s *stubProvider) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	s.last = req
	if s.err != nil {
		return Completion{}, s.err
	}
	return Completion{Model: req.Model, Content: s.content}, nil
}

func (s *stubProvider) Close() error { return nil }

// TestExtractAnswer covers the tag extraction contract, including missing tags
// and an explicitly empty answer.
func TestExtractAnswer(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "tagged", in: "thinking...<answer>42</answer>", want: "42"},
		{name: "keeps inner whitespace", in: "<answer> Paris </answer>", want: " Paris "},
		{name: "explicit empty", in: "<answer></answer>", want: ""},
		{name: "missing open", in: "42</answer>", want: ""},
		{name: "missing close", in: "<answer>42", want: ""},
		{name: "close before open", in: "</answer>x<answer>y", want: ""},
		{name: "first pair wins", in: "<answer>a</answer><answer>b</answer>", want: "a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractAnswer(tc.in); got != tc.want {
				t.Fatalf("ExtractAnswer(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// TestAnswerCallerBuildsRequest verifies the prompt is sent as a single user
// message with the configured sampling settings.
func TestAnswerCallerBuildsRequest(t *testing.T) {
	stub := &stubProvider{content: "  reasoning <answer>SELECT 1</answer>  "}
	caller := AnswerCaller{
		Provider:    stub,
		Host:        appconfig.Host{Name: "local"},
		Model:       "gpt-4.1-mini",
		Temperature: 0.5,
		MaxTokens:   600,
	}

	got, err := caller.CallModel(context.Background(), "write a query")
	if err != nil {
		t.Fatalf("CallModel error: %v", err)
	}
	if got != "SELECT 1" {
		t.Fatalf("unexpected answer %q", got)
	}
	if len(stub.last.Messages) != 1 || stub.last.Messages[0].Role != "user" || stub.last.Messages[0].Content != "write a query" {
		t.Fatalf("unexpected messages: %+v", stub.last.Messages)
	}
	if stub.last.Temperature != 0.5 || stub.last.MaxTokens != 600 || stub.last.Model != "gpt-4.1-mini" {
		t.Fatalf("unexpected request settings: %+v", stub.last)
	}
}

func TestAnswerCallerSendsSystemPrompt(t *testing.T) {
	stub := &stubProvider{content: "<answer>ok</answer>"}
	caller := AnswerCaller{Provider: stub, SystemPrompt: "Answer inside <answer> tags."}

	if _, err := caller.CallModel(context.Background(), "q"); err != nil {
		t.Fatalf("CallModel error: %v", err)
	}
	msgs := stub.last.WithSystemPrompt()
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[0].Content != "Answer inside <answer> tags." || msgs[1].Content != "q" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestAnswerCallerPropagatesErrors(t *testing.T) {
	caller := AnswerCaller{Provider: &stubProvider{err: errors.New("boom")}}
	if _, err := caller.CallModel(context.Background(), "x"); err == nil {
		t.Fatal("expected error from provider")
	}
}
