// internal/providers/answer.go
package providers

import (
	"context"
	"strings"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
)

const (
	answerOpenTag  = "<answer>"
	answerCloseTag = "</answer>"
)

// ExtractAnswer returns the text between the first <answer> and the first
// </answer>. It returns "" when either tag is missing, which callers must
// treat as "no answer extracted".
func ExtractAnswer(text string) string {
	open := strings.Index(text, answerOpenTag)
	if open < 0 {
		return ""
	}
	end := strings.Index(text, answerCloseTag)
	if end < 0 {
		return ""
	}
	start := open + len(answerOpenTag)
	if end < start {
		return ""
	}
	return text[start:end]
}

// AnswerCaller sends a prompt as a single user message and extracts the
// tagged answer from the completion. SystemPrompt, when set, is sent ahead
// of the prompt.
type AnswerCaller struct {
	Provider     ChatProvider
	Host         appconfig.Host
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// CallModel implements the harness model collaborator.
func (c AnswerCaller) CallModel(ctx context.Context, prompt string) (string, error) {
	completion, err := c.Provider.Complete(ctx, CompletionRequest{
		Host:         c.Host,
		Model:        c.Model,
		SystemPrompt: c.SystemPrompt,
		Messages:     []ChatMessage{{Role: "user", Content: prompt}},
		Temperature:  c.Temperature,
		MaxTokens:    c.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return ExtractAnswer(strings.TrimSpace(completion.Content)), nil
}
