package rag

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/schema"
)

// FormatContext builds the CONTEXT block and returns context text, token count, and source coverage.
func FormatContext(docs []schema.Document, maxTokens int) (string, int, int) {
	if len(docs) == 0 {
		return "", 0, 0
	}
	if maxTokens < 0 {
		maxTokens = 0
	}

	var b strings.Builder
	b.WriteString("CONTEXT\n")

	contextTokens := 0
	remaining := maxTokens
	sourceSet := make(map[string]struct{})

	for _, doc := range docs {
		text := strings.TrimSpace(doc.PageContent)
		if text == "" {
			continue
		}
		name := docName(doc)

		if maxTokens > 0 {
			if remaining <= 0 {
				break
			}
			if tokens := estimateTokens(text); tokens > remaining {
				text = truncateToTokens(text, remaining)
			}
		}

		usedTokens := estimateTokens(text)
		if usedTokens == 0 {
			continue
		}

		fmt.Fprintf(&b, "[doc:%s] %s\n", name, text)
		contextTokens += usedTokens
		if maxTokens > 0 {
			remaining -= usedTokens
		}
		sourceSet[name] = struct{}{}
	}

	return strings.TrimRight(b.String(), "\n"), contextTokens, len(sourceSet)
}

func docName(doc schema.Document) string {
	if name, ok := doc.Metadata["doc"].(string); ok && name != "" {
		return name
	}
	return "unknown"
}

func estimateTokens(text string) int {
	return len(strings.Fields(text))
}

func truncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	parts := strings.Fields(text)
	if len(parts) <= maxTokens {
		return text
	}
	return strings.Join(parts[:maxTokens], " ")
}
