package rag

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/util"
)

const previewWidth = 100

// PreviewOptions controls a single preview retrieval.
type PreviewOptions struct {
	Kind          Kind
	TopK          int
	Metric        string
	Weight        *float64
	ContextTokens int
}

// RunPreview runs one query against svc and prints the ranked chunks and the
// assembled context block.
func RunPreview(ctx context.Context, svc *Service, out io.Writer, args []string, opts PreviewOptions) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}
	if svc == nil {
		return fmt.Errorf("service is nil")
	}

	status := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Print(msg)
		fmt.Fprintln(out, msg)
	}

	status("[RAG] Preview query: %s", query)
	status("[RAG] retriever: %s", kindName(opts.Kind))
	status("[RAG] topK: %d", opts.TopK)
	status("[RAG] metric: %s", opts.Metric)
	if opts.Weight != nil {
		status("[RAG] weight: %.2f", *opts.Weight)
	}
	status("[RAG] indexed chunks: %d", svc.Index().Len())

	start := time.Now()
	result, err := svc.Retrieve(ctx, Query{
		Kind:   opts.Kind,
		Query:  query,
		TopK:   opts.TopK,
		Metric: opts.Metric,
		Weight: opts.Weight,
	})
	if err != nil {
		return err
	}
	contextText, contextTokens, coverage := FormatContext(result.Chunks, opts.ContextTokens)

	status("[RAG] retrieval_ms: %d", time.Since(start).Milliseconds())
	status("[RAG] context_tokens: %d", contextTokens)
	status("[RAG] source_coverage: %d", coverage)
	status("[RAG] chunks: %d", len(result.Chunks))
	if result.Answer != nil {
		status("[RAG] answer: %s", *result.Answer)
	}

	for i, doc := range result.Chunks {
		status("[RAG] chunk %d score=%.6f source=%v doc=%s chunk=%v", i+1, doc.Score, doc.Metadata["source"], docName(doc), doc.Metadata["chunk"])
		status("[RAG] chunk %d text: %s", i+1, util.WrapToWidth(doc.PageContent, previewWidth))
	}

	if contextText != "" {
		status("[RAG] context:\n%s", contextText)
	}
	return nil
}
