// internal/cli/rag.go
package palm

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/rag"
)

// ragCmd groups retrieval CLI commands.
var ragCmd = &cobra.Command{
	Use:   "rag",
	Short: "Retrieval utilities",
}

var previewFlags struct {
	retriever     string
	topK          int
	metric        string
	weight        float64
	contextTokens int
}

// ragPreviewCmd runs one query against a freshly built index.
var ragPreviewCmd = &cobra.Command{
	Use:   "preview <query>",
	Short: "Preview retrieval and context assembly for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is nil")
		}
		opts := rag.PreviewOptions{
			Kind:          rag.Kind(previewFlags.retriever),
			TopK:          previewFlags.topK,
			Metric:        previewFlags.metric,
			ContextTokens: previewFlags.contextTokens,
		}
		if cmd.Flags().Changed("weight") || opts.Kind == rag.KindHybrid {
			w := previewFlags.weight
			opts.Weight = &w
		}
		return runPreview(contextOrBackground(cmd), cfg, cmd.OutOrStdout(), args, opts)
	},
}

func runPreview(ctx context.Context, cfg *appconfig.Config, out io.Writer, args []string, opts rag.PreviewOptions) error {
	status := statusLogger(time.Now())

	var (
		svc *rag.Service
		err error
	)
	if opts.Kind == rag.KindBM25 {
		// Lexical retrieval needs no embedding backend.
		chunks, loadErr := rag.LoadCorpus(cfg.Retrieval)
		if loadErr != nil {
			return loadErr
		}
		idx, buildErr := rag.BuildIndex(ctx, chunks, nil, status)
		if buildErr != nil {
			return buildErr
		}
		svc = rag.NewService(idx)
	} else {
		svc, err = rag.Open(ctx, cfg, status)
		if err != nil {
			return err
		}
	}
	return rag.RunPreview(ctx, svc, out, args, opts)
}

func init() {
	ragPreviewCmd.Flags().StringVar(&previewFlags.retriever, "retriever", string(rag.KindHybrid), "retriever: bm25, vector or hybrid")
	ragPreviewCmd.Flags().IntVar(&previewFlags.topK, "top-k", appconfig.DefaultRetrievalTopK, "number of chunks to return")
	ragPreviewCmd.Flags().StringVar(&previewFlags.metric, "metric", appconfig.DefaultRetrievalMetric, "vector metric: cosine, l2 or dot")
	ragPreviewCmd.Flags().Float64Var(&previewFlags.weight, "weight", appconfig.DefaultRetrievalWeight, "BM25 weight for hybrid retrieval, in [0, 1]")
	ragPreviewCmd.Flags().IntVar(&previewFlags.contextTokens, "context-tokens", 0, "token limit for the assembled context (0 = no limit)")

	ragCmd.AddCommand(ragPreviewCmd)
	rootCmd.AddCommand(ragCmd)
}
