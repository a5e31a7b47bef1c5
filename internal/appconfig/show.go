package appconfig

import (
	"fmt"
	"io"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the current configuration summary. With verbose set the
// whole struct is dumped as well.
func ShowConfig(out io.Writer, file string, cfg Config, verbose bool) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:            %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Metrics:          %v\n", cfg.Metrics)
	if cfg.Metrics {
		fmt.Fprintf(out, "  Metrics Path:     %s\n", cfg.MetricsPath)
	}
	fmt.Fprintf(out, "  Log File:         %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Hosts:            %d\n", len(cfg.Hosts))
	if host, err := cfg.ActiveHost(); err == nil {
		fmt.Fprintf(out, "  Active Host:      %s (%s) %s\n", host.Name, host.NormalizedType(), host.URL)
	}
	if model, err := cfg.ActiveModel(); err == nil {
		fmt.Fprintf(out, "  Model:            %s\n", model)
	}
	fmt.Fprintf(out, "  Temperature:      %.2f\n", cfg.Temperature)
	fmt.Fprintf(out, "  Max Tokens:       %d\n", cfg.MaxTokens)
	if cfg.SystemPrompt != "" {
		fmt.Fprintf(out, "  System Prompt:    %s\n", cfg.SystemPrompt)
	}
	fmt.Fprintf(out, "  Request Timeout:  %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Runs Per Prompt:  %d\n", cfg.Runs)
	fmt.Fprintf(out, "  Cases Path:       %s\n", cfg.CasesPath)
	if cfg.OutputPath != "" {
		fmt.Fprintf(out, "  Output Path:      %s\n", cfg.OutputPath)
	}
	if cfg.SandboxMaxSteps > 0 {
		fmt.Fprintf(out, "  Sandbox Steps:    %d\n", cfg.SandboxMaxSteps)
	}

	r := cfg.Retrieval
	fmt.Fprintln(out, "\nRetrieval:")
	fmt.Fprintf(out, "  Address:          %s\n", r.Addr)
	fmt.Fprintf(out, "  Snippets Path:    %s\n", r.SnippetsPath)
	fmt.Fprintf(out, "  Corpus Path:      %s\n", r.CorpusPath)
	fmt.Fprintf(out, "  Chunk Size:       %d (overlap %d)\n", r.ChunkSize, r.ChunkOverlap)
	fmt.Fprintf(out, "  Embeddings:       %s %s %s\n", r.EmbeddingProvider, r.EmbeddingModel, r.EmbeddingHost)
	fmt.Fprintf(out, "  Top K:            %d\n", r.TopK)
	fmt.Fprintf(out, "  Metric:           %s\n", r.Metric)
	fmt.Fprintf(out, "  Hybrid Weight:    %.2f\n", r.Weight)
	fmt.Fprintf(out, "  Tracing:          %v\n", r.Tracing)
	fmt.Fprintf(out, "  Profiling:        %v\n", r.Profiling)

	if verbose {
		fmt.Fprintln(out)
		pp.ColoringEnabled = false
		pp.Fprintln(out, cfg)
	}
}
