package rag

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
)

// NewEmbedder builds the embedding backend named by the retrieval config.
func NewEmbedder(cfg *appconfig.Config) (embeddings.Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	r := cfg.Retrieval
	host, err := embeddingHost(cfg)
	if err != nil {
		return nil, err
	}
	model := strings.TrimSpace(r.EmbeddingModel)
	if model == "" {
		model = appconfig.DefaultEmbeddingModel
	}

	switch strings.ToLower(strings.TrimSpace(r.EmbeddingProvider)) {
	case "", appconfig.HostTypeOpenAI:
		opts := []openai.Option{openai.WithEmbeddingModel(model)}
		if key := host.APIKey(); key != "" {
			opts = append(opts, openai.WithToken(key))
		}
		if base := strings.TrimRight(strings.TrimSpace(host.URL), "/"); base != "" {
			opts = append(opts, openai.WithBaseURL(base))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		return wrapEmbedder(llm)
	case appconfig.HostTypeOllama:
		opts := []ollama.Option{ollama.WithModel(model)}
		if base := strings.TrimSpace(host.URL); base != "" {
			opts = append(opts, ollama.WithServerURL(base))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("ollama embedder: %w", err)
		}
		return wrapEmbedder(llm)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", r.EmbeddingProvider)
	}
}

func wrapEmbedder(client embeddings.EmbedderClient) (embeddings.Embedder, error) {
	e, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return e, nil
}

// embeddingHost resolves the host named by retrieval.embeddingHost. An empty
// name yields a zero Host so the backend falls back to its own defaults.
func embeddingHost(cfg *appconfig.Config) (appconfig.Host, error) {
	name := strings.TrimSpace(cfg.Retrieval.EmbeddingHost)
	if name == "" {
		return appconfig.Host{}, nil
	}
	for _, host := range cfg.Hosts {
		if strings.EqualFold(host.Name, name) {
			return host, nil
		}
	}
	return appconfig.Host{}, fmt.Errorf("embeddingHost %q not found in config hosts", name)
}
