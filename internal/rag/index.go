package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/tmc/langchaingo/embeddings"
)

// ErrNoEmbedder is returned by vector retrieval on an index built without
// an embedder.
var ErrNoEmbedder = errors.New("rag: index has no embedder")

var (
	embedAttempts uint = 3
	embedDelay         = time.Second
)

// Index is the immutable retrieval state shared by every retriever. It is
// safe for concurrent use once built.
type Index struct {
	chunks   []Chunk
	bm25     *bm25Index
	embedder embeddings.Embedder
	vectors  [][]float32
	unit     [][]float32
}

// StatusFunc receives progress lines while an index is built.
type StatusFunc func(format string, args ...any)

// BuildIndex computes BM25 statistics and, when embedder is not nil, the
// embedding of every chunk. Embedding calls are retried on failure.
func BuildIndex(ctx context.Context, chunks []Chunk, embedder embeddings.Embedder, status StatusFunc) (*Index, error) {
	if len(chunks) == 0 {
		return nil, errors.New("rag: cannot index an empty corpus")
	}
	if status == nil {
		status = func(string, ...any) {}
	}

	start := time.Now()
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	idx := &Index{
		chunks:   chunks,
		bm25:     newBM25Index(texts),
		embedder: embedder,
	}
	status("[RAG] BM25 statistics for %d chunks", len(chunks))

	if embedder == nil {
		status("[RAG] No embedder configured; vector retrieval disabled")
		return idx, nil
	}

	var vectors [][]float32
	err := retry.Do(
		func() error {
			var err error
			vectors, err = embedder.EmbedDocuments(ctx, texts)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(embedAttempts),
		retry.Delay(embedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			status("[RAG] Embedding attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed corpus: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	idx.vectors = vectors
	idx.unit = make([][]float32, len(vectors))
	for i, v := range vectors {
		idx.unit[i] = normalize(v)
	}
	status("[RAG] Embedded %d chunks in %s", len(chunks), time.Since(start).Truncate(time.Millisecond))
	return idx, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.chunks)
}

// HasVectors reports whether vector retrieval is available.
func (idx *Index) HasVectors() bool {
	return idx.embedder != nil && len(idx.vectors) > 0
}
