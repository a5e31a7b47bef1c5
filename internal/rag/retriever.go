package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/tmc/langchaingo/schema"
)

// Metadata source values for retrieved documents.
const (
	SourceBM25   = "bm25"
	SourceVector = "vector"
)

// DefaultRRFConstant is the rank offset used by reciprocal-rank fusion.
const DefaultRRFConstant = 60

var (
	_ schema.Retriever = (*BM25Retriever)(nil)
	_ schema.Retriever = (*VectorRetriever)(nil)
	_ schema.Retriever = (*EnsembleRetriever)(nil)
)

// BM25Retriever ranks chunks lexically.
type BM25Retriever struct {
	idx  *Index
	TopK int
}

// NewBM25Retriever returns a lexical retriever over idx.
func NewBM25Retriever(idx *Index, topK int) *BM25Retriever {
	return &BM25Retriever{idx: idx, TopK: topK}
}

// GetRelevantDocuments returns the TopK chunks with the highest BM25 score.
func (r *BM25Retriever) GetRelevantDocuments(_ context.Context, query string) ([]schema.Document, error) {
	scores := r.idx.bm25.scores(query)
	order := rankIndices(scores, true, r.TopK)
	docs := make([]schema.Document, 0, len(order))
	for _, i := range order {
		docs = append(docs, newDocument(r.idx.chunks[i], SourceBM25, scores[i]))
	}
	return docs, nil
}

// VectorRetriever ranks chunks by embedding similarity.
type VectorRetriever struct {
	idx    *Index
	TopK   int
	Metric Metric
}

// NewVectorRetriever returns an embedding retriever over idx.
func NewVectorRetriever(idx *Index, topK int, metric Metric) *VectorRetriever {
	return &VectorRetriever{idx: idx, TopK: topK, Metric: metric}
}

// GetRelevantDocuments embeds the query and returns the TopK closest chunks
// under the retriever's metric.
func (r *VectorRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	if !r.idx.HasVectors() {
		return nil, ErrNoEmbedder
	}
	metric := r.Metric
	if metric == "" {
		metric = MetricCosine
	}

	qv, err := r.idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vectors := r.idx.vectors
	if metric == MetricCosine {
		qv = normalize(qv)
		vectors = r.idx.unit
	}

	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != len(qv) {
			return nil, fmt.Errorf("embedding dimension mismatch: query %d, chunk %d", len(qv), len(v))
		}
		scores[i] = metric.score(qv, v)
	}

	order := rankIndices(scores, metric.higherIsBetter(), r.TopK)
	docs := make([]schema.Document, 0, len(order))
	for _, i := range order {
		docs = append(docs, newDocument(r.idx.chunks[i], SourceVector, scores[i]))
	}
	return docs, nil
}

// EnsembleRetriever fuses several rankings with weighted reciprocal-rank
// fusion. Documents with identical content are merged; the first retriever
// to return a document supplies its metadata.
type EnsembleRetriever struct {
	Retrievers []schema.Retriever
	Weights    []float64
	C          int
	TopK       int
}

// NewEnsembleRetriever returns a fusion retriever. Nil weights mean equal
// weighting.
func NewEnsembleRetriever(retrievers []schema.Retriever, weights []float64, topK int) *EnsembleRetriever {
	return &EnsembleRetriever{
		Retrievers: retrievers,
		Weights:    weights,
		C:          DefaultRRFConstant,
		TopK:       topK,
	}
}

// GetRelevantDocuments queries every retriever and returns the fused ranking.
func (r *EnsembleRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	weights := r.Weights
	if len(weights) == 0 {
		weights = make([]float64, len(r.Retrievers))
		for i := range weights {
			weights[i] = 1 / float64(len(r.Retrievers))
		}
	}
	if len(weights) != len(r.Retrievers) {
		return nil, fmt.Errorf("ensemble: %d weights for %d retrievers", len(weights), len(r.Retrievers))
	}
	c := r.C
	if c <= 0 {
		c = DefaultRRFConstant
	}

	var (
		merged []schema.Document
		fused  []float64
		seen   = make(map[string]int)
	)
	for ri, retriever := range r.Retrievers {
		docs, err := retriever.GetRelevantDocuments(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("ensemble retriever %d: %w", ri, err)
		}
		for rank, doc := range docs {
			contribution := weights[ri] / float64(rank+1+c)
			if pos, ok := seen[doc.PageContent]; ok {
				fused[pos] += contribution
				continue
			}
			seen[doc.PageContent] = len(merged)
			merged = append(merged, doc)
			fused = append(fused, contribution)
		}
	}

	order := rankIndices(fused, true, r.TopK)
	out := make([]schema.Document, 0, len(order))
	for _, i := range order {
		doc := merged[i]
		doc.Score = float32(fused[i])
		out = append(out, doc)
	}
	return out, nil
}

// rankIndices orders positions by score, keeping the original order among
// ties, and keeps at most k of them when k is positive.
func rankIndices(scores []float64, higherIsBetter bool, k int) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if higherIsBetter {
			return scores[order[a]] > scores[order[b]]
		}
		return scores[order[a]] < scores[order[b]]
	})
	if k > 0 && k < len(order) {
		order = order[:k]
	}
	return order
}

func newDocument(c Chunk, source string, score float64) schema.Document {
	return schema.Document{
		PageContent: c.Text,
		Metadata: map[string]any{
			"source": source,
			"doc":    c.Doc,
			"chunk":  c.Index,
		},
		Score: float32(score),
	}
}
