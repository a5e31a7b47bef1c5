// Package rag implements lexical, vector and hybrid retrieval over a fixed
// snippet corpus that is indexed once at startup.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/schema"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
)

// Kind selects a retrieval strategy.
type Kind string

const (
	KindBM25   Kind = "bm25"
	KindVector Kind = "vector"
	KindHybrid Kind = "hybrid"
)

// ErrEmptyQuery is returned when the query has no content.
var ErrEmptyQuery = errors.New("query is empty")

// Query describes a single retrieval request. Zero values take the defaults:
// top 3, cosine, weight 0.5.
type Query struct {
	Kind   Kind
	Query  string
	TopK   int
	Metric string
	Weight *float64
}

// Result carries the ranked chunks and the answer, which is the content of
// the first chunk or nil when nothing was retrieved.
type Result struct {
	Answer *string
	Chunks []schema.Document
}

// Service answers retrieval queries against a shared Index.
type Service struct {
	idx *Index
}

// NewService wraps a built index.
func NewService(idx *Index) *Service {
	return &Service{idx: idx}
}

// Open loads the configured corpus, builds the embedder and indexes the
// corpus once.
func Open(ctx context.Context, cfg *appconfig.Config, status StatusFunc) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	chunks, err := LoadCorpus(cfg.Retrieval)
	if err != nil {
		return nil, err
	}
	if status != nil {
		status("[RAG] Loaded %d chunks", len(chunks))
	}
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	idx, err := BuildIndex(ctx, chunks, embedder, status)
	if err != nil {
		return nil, err
	}
	return NewService(idx), nil
}

// Index returns the underlying index.
func (s *Service) Index() *Index {
	return s.idx
}

// Retrieve runs the query with the retriever named by q.Kind.
func (s *Service) Retrieve(ctx context.Context, q Query) (Result, error) {
	text := strings.TrimSpace(q.Query)
	if text == "" {
		return Result{}, ErrEmptyQuery
	}
	topK := q.TopK
	if topK <= 0 {
		topK = appconfig.DefaultRetrievalTopK
	}
	metric, err := ParseMetric(q.Metric)
	if err != nil {
		return Result{}, err
	}

	var retriever schema.Retriever
	switch q.Kind {
	case KindBM25:
		retriever = NewBM25Retriever(s.idx, topK)
	case KindVector, "":
		retriever = NewVectorRetriever(s.idx, topK, metric)
	case KindHybrid:
		w := appconfig.DefaultRetrievalWeight
		if q.Weight != nil {
			w = *q.Weight
		}
		if w < 0 || w > 1 {
			return Result{}, fmt.Errorf("weight %v outside [0, 1]", w)
		}
		retriever = NewEnsembleRetriever(
			[]schema.Retriever{
				NewBM25Retriever(s.idx, topK),
				NewVectorRetriever(s.idx, topK, metric),
			},
			[]float64{w, 1 - w},
			topK,
		)
	default:
		return Result{}, fmt.Errorf("unknown retriever %q (want bm25, vector or hybrid)", q.Kind)
	}

	docs, err := retriever.GetRelevantDocuments(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("%s retrieval: %w", kindName(q.Kind), err)
	}
	return newResult(docs), nil
}

func newResult(docs []schema.Document) Result {
	res := Result{Chunks: docs}
	if len(docs) > 0 {
		answer := docs[0].PageContent
		res.Answer = &answer
	}
	return res
}

func kindName(k Kind) string {
	if k == "" {
		return string(KindVector)
	}
	return string(k)
}
