// internal/server/handlers.go
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/schema"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/appconfig"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/rag"
)

type simpleQueryRequest struct {
	Query string `json:"query" binding:"required"`
}

type queryRequest struct {
	Query  string   `json:"query" binding:"required"`
	TopK   *int     `json:"top_k" binding:"omitempty,gte=1"`
	Metric string   `json:"metric" binding:"omitempty,oneof=cosine l2 dot"`
	Weight *float64 `json:"weight" binding:"omitempty,gte=0,lte=1"`
}

func (r queryRequest) topK() int {
	if r.TopK == nil {
		return appconfig.DefaultRetrievalTopK
	}
	return *r.TopK
}

func (r queryRequest) metric() string {
	if r.Metric == "" {
		return appconfig.DefaultRetrievalMetric
	}
	return r.Metric
}

func (r queryRequest) weight() float64 {
	if r.Weight == nil {
		return appconfig.DefaultRetrievalWeight
	}
	return *r.Weight
}

type topChunk struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float32        `json:"score"`
}

type answerResponse struct {
	Query     string     `json:"query"`
	Answer    *string    `json:"answer"`
	TopChunks []topChunk `json:"top_chunks"`
}

type retrieverResponse struct {
	Query     string     `json:"query"`
	Answer    *string    `json:"answer"`
	Retriever string     `json:"retriever"`
	TopK      int        `json:"top_k"`
	Metric    string     `json:"metric,omitempty"`
	Weight    *float64   `json:"weight,omitempty"`
	TopChunks []topChunk `json:"top_chunks"`
}

func (s *Server) handleAnswer(c *gin.Context) {
	var req simpleQueryRequest
	if !bind(c, &req) {
		return
	}
	res, ok := s.retrieve(c, rag.Query{
		Kind:   rag.KindVector,
		Query:  req.Query,
		TopK:   appconfig.DefaultRetrievalTopK,
		Metric: appconfig.DefaultRetrievalMetric,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, answerResponse{
		Query:     req.Query,
		Answer:    res.Answer,
		TopChunks: toTopChunks(res.Chunks),
	})
}

func (s *Server) handleBM25(c *gin.Context) {
	var req queryRequest
	if !bind(c, &req) {
		return
	}
	res, ok := s.retrieve(c, rag.Query{Kind: rag.KindBM25, Query: req.Query, TopK: req.topK()})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, retrieverResponse{
		Query:     req.Query,
		Answer:    res.Answer,
		Retriever: string(rag.KindBM25),
		TopK:      req.topK(),
		TopChunks: toTopChunks(res.Chunks),
	})
}

func (s *Server) handleVector(c *gin.Context) {
	var req queryRequest
	if !bind(c, &req) {
		return
	}
	res, ok := s.retrieve(c, rag.Query{Kind: rag.KindVector, Query: req.Query, TopK: req.topK(), Metric: req.metric()})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, retrieverResponse{
		Query:     req.Query,
		Answer:    res.Answer,
		Retriever: string(rag.KindVector),
		TopK:      req.topK(),
		Metric:    req.metric(),
		TopChunks: toTopChunks(res.Chunks),
	})
}

func (s *Server) handleHybrid(c *gin.Context) {
	var req queryRequest
	if !bind(c, &req) {
		return
	}
	weight := req.weight()
	res, ok := s.retrieve(c, rag.Query{
		Kind:   rag.KindHybrid,
		Query:  req.Query,
		TopK:   req.topK(),
		Metric: req.metric(),
		Weight: &weight,
	})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, retrieverResponse{
		Query:     req.Query,
		Answer:    res.Answer,
		Retriever: string(rag.KindHybrid),
		TopK:      req.topK(),
		Metric:    req.metric(),
		Weight:    &weight,
		TopChunks: toTopChunks(res.Chunks),
	})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) retrieve(c *gin.Context, q rag.Query) (rag.Result, bool) {
	res, err := s.retriever.Retrieve(c.Request.Context(), q)
	if err == nil {
		return res, true
	}
	if errors.Is(err, rag.ErrEmptyQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return rag.Result{}, false
	}
	logging.LogEvent("[HTTP] %s retrieval failed request_id=%s: %v", q.Kind, c.GetString(requestIDKey), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	return rag.Result{}, false
}

func toTopChunks(docs []schema.Document) []topChunk {
	out := make([]topChunk, 0, len(docs))
	for _, d := range docs {
		meta := d.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		out = append(out, topChunk{Content: d.PageContent, Metadata: meta, Score: d.Score})
	}
	return out
}
