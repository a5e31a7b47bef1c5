// internal/server/server.go
// Package server exposes the retrieval service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/rag"
)

// ServiceName identifies the retrieval API in traces.
const ServiceName = "palm-retrieval"

const shutdownTimeout = 10 * time.Second

// Retriever answers retrieval queries. *rag.Service satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, q rag.Query) (rag.Result, error)
}

// Options toggles the optional parts of the server.
type Options struct {
	Tracing     bool
	TraceWriter io.Writer
	Profiling   bool
}

// Server wires the retrieval routes onto a gin engine.
type Server struct {
	router        *gin.Engine
	retriever     Retriever
	traceShutdown func(context.Context) error
}

// New builds the router. The retriever must be fully initialised; it is
// shared by every request.
func New(retriever Retriever, opts Options) (*Server, error) {
	if retriever == nil {
		return nil, errors.New("server: retriever is nil")
	}

	s := &Server{router: gin.New(), retriever: retriever}
	s.router.Use(gin.Recovery(), requestID(), observeRequests())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, requestIDHeader)
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	s.router.Use(cors.New(corsConfig))

	if opts.Tracing {
		shutdown, err := setupTracing(ServiceName, opts.TraceWriter)
		if err != nil {
			return nil, err
		}
		s.traceShutdown = shutdown
		s.router.Use(otelgin.Middleware(ServiceName))
	}

	s.routes(opts)
	return s, nil
}

func (s *Server) routes(opts Options) {
	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Retrieval API is running successfully."})
	})
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	retriever := s.router.Group("/retriever")
	{
		retriever.POST("/answer", s.handleAnswer)
		retriever.POST("/bm25", s.handleBM25)
		retriever.POST("/vector", s.handleVector)
		retriever.POST("/hybrid", s.handleHybrid)
	}

	if opts.Profiling {
		s.router.GET("/debug/pprof/*name", profileHandler)
	}
}

// Handler returns the HTTP handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("[HTTP] Retrieval API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("serve %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.LogEvent("[HTTP] Shutting down retrieval API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var result *multierror.Error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := s.Close(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Close flushes the trace exporter, if tracing is enabled.
func (s *Server) Close(ctx context.Context) error {
	if s.traceShutdown == nil {
		return nil
	}
	shutdown := s.traceShutdown
	s.traceShutdown = nil
	if err := shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}
