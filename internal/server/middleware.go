// internal/server/middleware.go
package server

import (
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// observeRequests records latency for every request and counts responses
// with status >= 400.
func observeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		status := c.Writer.Status()
		code := strconv.Itoa(status)
		elapsed := time.Since(start)

		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint, code).Observe(elapsed.Seconds())
		if status >= http.StatusBadRequest {
			metrics.HTTPRequestErrors.WithLabelValues(c.Request.Method, endpoint, code).Inc()
			logging.LogEvent("[HTTP] %s %s -> %d in %s request_id=%s", c.Request.Method, c.Request.URL.Path, status, elapsed.Truncate(time.Microsecond), c.GetString(requestIDKey))
			return
		}
		logging.LogDebug("%s %s -> %d in %s request_id=%s", c.Request.Method, c.Request.URL.Path, status, elapsed.Truncate(time.Microsecond), c.GetString(requestIDKey))
	}
}

// profileHandler serves the runtime profiles under /debug/pprof/.
func profileHandler(c *gin.Context) {
	switch strings.TrimPrefix(c.Param("name"), "/") {
	case "cmdline":
		pprof.Cmdline(c.Writer, c.Request)
	case "profile":
		pprof.Profile(c.Writer, c.Request)
	case "symbol":
		pprof.Symbol(c.Writer, c.Request)
	case "trace":
		pprof.Trace(c.Writer, c.Request)
	default:
		pprof.Index(c.Writer, c.Request)
	}
}
