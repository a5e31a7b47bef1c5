// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers"
)

// Provider is a decorator that wraps a ChatProvider to record metrics.
type Provider struct {
	wrapped    providers.ChatProvider
	aggregator *Aggregator
}

// NewProvider creates a new metrics-enabled provider that wraps an existing ChatProvider.
// A nil aggregator records Prometheus metrics only.
func NewProvider(wrapped providers.ChatProvider, aggregator *Aggregator) *Provider {
	logging.LogEvent("[METRICS] Wrapping provider with metrics provider")
	return &Provider{wrapped: wrapped, aggregator: aggregator}
}

// Complete times the wrapped call and records its outcome.
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	start := time.Now()
	completion, err := p.wrapped.Complete(ctx, req)
	elapsed := time.Since(start)

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	ModelCalls.WithLabelValues(req.Model, outcome).Inc()
	ModelCallDuration.WithLabelValues(req.Model).Observe(elapsed.Seconds())
	if p.aggregator != nil {
		p.aggregator.Record(req.Model, completion, elapsed, err)
	}
	return completion, err
}

// Aggregator returns the aggregator receiving call statistics, if any.
func (p *Provider) Aggregator() *Aggregator {
	return p.aggregator
}

// Close passes the call through to the wrapped provider.
func (p *Provider) Close() error {
	return p.wrapped.Close()
}
