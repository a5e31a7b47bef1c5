// internal/metrics/aggregator.go
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/providers"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/util"
)

// Aggregator collects per-model call statistics for the lifetime of a run.
type Aggregator struct {
	mutex   sync.Mutex
	metrics map[string]*ModelMetrics
	now     func() time.Time
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		metrics: make(map[string]*ModelMetrics),
		now:     time.Now,
	}
}

// Record updates the metrics for model with the outcome of one call.
func (a *Aggregator) Record(model string, completion providers.Completion, elapsed time.Duration, callErr error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	modelMetrics, exists := a.metrics[model]
	if !exists {
		modelMetrics = &ModelMetrics{ModelName: model}
		a.metrics[model] = modelMetrics
	}
	modelMetrics.LastUpdatedUTC = a.now().UTC()

	updateStats(&modelMetrics.OverallStats, completion, elapsed, callErr)
	if callErr != nil {
		return
	}

	bucket := getBucket(completion.PromptTokens)
	for i := range modelMetrics.PerformanceBuckets {
		if modelMetrics.PerformanceBuckets[i].Dimension == "prompt_tokens" && modelMetrics.PerformanceBuckets[i].Bucket == bucket {
			updateStats(&modelMetrics.PerformanceBuckets[i].Stats, completion, elapsed, nil)
			return
		}
	}
	newBucket := PerformanceBucket{Dimension: "prompt_tokens", Bucket: bucket}
	updateStats(&newBucket.Stats, completion, elapsed, nil)
	modelMetrics.PerformanceBuckets = append(modelMetrics.PerformanceBuckets, newBucket)
}

// Snapshot returns a copy of the collected metrics ordered by model name.
func (a *Aggregator) Snapshot() []ModelMetrics {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make([]ModelMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		cp := *m
		cp.PerformanceBuckets = append([]PerformanceBucket(nil), m.PerformanceBuckets...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelName < out[j].ModelName })
	return out
}

// Save writes the snapshot to path as indented JSON.
func (a *Aggregator) Save(path string) error {
	logging.LogEvent("[METRICS] Saving metrics to %s", path)
	data, err := json.MarshalIndent(a.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	return util.WriteFileAtomic(path, data)
}

// updateStats updates the running statistics with one call.
func updateStats(stats *RunningAggregatedStats, completion providers.Completion, elapsed time.Duration, callErr error) {
	stats.TotalRequests++
	if callErr != nil {
		stats.FailedRequests++
		return
	}
	updateRunningStat(&stats.LatencyMillis, float64(elapsed.Milliseconds()))

	var tokensPerSecond float64
	if elapsed > 0 {
		tokensPerSecond = float64(completion.CompletionTokens) / elapsed.Seconds()
	}
	updateRunningStat(&stats.TokensPerSecond, tokensPerSecond)
	updateRunningStat(&stats.PromptTokens, float64(completion.PromptTokens))
	updateRunningStat(&stats.CompletionTokens, float64(completion.CompletionTokens))
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// StdDev returns the sample standard deviation.
func (rs RunningStat) StdDev() float64 {
	if rs.Count < 2 {
		return 0
	}
	return math.Sqrt(rs.M2 / float64(rs.Count-1))
}

// getBucket determines the appropriate performance bucket for a given number of prompt tokens.
func getBucket(promptTokens int) string {
	switch {
	case promptTokens <= 256:
		return "0-256"
	case promptTokens <= 1024:
		return "257-1024"
	case promptTokens <= 4096:
		return "1025-4096"
	case promptTokens <= 8192:
		return "4097-8192"
	default:
		return "8192+"
	}
}
