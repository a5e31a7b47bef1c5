package rag

import (
	"fmt"
	"math"
	"strings"
)

// Metric names a vector similarity measure.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
	MetricDot    Metric = "dot"
)

// ParseMetric resolves a metric name. An empty name means cosine.
func ParseMetric(name string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(name))); m {
	case "":
		return MetricCosine, nil
	case MetricCosine, MetricL2, MetricDot:
		return m, nil
	default:
		return "", fmt.Errorf("unknown metric %q (want cosine, l2 or dot)", name)
	}
}

// higherIsBetter reports the ranking direction of the metric's score.
func (m Metric) higherIsBetter() bool {
	return m != MetricL2
}

// score compares a query vector with a document vector. Cosine expects both
// vectors to be unit length already.
func (m Metric) score(query, doc []float32) float64 {
	switch m {
	case MetricL2:
		return l2Distance(query, doc)
	default:
		return dot(query, doc)
	}
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func l2Distance(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func vectorNorm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

// normalize returns a unit-length copy of v; zero vectors are copied as is.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	norm := vectorNorm(v)
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, val := range v {
		out[i] = float32(float64(val) / norm)
	}
	return out
}
