// internal/harness/types.go
package harness

import (
	"context"
	"time"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/evaluator"
)

// ErrorResponsePrefix marks a response that stands in for a failed model call.
const ErrorResponsePrefix = "[ERROR_CALL_MODEL]"

// ModelCaller sends one prompt to the model and returns the extracted answer.
type ModelCaller interface {
	CallModel(ctx context.Context, prompt string) (string, error)
}

// ModelCallerFunc adapts a function to ModelCaller.
type ModelCallerFunc func(ctx context.Context, prompt string) (string, error)

// CallModel implements ModelCaller.
func (f ModelCallerFunc) CallModel(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ResponseRecord is the outcome of one model call.
type ResponseRecord struct {
	PromptUsed  string
	RawResponse string
	Latency     time.Duration
}

// PromptRecord groups the responses collected for one prompt.
type PromptRecord struct {
	Prompt    string    `json:"prompt"`
	Responses []string  `json:"responses"`
	Latencies []float64 `json:"latencies"`
}

// Detail is the verdict for one response.
type Detail struct {
	Response string         `json:"response"`
	Pass     bool           `json:"pass"`
	Meta     evaluator.Meta `json:"meta"`
}

// CaseResult aggregates every response collected for one test case.
type CaseResult struct {
	ID               evaluator.CaseID `json:"id"`
	Title            string           `json:"title"`
	Type             string           `json:"type"`
	NumPromptsTested int              `json:"num_prompts_tested"`
	NumRunsTotal     int              `json:"num_runs_total"`
	UniqueOutputs    int              `json:"unique_outputs"`
	ModeResponse     string           `json:"mode_response"`
	ModeCount        int              `json:"mode_count"`
	Consistency      float64          `json:"consistency"`
	PassRate         float64          `json:"pass_rate"`
	AvgLatencySec    float64          `json:"avg_latency_s"`
	PerPrompt        []PromptRecord   `json:"per_prompt"`
	Details          []Detail         `json:"details"`
}

// RunSummary holds the run-wide totals.
type RunSummary struct {
	RunID           string    `json:"run_id"`
	Model           string    `json:"model,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	Cases           int       `json:"cases"`
	TotalRuns       int       `json:"total_runs"`
	Passes          int       `json:"passes"`
	OverallPassRate float64   `json:"overall_pass_rate"`
}

// Report is the document written to the output file.
type Report struct {
	Summary RunSummary   `json:"summary"`
	Results []CaseResult `json:"results"`
}
