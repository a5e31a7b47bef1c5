// internal/harness/runner.go
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/evaluator"
	"github.com/OmarKhaled0K/PaLM-Tasks/internal/logging"
)

var (
	passLabel = color.New(color.FgGreen).SprintFunc()
	failLabel = color.New(color.FgRed).SprintFunc()
	caseLabel = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Runner sends every prompt of every case to the model Runs times and scores
// the responses. Calls are strictly sequential.
type Runner struct {
	Caller    ModelCaller
	Evaluator *evaluator.Evaluator
	Runs      int
	Model     string
	// Progress receives per-run and per-case lines. Nil disables them.
	Progress io.Writer

	now func() time.Time
}

// NewRunner returns a Runner with the default evaluator.
func NewRunner(caller ModelCaller, runs int) *Runner {
	return &Runner{Caller: caller, Evaluator: evaluator.New(), Runs: runs}
}

// Run evaluates cases in order. It stops at the first fixture error and
// reports the case that caused it.
func (r *Runner) Run(ctx context.Context, cases []evaluator.TestCase) (Report, error) {
	if r.Caller == nil {
		return Report{}, errors.New("harness: no model caller configured")
	}
	if r.Runs < 1 {
		return Report{}, fmt.Errorf("harness: runs must be at least 1, got %d", r.Runs)
	}

	summary := RunSummary{
		RunID:     uuid.NewString(),
		Model:     r.Model,
		StartedAt: r.clock().UTC(),
	}
	logging.LogEvent("[HARNESS] run %s: %d cases, %d runs per prompt, model=%s", summary.RunID, len(cases), r.Runs, r.Model)

	results := make([]CaseResult, 0, len(cases))
	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		result, err := r.RunCase(ctx, tc)
		if err != nil {
			return Report{}, fmt.Errorf("case %s: %w", tc.ID, err)
		}
		results = append(results, result)

		summary.Cases++
		summary.TotalRuns += result.NumRunsTotal
		summary.Passes += countPasses(result.Details)
	}
	if summary.TotalRuns > 0 {
		summary.OverallPassRate = float64(summary.Passes) / float64(summary.TotalRuns)
	}

	return Report{Summary: summary, Results: results}, nil
}

// RunCase collects Runs responses for the case's prompt and each variant and
// scores them.
func (r *Runner) RunCase(ctx context.Context, tc evaluator.TestCase) (CaseResult, error) {
	prompts := tc.Prompts()
	records := make([]ResponseRecord, 0, len(prompts)*r.Runs)
	perPrompt := make([]PromptRecord, 0, len(prompts))

	for _, prompt := range prompts {
		pr := PromptRecord{Prompt: prompt, Responses: []string{}, Latencies: []float64{}}
		for i := 0; i < r.Runs; i++ {
			rec := r.call(ctx, prompt)
			r.printf("[%s] Run %d/%d (live): %s\n", tc.ID, i+1, r.Runs, rec.RawResponse)
			records = append(records, rec)
			pr.Responses = append(pr.Responses, rec.RawResponse)
			pr.Latencies = append(pr.Latencies, rec.Latency.Seconds())
		}
		perPrompt = append(perPrompt, pr)
	}

	responses := make([]string, len(records))
	var totalLatency float64
	for i, rec := range records {
		responses[i] = rec.RawResponse
		totalLatency += rec.Latency.Seconds()
	}
	modeResp, modeCount, unique := stableMode(responses)

	ev := r.Evaluator
	if ev == nil {
		ev = evaluator.New()
	}
	details := make([]Detail, 0, len(responses))
	passes := 0
	for _, resp := range responses {
		ok, meta, err := ev.Evaluate(ctx, resp, tc)
		if err != nil {
			return CaseResult{}, err
		}
		if meta == nil {
			meta = evaluator.Meta{}
		}
		if ok {
			passes++
		}
		details = append(details, Detail{Response: resp, Pass: ok, Meta: meta})
	}

	total := len(responses)
	result := CaseResult{
		ID:               tc.ID,
		Title:            tc.Title,
		Type:             tc.Type,
		NumPromptsTested: len(prompts),
		NumRunsTotal:     total,
		UniqueOutputs:    unique,
		ModeResponse:     modeResp,
		ModeCount:        modeCount,
		Consistency:      ratio(modeCount, total),
		PassRate:         ratio(passes, total),
		PerPrompt:        perPrompt,
		Details:          details,
	}
	if total > 0 {
		result.AvgLatencySec = totalLatency / float64(total)
	}

	status := passLabel("PASS")
	if passes < total {
		status = failLabel("FAIL")
	}
	r.printf("%s %s runs=%d unique=%d consistency=%.2f pass_rate=%.2f avg_latency=%.3fs\n",
		caseLabel(fmt.Sprintf("[%s]", tc.ID)), status, total, unique, result.Consistency, result.PassRate, result.AvgLatencySec)
	return result, nil
}

// call performs one model call. Transport failures become sentinel responses
// so they are scored like any other output.
func (r *Runner) call(ctx context.Context, prompt string) ResponseRecord {
	start := r.clock()
	resp, err := r.Caller.CallModel(ctx, prompt)
	latency := r.clock().Sub(start)
	if err != nil {
		logging.LogEvent("[HARNESS] model call failed: %v", err)
		resp = fmt.Sprintf("%s %v", ErrorResponsePrefix, err)
	}
	return ResponseRecord{PromptUsed: prompt, RawResponse: resp, Latency: latency}
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) printf(format string, args ...any) {
	if r.Progress == nil {
		return
	}
	fmt.Fprintf(r.Progress, format, args...)
}

// stableMode returns the most frequent response, preferring the one seen
// first on ties, its count and the number of distinct responses.
func stableMode(responses []string) (string, int, int) {
	counts := make(map[string]int, len(responses))
	order := make([]string, 0, len(responses))
	for _, resp := range responses {
		if counts[resp] == 0 {
			order = append(order, resp)
		}
		counts[resp]++
	}
	mode, modeCount := "", 0
	for _, resp := range order {
		if counts[resp] > modeCount {
			mode, modeCount = resp, counts[resp]
		}
	}
	return mode, modeCount, len(order)
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func countPasses(details []Detail) int {
	n := 0
	for _, d := range details {
		if d.Pass {
			n++
		}
	}
	return n
}
