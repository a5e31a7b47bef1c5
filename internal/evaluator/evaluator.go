// internal/evaluator/evaluator.go

// Package evaluator scores a single model response against a test case using
// the strategy named by the case's match_type.
package evaluator

import "context"

// Evaluator dispatches responses to the exact, SQL, JSON and code matchers.
type Evaluator struct {
	Repairer Repairer
	Sandbox  CodeSandbox
}

// New returns an Evaluator using the default JSON repairer.
func New() *Evaluator {
	return &Evaluator{Repairer: DefaultRepairer}
}

// Evaluate scores resp against tc. The returned error is reserved for broken
// fixtures (SQL setup or reference query failures); every response-level
// problem is reported as a failed match with a diagnostic.
func (e *Evaluator) Evaluate(ctx context.Context, resp string, tc TestCase) (bool, Meta, error) {
	switch tc.MatchType {
	case MatchTypeExact:
		return MatchExact(resp, tc.Expected), Meta{}, nil
	case MatchTypeSQL:
		return MatchSQL(ctx, resp, tc.SQLValidation)
	case MatchTypeExecutablePython:
		ok, meta := e.Sandbox.Match(resp, tc.ExpectedFunctionName, tc.PythonValidation)
		return ok, meta, nil
	case MatchTypeJSON:
		ok, meta := MatchJSON(resp, tc.ExpectedJSON, e.repairer())
		return ok, meta, nil
	default:
		return MatchExact(resp, tc.Expected), Meta{}, nil
	}
}

func (e *Evaluator) repairer() Repairer {
	if e.Repairer == nil {
		return DefaultRepairer
	}
	return e.Repairer
}
