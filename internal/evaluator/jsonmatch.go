// internal/evaluator/jsonmatch.go
package evaluator

import (
	"encoding/json"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/kaptinlin/jsonrepair"
)

// Repairer turns malformed JSON-like text into strict JSON.
type Repairer interface {
	Repair(text string) (string, error)
}

// RepairFunc adapts a plain function to the Repairer interface.
type RepairFunc func(text string) (string, error)

// Repair implements Repairer.
func (f RepairFunc) Repair(text string) (string, error) { return f(text) }

// DefaultRepairer is backed by jsonrepair, which tolerates single quotes,
// missing quotes, trailing commas and truncated input.
var DefaultRepairer Repairer = RepairFunc(jsonrepair.JSONRepair)

// MatchJSON parses the response (falling back to the repairer) and compares
// it structurally with expected. The parsed value is always reported.
func MatchJSON(response string, expected any, repairer Repairer) (bool, Meta) {
	parsed, ok := parseLenient(response, repairer)
	if !ok || parsed == nil {
		return false, Meta{"parsed": nil}
	}

	meta := Meta{"parsed": parsed}
	want := NormalizeJSON(expected)
	got := NormalizeJSON(parsed)
	if diff := cmp.Diff(want, got); diff != "" {
		meta["diff"] = diff
		return false, meta
	}
	return true, meta
}

func parseLenient(text string, repairer Repairer) (any, bool) {
	if v, err := decodeStrict(text); err == nil {
		return v, true
	}
	if repairer == nil {
		return nil, false
	}
	repaired, err := repairer.Repair(text)
	if err != nil || strings.TrimSpace(repaired) == "" {
		return nil, false
	}
	v, err := decodeStrict(repaired)
	if err != nil {
		return nil, false
	}
	return v, true
}

func decodeStrict(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return v, nil
}
