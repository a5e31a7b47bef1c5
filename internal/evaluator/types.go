// internal/evaluator/types.go
package evaluator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Match types understood by Evaluate. Any other value falls back to exact.
const (
	MatchTypeExact            = "exact"
	MatchTypeSQL              = "sql"
	MatchTypeJSON             = "json"
	MatchTypeExecutablePython = "executable_python"
)

// CaseID accepts either a JSON string or a JSON number.
type CaseID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *CaseID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = CaseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("case id must be a string or number: %w", err)
	}
	*id = CaseID(n.String())
	return nil
}

// TestCase is a single evaluation fixture loaded from the cases file.
type TestCase struct {
	ID                   CaseID            `json:"id"`
	Title                string            `json:"title,omitempty"`
	Type                 string            `json:"type,omitempty"`
	Prompt               string            `json:"prompt"`
	Variants             []string          `json:"variants,omitempty"`
	MatchType            string            `json:"match_type,omitempty"`
	Expected             string            `json:"expected,omitempty"`
	SQLValidation        *SQLValidation    `json:"sql_validation,omitempty"`
	ExpectedJSON         any               `json:"expected_json,omitempty"`
	PythonValidation     *PythonValidation `json:"python_validation,omitempty"`
	ExpectedFunctionName string            `json:"expected_function_name,omitempty"`
}

// Prompts returns the primary prompt followed by its variants.
func (tc TestCase) Prompts() []string {
	prompts := make([]string, 0, 1+len(tc.Variants))
	prompts = append(prompts, tc.Prompt)
	return append(prompts, tc.Variants...)
}

// SQLValidation holds the fixture statements and the reference query.
type SQLValidation struct {
	Setup          []string `json:"setup"`
	ReferenceQuery string   `json:"reference_query"`
}

// PythonValidation holds the static token denylist and the function tests.
type PythonValidation struct {
	ForbidTokens []string     `json:"forbid_tokens"`
	Tests        []FunctionIO `json:"tests"`
}

// FunctionIO is one input/expected pair. Values are kept raw so integers
// and floats survive until they are converted for the interpreter.
type FunctionIO struct {
	Input    json.RawMessage `json:"input"`
	Expected json.RawMessage `json:"expected"`
}

// Meta is the structured diagnostic returned alongside a match verdict.
type Meta map[string]any

func errorMeta(format string, args ...any) Meta {
	return Meta{"error": fmt.Sprintf(format, args...)}
}

// rawString renders a raw JSON value compactly for diagnostics.
func rawString(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
