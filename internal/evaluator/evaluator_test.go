package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "   ", want: ""},
		{in: "Hello", want: "hello"},
		{in: "  Hello \n\t World  ", want: "hello world"},
		{in: "A  B\r\nC", want: "a b c"},
		{in: "a\u00a0b", want: "a b"},
		{in: "a\vb", want: "a b"},
		{in: "A\u2003\u2003B", want: "a b"},
	}
	for _, tc := range cases {
		got := NormalizeText(tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
		assert.Equal(t, got, NormalizeText(got), "normalization must be idempotent for %q", tc.in)
	}
}

func TestNormalizeJSONIgnoresArrayOrder(t *testing.T) {
	permutations := []string{
		`[3, 1, {"b": [2, 1], "a": "x"}, "z"]`,
		`["z", {"a": "x", "b": [1, 2]}, 1, 3]`,
		`[{"b": [1, 2], "a": "x"}, 3, "z", 1]`,
	}
	var first any
	for i, raw := range permutations {
		var v any
		require.NoError(t, json.Unmarshal([]byte(raw), &v))
		got := NormalizeJSON(v)
		if i == 0 {
			first = got
			continue
		}
		assert.Equal(t, first, got, "permutation %d", i)
	}
}

func TestNormalizeJSONScalarsPassThrough(t *testing.T) {
	assert.Equal(t, 1.5, NormalizeJSON(1.5))
	assert.Equal(t, "x", NormalizeJSON("x"))
	assert.Nil(t, NormalizeJSON(nil))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "SELECT x FROM t", StripCodeFences("```sql\nSELECT x FROM t\n```"))
	assert.Equal(t, "SELECT 1", StripCodeFences("```SQL\nSELECT 1\n```"))
	assert.Equal(t, "def f(x):\n    return x", StripCodeFences("```python\ndef f(x):\n    return x\n```"))
	assert.Equal(t, "plain", StripCodeFences("  plain  "))
	assert.Equal(t, "SELECT x FROM t", StripCodeFences("```SELECT x FROM t```"))
	assert.Equal(t, "SELECT 1", StripCodeFences("```sql  \r\nSELECT 1\r\n```"))
}

func TestMatchSQLOneLineFence(t *testing.T) {
	ok, meta, err := MatchSQL(context.Background(), "```SELECT x FROM t```", sqlFixture())
	require.NoError(t, err)
	assert.True(t, ok, "meta: %v", meta)
}

func TestMatchExactIgnoresWhitespaceKind(t *testing.T) {
	assert.True(t, MatchExact("a\u00a0b", "a b"))
	assert.True(t, MatchExact("a\vB", "A b"))
}

func sqlFixture() *SQLValidation {
	return &SQLValidation{
		Setup:          []string{"CREATE TABLE t(x INT)", "INSERT INTO t VALUES (1),(2)"},
		ReferenceQuery: "SELECT x FROM t ORDER BY x",
	}
}

func TestMatchSQLIgnoresRowOrder(t *testing.T) {
	ok, meta, err := MatchSQL(context.Background(), "```sql\nSELECT x FROM t\n```", sqlFixture())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, [][]any{{int64(1)}, {int64(2)}}, meta["ref_rows"])
	assert.Len(t, meta["resp_rows"], 2)

	ok, _, err = MatchSQL(context.Background(), "SELECT x FROM t ORDER BY x DESC", sqlFixture())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchSQLFailsOnDifferentRows(t *testing.T) {
	ok, meta, err := MatchSQL(context.Background(), "SELECT x FROM t WHERE x=1", sqlFixture())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, [][]any{{int64(1)}}, meta["resp_rows"])
}

func TestMatchSQLBadQueryIsResponseFailure(t *testing.T) {
	ok, meta, err := MatchSQL(context.Background(), "SELECT nope FROM missing", sqlFixture())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, meta, "error")
	assert.NotContains(t, meta, "ref_rows")
}

func TestMatchSQLFixtureErrorsPropagate(t *testing.T) {
	broken := &SQLValidation{Setup: []string{"CREATE TABLE"}, ReferenceQuery: "SELECT 1"}
	_, _, err := MatchSQL(context.Background(), "SELECT 1", broken)
	require.Error(t, err)

	badRef := sqlFixture()
	badRef.ReferenceQuery = "SELECT y FROM nowhere"
	_, _, err = MatchSQL(context.Background(), "SELECT x FROM t", badRef)
	require.Error(t, err)
}

func TestMatchSQLFixturesAreIsolated(t *testing.T) {
	_, _, err := MatchSQL(context.Background(), "SELECT x FROM t", sqlFixture())
	require.NoError(t, err)

	// A second evaluation must not see the table created by the first.
	fresh := &SQLValidation{ReferenceQuery: "SELECT 1"}
	ok, meta, err := MatchSQL(context.Background(), "SELECT x FROM t", fresh)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, meta, "error")
}

func TestCompareValuesFollowsSQLiteOrdering(t *testing.T) {
	assert.Negative(t, compareValues(nil, int64(0)))
	assert.Negative(t, compareValues(int64(5), "a"))
	assert.Negative(t, compareValues("z", []byte("a")))
	assert.Zero(t, compareValues(int64(1), 1.0))
	assert.Positive(t, compareValues(2.5, int64(2)))
	assert.Negative(t, compareRows([]any{int64(1)}, []any{int64(1), int64(0)}))
}

func TestMatchJSONRepairsMalformedInput(t *testing.T) {
	ok, meta := MatchJSON("{'a':1,}", map[string]any{"a": 1.0}, DefaultRepairer)
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1.0}, meta["parsed"])
}

func TestMatchJSONIgnoresArrayOrder(t *testing.T) {
	expected := map[string]any{"tags": []any{"a", "b"}, "n": 2.0}
	ok, meta := MatchJSON(`{"n": 2, "tags": ["b", "a"]}`, expected, DefaultRepairer)
	assert.True(t, ok)
	assert.NotContains(t, meta, "diff")

	ok, meta = MatchJSON(`{"n": 3, "tags": ["b", "a"]}`, expected, DefaultRepairer)
	assert.False(t, ok)
	assert.Contains(t, meta, "parsed")
	assert.Contains(t, meta, "diff")
}

func TestMatchJSONUnrepairable(t *testing.T) {
	failing := RepairFunc(func(string) (string, error) { return "", errors.New("cannot repair") })
	ok, meta := MatchJSON("definitely not json", map[string]any{}, failing)
	assert.False(t, ok)
	assert.Contains(t, meta, "parsed")
	assert.Nil(t, meta["parsed"])
}

func doubleValidation(forbid ...string) *PythonValidation {
	return &PythonValidation{
		ForbidTokens: forbid,
		Tests: []FunctionIO{
			{Input: json.RawMessage(`2`), Expected: json.RawMessage(`4`)},
			{Input: json.RawMessage(`5`), Expected: json.RawMessage(`10`)},
		},
	}
}

func TestCodeSandboxPasses(t *testing.T) {
	ok, meta := CodeSandbox{}.Match("```python\ndef double(x):\n    return x*2\n```", "double", doubleValidation())
	require.True(t, ok, "meta: %v", meta)
	results, _ := meta["results"].([]TestOutcome)
	require.Len(t, results, 2)
	assert.Equal(t, int64(4), results[0].Output)
	assert.True(t, results[1].OK)
}

func TestCodeSandboxFailsFast(t *testing.T) {
	ok, meta := CodeSandbox{}.Match("def double(x): return x*3", "double", doubleValidation())
	assert.False(t, ok)
	results, _ := meta["results"].([]TestOutcome)
	require.Len(t, results, 1, "only the first failing test is reported")
	assert.False(t, results[0].OK)
	assert.Equal(t, int64(6), results[0].Output)
}

func TestCodeSandboxForbiddenTokenGate(t *testing.T) {
	code := "import os\ndef double(x):\n    return x*2"
	ok, meta := CodeSandbox{}.Match(code, "double", doubleValidation("import os"))
	assert.False(t, ok)
	assert.Equal(t, "Forbidden token found: import os", meta["error"])
	assert.NotContains(t, meta, "results")
}

func TestCodeSandboxDiagnostics(t *testing.T) {
	cases := []struct {
		name string
		code string
		want string
	}{
		{name: "syntax error", code: "def double(x) return x", want: "Code execution failed: "},
		{name: "missing function", code: "def triple(x):\n    return x*3", want: "Function 'double' not found"},
		{name: "not a function", code: "double = 4", want: "'double' is not a function"},
		{name: "no builtins available", code: "x = open('f')", want: "Code execution failed: "},
		{name: "runtime error", code: "def double(x):\n    return x // 0", want: "Test failed on input 2: "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, meta := CodeSandbox{}.Match(tc.code, "double", doubleValidation())
			assert.False(t, ok)
			msg, _ := meta["error"].(string)
			assert.Contains(t, msg, tc.want)
		})
	}
}

func TestCodeSandboxStructuredValues(t *testing.T) {
	validation := &PythonValidation{Tests: []FunctionIO{
		{Input: json.RawMessage(`[3, 1, 2]`), Expected: json.RawMessage(`[1, 2, 3]`)},
		{Input: json.RawMessage(`{"a": 1}`), Expected: json.RawMessage(`["a"]`)},
	}}
	code := "def f(x):\n    if x == {\"a\": 1}:\n        return x.keys()\n    return x[1:] + x[:1]\n"
	ok, meta := CodeSandbox{}.Match(code, "f", validation)
	assert.True(t, ok, "meta: %v", meta)
}

func TestCodeSandboxHidesBuiltins(t *testing.T) {
	validation := &PythonValidation{Tests: []FunctionIO{
		{Input: json.RawMessage(`[1, 2]`), Expected: json.RawMessage(`2`)},
	}}
	ok, meta := CodeSandbox{}.Match("def f(x):\n    return len(x)\n", "f", validation)
	assert.False(t, ok)
	assert.Equal(t, "Test failed on input [1,2]: name 'len' is not defined", meta["error"])

	ok, meta = CodeSandbox{}.Match("def f(x):\n    if x == None or x == True:\n        return 0\n    return x[1]\n", "f", validation)
	assert.True(t, ok, "constants stay visible: %v", meta)
}

func TestCodeSandboxStepLimit(t *testing.T) {
	validation := &PythonValidation{Tests: []FunctionIO{{Input: json.RawMessage(`1`), Expected: json.RawMessage(`1`)}}}
	code := "def spin(x):\n    while True:\n        x = x + 1\n    return x\n"
	ok, meta := CodeSandbox{MaxSteps: 10000}.Match(code, "spin", validation)
	assert.False(t, ok)
	assert.Contains(t, meta["error"], "Test failed on input 1")
}

func TestEvaluateDispatch(t *testing.T) {
	ev := New()
	ctx := context.Background()

	ok, meta, err := ev.Evaluate(ctx, "  PARIS ", TestCase{MatchType: MatchTypeExact, Expected: "paris"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, meta)

	ok, _, err = ev.Evaluate(ctx, "paris", TestCase{MatchType: "fuzzy", Expected: "Paris"})
	require.NoError(t, err)
	assert.True(t, ok, "unknown match types fall back to exact")

	ok, _, err = ev.Evaluate(ctx, "paris", TestCase{Expected: "Paris"})
	require.NoError(t, err)
	assert.True(t, ok, "absent match type falls back to exact")

	ok, _, err = ev.Evaluate(ctx, "SELECT x FROM t", TestCase{MatchType: MatchTypeSQL, SQLValidation: sqlFixture()})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, meta, err = ev.Evaluate(ctx, `{"a": 1}`, TestCase{MatchType: MatchTypeJSON, ExpectedJSON: map[string]any{"a": 1.0}})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, meta, "parsed")

	ok, _, err = ev.Evaluate(ctx, "def double(x):\n    return x*2", TestCase{
		MatchType:            MatchTypeExecutablePython,
		ExpectedFunctionName: "double",
		PythonValidation:     doubleValidation(),
	})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCaseIDAcceptsNumbersAndStrings(t *testing.T) {
	var cases []TestCase
	require.NoError(t, json.Unmarshal([]byte(`[{"id": 7, "prompt": "a"}, {"id": "q-2", "prompt": "b"}]`), &cases))
	assert.Equal(t, CaseID("7"), cases[0].ID)
	assert.Equal(t, CaseID("q-2"), cases[1].ID)
	assert.Equal(t, []string{"a"}, cases[0].Prompts())
}
