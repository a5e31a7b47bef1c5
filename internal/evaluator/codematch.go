// internal/evaluator/codematch.go
package evaluator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
)

func init() {
	// Submitted solutions are ordinary Python-style functions; loops and
	// recursion are expected. The resolver only reads these as process-wide
	// flags, and the sandbox is the only Starlark user in this binary, so
	// they are set once here.
	resolve.AllowRecursion = true
	resolve.AllowGlobalReassign = true
	resolve.AllowSet = true
}

// hiddenBuiltins shadows every built-in function of the Starlark universe
// with a stub that fails like an undefined name. Predeclared names resolve
// before universe names. None, True and False are constants and stay visible.
var hiddenBuiltins = func() starlark.StringDict {
	hidden := make(starlark.StringDict, len(starlark.Universe))
	for name, value := range starlark.Universe {
		if _, ok := value.(*starlark.Builtin); !ok {
			continue
		}
		hidden[name] = starlark.NewBuiltin(name, undefinedName)
	}
	return hidden
}()

func undefinedName(_ *starlark.Thread, b *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return nil, fmt.Errorf("name '%s' is not defined", b.Name())
}

// CodeSandbox executes submitted function definitions in a hermetic
// Starlark interpreter. Built-in functions are hidden, load is disabled and
// print output is discarded, so the code can only use what it defines itself.
type CodeSandbox struct {
	// MaxSteps bounds interpreter work per evaluation; zero means unbounded.
	MaxSteps uint64
}

// TestOutcome records one function invocation.
type TestOutcome struct {
	Input    json.RawMessage `json:"input"`
	Expected json.RawMessage `json:"expected"`
	Output   any             `json:"output"`
	OK       bool            `json:"ok"`
}

// Match gates the response on forbidden tokens, executes it, and runs the
// declared tests against funcName, stopping at the first failure.
func (s CodeSandbox) Match(response string, funcName string, validation *PythonValidation) (bool, Meta) {
	if validation == nil {
		return false, errorMeta("python_validation is missing")
	}
	code := StripCodeFences(response)

	for _, token := range validation.ForbidTokens {
		if token != "" && strings.Contains(code, token) {
			return false, errorMeta("Forbidden token found: %s", token)
		}
	}

	thread := s.newThread()
	globals, err := starlark.ExecFile(thread, "submission.py", code, hiddenBuiltins)
	if err != nil {
		return false, errorMeta("Code execution failed: %s", describeError(err))
	}

	bound, ok := globals[funcName]
	if !ok {
		return false, errorMeta("Function '%s' not found", funcName)
	}
	fn, ok := bound.(*starlark.Function)
	if !ok {
		return false, errorMeta("'%s' is not a function", funcName)
	}

	results := make([]TestOutcome, 0, len(validation.Tests))
	for _, test := range validation.Tests {
		input, err := starlarkFromJSON(test.Input)
		if err != nil {
			return false, errorMeta("Test failed on input %s: invalid input: %v", rawString(test.Input), err)
		}
		expected, err := starlarkFromJSON(test.Expected)
		if err != nil {
			return false, errorMeta("Test failed on input %s: invalid expected value: %v", rawString(test.Input), err)
		}

		output, err := starlark.Call(thread, fn, starlark.Tuple{input}, nil)
		if err != nil {
			return false, errorMeta("Test failed on input %s: %s", rawString(test.Input), describeError(err))
		}
		equal, err := starlark.Equal(output, expected)
		if err != nil {
			equal = false
		}

		results = append(results, TestOutcome{
			Input:    test.Input,
			Expected: test.Expected,
			Output:   goFromStarlark(output),
			OK:       equal,
		})
		if !equal {
			return false, Meta{"results": results}
		}
	}

	return true, Meta{"results": results}
}

func (s CodeSandbox) newThread() *starlark.Thread {
	thread := &starlark.Thread{
		Name:  "submission",
		Print: func(*starlark.Thread, string) {},
	}
	if s.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(s.MaxSteps)
	}
	return thread
}

func describeError(err error) string {
	if evalErr, ok := err.(*starlark.EvalError); ok {
		return evalErr.Msg
	}
	return err.Error()
}

// starlarkFromJSON decodes a raw JSON value into an interpreter value,
// keeping integers distinct from floats.
func starlarkFromJSON(raw json.RawMessage) (starlark.Value, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return starlark.None, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return toStarlark(v)
}

func toStarlark(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(val), nil
	case string:
		return starlark.String(val), nil
	case json.Number:
		return numberToStarlark(val)
	case []any:
		elems := make([]starlark.Value, 0, len(val))
		for _, item := range val {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, err
			}
			elems = append(elems, sv)
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dict := starlark.NewDict(len(val))
		for _, k := range keys {
			sv, err := toStarlark(val[k])
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported JSON value %T", v)
	}
}

func numberToStarlark(n json.Number) (starlark.Value, error) {
	text := n.String()
	if !strings.ContainsAny(text, ".eE") {
		if i, err := n.Int64(); err == nil {
			return starlark.MakeInt64(i), nil
		}
		b, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", text)
		}
		return starlark.MakeBigInt(b), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return starlark.Float(f), nil
}

// goFromStarlark converts an interpreter value into something encoding/json
// can render in diagnostics.
func goFromStarlark(v starlark.Value) any {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(val)
	case starlark.String:
		return string(val)
	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return i
		}
		return val.String()
	case starlark.Float:
		return float64(val)
	case *starlark.List:
		out := make([]any, 0, val.Len())
		for i := 0; i < val.Len(); i++ {
			out = append(out, goFromStarlark(val.Index(i)))
		}
		return out
	case starlark.Tuple:
		out := make([]any, 0, len(val))
		for _, item := range val {
			out = append(out, goFromStarlark(item))
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key := item[0].String()
			if s, ok := item[0].(starlark.String); ok {
				key = string(s)
			}
			out[key] = goFromStarlark(item[1])
		}
		return out
	default:
		return v.String()
	}
}
