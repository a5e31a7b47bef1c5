// internal/evaluator/normalize.go
package evaluator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// NormalizeText collapses Unicode whitespace runs to a single space, trims
// and lowercases.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeJSON canonicalizes a decoded JSON value so that array order does
// not affect equality. Arrays are sorted by the serialized form of their
// normalized elements; map keys are already unordered.
func NormalizeJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = NormalizeJSON(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		keys := make([]string, len(val))
		for i, item := range val {
			out[i] = NormalizeJSON(item)
			keys[i] = canonicalKey(out[i])
		}
		idx := make([]int, len(out))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return keys[idx[a]] < keys[idx[b]]
		})
		sorted := make([]any, len(out))
		for i, j := range idx {
			sorted[i] = out[j]
		}
		return sorted
	default:
		return v
	}
}

// canonicalKey serializes a value with sorted object keys. encoding/json
// already sorts map keys, which is all the canonical form needs.
func canonicalKey(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
