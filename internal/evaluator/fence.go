// internal/evaluator/fence.go
package evaluator

import (
	"regexp"
	"strings"
)

// codeFence matches ``` plus an optional language tag such as sql or python.
// A tag only counts when the line ends after it, so a one-line fence like
// ```SELECT 1``` keeps its first word.
var codeFence = regexp.MustCompile("(?i)```(?:[a-z0-9_+#.-]*[ \t]*\r?\n)?")

// StripCodeFences removes markdown fence markers and trims the result.
func StripCodeFences(text string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
}
