// internal/evaluator/exact.go
package evaluator

// MatchExact compares the response and expectation after text normalization.
func MatchExact(response, expected string) bool {
	return NormalizeText(response) == NormalizeText(expected)
}
