// internal/evaluator/sqlmatch.go
package evaluator

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// MatchSQL runs the response query and the reference query against a fresh
// in-memory SQLite fixture and compares the two result sets as multisets.
// Setup and reference-query failures are returned as errors because they
// indicate a broken test case rather than a wrong answer.
func MatchSQL(ctx context.Context, response string, validation *SQLValidation) (bool, Meta, error) {
	if validation == nil {
		return false, nil, errors.New("sql_validation is missing")
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return false, nil, fmt.Errorf("open fixture database: %w", err)
	}
	defer db.Close()
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("acquire fixture connection: %w", err)
	}
	defer conn.Close()

	for i, stmt := range validation.Setup {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return false, nil, fmt.Errorf("fixture setup statement %d: %w", i+1, err)
		}
	}

	query := StripCodeFences(response)
	respRows, err := queryRows(ctx, conn, query)
	if err != nil {
		return false, errorMeta("%v", err), nil
	}

	refRows, err := queryRows(ctx, conn, validation.ReferenceQuery)
	if err != nil {
		return false, nil, fmt.Errorf("reference query: %w", err)
	}

	meta := Meta{"resp_rows": respRows, "ref_rows": refRows}
	return sameRowMultiset(respRows, refRows), meta, nil
}

func queryRows(ctx context.Context, conn *sql.Conn, query string) ([][]any, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("empty query")
	}
	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := [][]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func sameRowMultiset(a, b [][]any) bool {
	if len(a) != len(b) {
		return false
	}
	left := sortedRows(a)
	right := sortedRows(b)
	for i := range left {
		if compareRows(left[i], right[i]) != 0 {
			return false
		}
	}
	return true
}

func sortedRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return compareRows(out[i], out[j]) < 0
	})
	return out
}

func compareRows(a, b []any) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Storage classes in SQLite's sort order.
const (
	classNull = iota
	classNumeric
	classText
	classBlob
)

func storageClass(v any) int {
	switch v.(type) {
	case nil:
		return classNull
	case int64, int, int32, float64, float32, bool:
		return classNumeric
	case string:
		return classText
	case []byte:
		return classBlob
	default:
		return classText
	}
}

// compareValues orders two scanned column values the way SQLite does:
// NULL < INTEGER/REAL < TEXT < BLOB, with numbers compared by value.
func compareValues(a, b any) int {
	ca, cb := storageClass(a), storageClass(b)
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}
	switch ca {
	case classNull:
		return 0
	case classNumeric:
		return compareNumbers(a, b)
	case classBlob:
		return bytes.Compare(a.([]byte), b.([]byte))
	default:
		return strings.Compare(textOf(a), textOf(b))
	}
}

func compareNumbers(a, b any) int {
	ai, aInt := asInt(a)
	bi, bInt := asInt(b)
	if aInt && bInt {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	af, bf := asFloat(a), asFloat(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	case math.IsNaN(af) && !math.IsNaN(bf):
		return -1
	case !math.IsNaN(af) && math.IsNaN(bf):
		return 1
	}
	return 0
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	}
	i, _ := asInt(v)
	return float64(i)
}

func textOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
