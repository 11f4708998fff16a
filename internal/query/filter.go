// Package query provides in-memory filtering and predicate evaluation over
// record maps. It backs both list-endpoint filtering and the automation rule
// engine's condition checks; all helpers preserve input order and never
// mutate their inputs.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arvena/talentd/internal/models"
)

// Record is a generic row shape: field key to value
type Record map[string]interface{}

// Predicate decides whether a record passes a filter
type Predicate func(Record) bool

// Filter returns the records matching the predicate, preserving input order
func Filter(records []Record, pred Predicate) []Record {
	if pred == nil {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Search matches records whose string fields contain the term,
// case-insensitive. An empty term matches everything.
func Search(records []Record, term string) []Record {
	term = strings.TrimSpace(strings.ToLower(term))
	if term == "" {
		return records
	}
	return Filter(records, func(r Record) bool {
		for _, v := range r {
			s, ok := v.(string)
			if ok && strings.Contains(strings.ToLower(s), term) {
				return true
			}
		}
		return false
	})
}

// Matches applies a comparison operator to an actual value from a record and
// an expected value from a condition. Unknown operators and incomparable
// values evaluate false rather than erroring; a filter that cannot decide
// does not match.
func Matches(op models.Operator, actual, expected interface{}) bool {
	switch op {
	case models.OpEquals:
		return equals(actual, expected)
	case models.OpGreaterThan:
		a, aok := toFloat(actual)
		b, bok := toFloat(expected)
		return aok && bok && a > b
	case models.OpLessThan:
		a, aok := toFloat(actual)
		b, bok := toFloat(expected)
		return aok && bok && a < b
	case models.OpContains:
		return strings.Contains(
			strings.ToLower(toString(actual)),
			strings.ToLower(toString(expected)),
		)
	case models.OpNotEmpty:
		return !isEmpty(actual)
	}
	return false
}

// EvaluateAll reports whether a record satisfies every condition. An empty
// condition list is vacuously true.
func EvaluateAll(record Record, conditions []models.RuleCondition) bool {
	for _, c := range conditions {
		if !Matches(c.Operator, record[c.Field], c.Value) {
			return false
		}
	}
	return true
}

func equals(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	// numeric comparison first so 5 == 5.0 == "5" behaves sanely across
	// JSON-decoded values
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return toString(a) == toString(b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}
