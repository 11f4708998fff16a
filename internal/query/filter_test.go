package query

import (
	"testing"

	"github.com/arvena/talentd/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterPreservesOrder(t *testing.T) {
	records := []Record{
		{"name": "Avery", "score": 10},
		{"name": "Blake", "score": 3},
		{"name": "Casey", "score": 7},
		{"name": "Drew", "score": 1},
	}

	got := Filter(records, func(r Record) bool {
		s, _ := toFloat(r["score"])
		return s >= 5
	})

	require.Len(t, got, 2)
	assert.Equal(t, "Avery", got[0]["name"])
	assert.Equal(t, "Casey", got[1]["name"])
}

func TestFilterIsMonotonic(t *testing.T) {
	// narrowing the predicate can only shrink the result set
	records := []Record{
		{"stage": "applied"}, {"stage": "applied"},
		{"stage": "interview"}, {"stage": "hired"},
	}

	loose := Filter(records, func(r Record) bool { return r["stage"] != "hired" })
	tight := Filter(records, func(r Record) bool {
		return r["stage"] != "hired" && r["stage"] != "interview"
	})
	assert.LessOrEqual(t, len(tight), len(loose))
	assert.LessOrEqual(t, len(loose), len(records))
}

func TestSearch(t *testing.T) {
	records := []Record{
		{"name": "Sofia Andersson", "company": "Northwind"},
		{"name": "Liang Wei", "company": "Acme Robotics"},
		{"name": "Pat O'Neill", "company": "acme logistics"},
	}

	assert.Len(t, Search(records, "acme"), 2)
	assert.Len(t, Search(records, "ACME"), 2)
	assert.Len(t, Search(records, "sofia"), 1)
	assert.Len(t, Search(records, "zzz"), 0)
	assert.Len(t, Search(records, "  "), 3)
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		op       models.Operator
		actual   interface{}
		expected interface{}
		want     bool
	}{
		{"equals string", models.OpEquals, "applied", "applied", true},
		{"equals mismatch", models.OpEquals, "applied", "hired", false},
		{"equals numeric cross-type", models.OpEquals, 5, 5.0, true},
		{"equals numeric string", models.OpEquals, "5", 5, true},
		{"equals both nil", models.OpEquals, nil, nil, true},
		{"equals one nil", models.OpEquals, nil, "x", false},
		{"greater_than", models.OpGreaterThan, 10, 5, true},
		{"greater_than equal", models.OpGreaterThan, 5, 5, false},
		{"greater_than non-numeric", models.OpGreaterThan, "abc", 5, false},
		{"less_than", models.OpLessThan, 3.5, 4, true},
		{"contains", models.OpContains, "Senior Engineer", "engineer", true},
		{"contains miss", models.OpContains, "Senior Engineer", "designer", false},
		{"contains non-string actual", models.OpContains, 12345, "234", true},
		{"not_empty string", models.OpNotEmpty, "x", nil, true},
		{"not_empty blank", models.OpNotEmpty, "   ", nil, false},
		{"not_empty nil", models.OpNotEmpty, nil, nil, false},
		{"not_empty zero is set", models.OpNotEmpty, 0, nil, true},
		{"not_empty empty list", models.OpNotEmpty, []interface{}{}, nil, false},
		{"unknown operator", models.Operator("regex"), "a", "a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.op, tt.actual, tt.expected))
		})
	}
}

func TestEvaluateAll(t *testing.T) {
	record := Record{"stage": "interview", "score": 8, "notes": "strong"}

	conds := []models.RuleCondition{
		{Field: "stage", Operator: models.OpEquals, Value: "interview"},
		{Field: "score", Operator: models.OpGreaterThan, Value: 5},
	}
	assert.True(t, EvaluateAll(record, conds))

	conds = append(conds, models.RuleCondition{
		Field: "notes", Operator: models.OpEquals, Value: "weak",
	})
	assert.False(t, EvaluateAll(record, conds))

	assert.True(t, EvaluateAll(record, nil))

	// missing field fails any positive condition
	assert.False(t, EvaluateAll(record, []models.RuleCondition{
		{Field: "missing", Operator: models.OpNotEmpty},
	}))
}
