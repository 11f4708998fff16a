// Package analytics aggregates candidate and contact records in memory for
// dashboard summaries. Grouping sorts by count descending with first-seen
// order breaking ties; records with a missing group key land in an "Unknown"
// bucket so totals always reconcile.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/arvena/talentd/internal/query"
)

// UnknownBucket labels the group for records without a usable key
const UnknownBucket = "Unknown"

// Bucket is one group in an aggregation result
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// GroupByKey groups records on a field, counting per distinct value.
// Results sort count descending; ties keep the order the keys first
// appeared in the input. Nil or blank keys bucket under "Unknown".
func GroupByKey(records []query.Record, field string) []Bucket {
	counts := make(map[string]int)
	var order []string

	for _, r := range records {
		key := keyString(r[field])
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	buckets := make([]Bucket, 0, len(order))
	for _, key := range order {
		buckets = append(buckets, Bucket{Key: key, Count: counts[key]})
	}
	// insertion sort keeps first-seen order within equal counts
	for i := 1; i < len(buckets); i++ {
		for j := i; j > 0 && buckets[j].Count > buckets[j-1].Count; j-- {
			buckets[j], buckets[j-1] = buckets[j-1], buckets[j]
		}
	}
	return buckets
}

// CountWhere counts the records matching a predicate
func CountWhere(records []query.Record, pred query.Predicate) int {
	return len(query.Filter(records, pred))
}

// GroupByMonth groups records by the calendar month of a timestamp field.
// Values may be time.Time or ISO-8601 strings; anything unparseable buckets
// under "Unknown".
func GroupByMonth(records []query.Record, field string) []Bucket {
	keyed := make([]query.Record, 0, len(records))
	for _, r := range records {
		keyed = append(keyed, query.Record{"month": MonthBucket(r[field])})
	}
	return GroupByKey(keyed, "month")
}

// MonthBucket renders a timestamp value as "January 2026". It accepts
// time.Time and common ISO-8601 string layouts; it never panics and returns
// "Unknown" for anything it cannot read.
func MonthBucket(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return UnknownBucket
		}
		return t.Format("January 2006")
	case *time.Time:
		if t == nil || t.IsZero() {
			return UnknownBucket
		}
		return t.Format("January 2006")
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return UnknownBucket
		}
		for _, layout := range []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
			"2006-01",
		} {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.Format("January 2006")
			}
		}
	}
	return UnknownBucket
}

// Summary is the dashboard roll-up over candidates and contacts
type Summary struct {
	TotalCandidates int      `json:"total_candidates"`
	TotalContacts   int      `json:"total_contacts"`
	ByStage         []Bucket `json:"by_stage"`
	ByCompany       []Bucket `json:"by_company"`
	ByMonth         []Bucket `json:"by_month"`
}

// BuildSummary computes the full dashboard summary in one pass
func BuildSummary(candidates, contacts []query.Record) Summary {
	return Summary{
		TotalCandidates: len(candidates),
		TotalContacts:   len(contacts),
		ByStage:         GroupByKey(candidates, "stage"),
		ByCompany:       GroupByKey(contacts, "company"),
		ByMonth:         GroupByMonth(candidates, "created_at"),
	}
}

func keyString(v interface{}) string {
	if v == nil {
		return UnknownBucket
	}
	if s, ok := v.(string); ok {
		if strings.TrimSpace(s) == "" {
			return UnknownBucket
		}
		return s
	}
	return fmt.Sprintf("%v", v)
}
