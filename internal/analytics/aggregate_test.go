package analytics

import (
	"testing"
	"time"

	"github.com/arvena/talentd/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByKey(t *testing.T) {
	records := []query.Record{
		{"company": "Northwind"},
		{"company": "Acme"},
		{"company": "Acme"},
		{"company": "Initech"},
		{"company": "Acme"},
		{"company": "Initech"},
	}

	buckets := GroupByKey(records, "company")
	require.Len(t, buckets, 3)
	assert.Equal(t, Bucket{Key: "Acme", Count: 3}, buckets[0])
	assert.Equal(t, Bucket{Key: "Initech", Count: 2}, buckets[1])
	assert.Equal(t, Bucket{Key: "Northwind", Count: 1}, buckets[2])
}

func TestGroupByKeyTieBreaksFirstSeen(t *testing.T) {
	records := []query.Record{
		{"stage": "interview"},
		{"stage": "applied"},
		{"stage": "interview"},
		{"stage": "applied"},
	}

	buckets := GroupByKey(records, "stage")
	require.Len(t, buckets, 2)
	assert.Equal(t, "interview", buckets[0].Key)
	assert.Equal(t, "applied", buckets[1].Key)
}

func TestGroupByKeyUnknownBucket(t *testing.T) {
	records := []query.Record{
		{"company": "Acme"},
		{"company": nil},
		{"company": "  "},
		{"name": "no company field"},
	}

	buckets := GroupByKey(records, "company")
	total := 0
	var unknown *Bucket
	for i := range buckets {
		total += buckets[i].Count
		if buckets[i].Key == UnknownBucket {
			unknown = &buckets[i]
		}
	}
	// totals reconcile and every keyless record is accounted for
	assert.Equal(t, len(records), total)
	require.NotNil(t, unknown)
	assert.Equal(t, 3, unknown.Count)
}

func TestMonthBucket(t *testing.T) {
	jan := time.Date(2026, time.January, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"time value", jan, "January 2026"},
		{"time pointer", &jan, "January 2026"},
		{"rfc3339", "2026-03-02T10:00:00Z", "March 2026"},
		{"date only", "2025-12-31", "December 2025"},
		{"year month", "2025-07", "July 2025"},
		{"space separated", "2026-02-01 08:00:00", "February 2026"},
		{"garbage", "not a date", UnknownBucket},
		{"empty string", "", UnknownBucket},
		{"nil", nil, UnknownBucket},
		{"zero time", time.Time{}, UnknownBucket},
		{"nil pointer", (*time.Time)(nil), UnknownBucket},
		{"wrong type", 42, UnknownBucket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthBucket(tt.in))
		})
	}
}

func TestGroupByMonth(t *testing.T) {
	records := []query.Record{
		{"created_at": "2026-01-05T00:00:00Z"},
		{"created_at": "2026-01-20T00:00:00Z"},
		{"created_at": "2026-02-01T00:00:00Z"},
		{"created_at": "bogus"},
	}

	buckets := GroupByMonth(records, "created_at")
	require.Len(t, buckets, 3)
	assert.Equal(t, Bucket{Key: "January 2026", Count: 2}, buckets[0])

	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	assert.Equal(t, len(records), total)
}

func TestCountWhere(t *testing.T) {
	records := []query.Record{
		{"stage": "applied"}, {"stage": "hired"}, {"stage": "applied"},
	}
	n := CountWhere(records, func(r query.Record) bool { return r["stage"] == "applied" })
	assert.Equal(t, 2, n)
	assert.Equal(t, len(records), CountWhere(records, func(query.Record) bool { return true }))
}

func TestBuildSummary(t *testing.T) {
	candidates := []query.Record{
		{"stage": "applied", "created_at": "2026-01-05"},
		{"stage": "interview", "created_at": "2026-01-10"},
	}
	contacts := []query.Record{
		{"company": "Acme"},
	}

	s := BuildSummary(candidates, contacts)
	assert.Equal(t, 2, s.TotalCandidates)
	assert.Equal(t, 1, s.TotalContacts)
	require.Len(t, s.ByMonth, 1)
	assert.Equal(t, "January 2026", s.ByMonth[0].Key)
}
