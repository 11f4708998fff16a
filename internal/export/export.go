// Package export serializes record sets for download as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/arvena/talentd/internal/query"
)

// Format identifies an export serialization
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Valid reports whether the format is supported
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatJSON
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/json"
}

// Write serializes the records to w in the requested format. Column order
// for CSV follows the given header list; a nil header derives columns from
// the union of record keys, sorted.
func Write(w io.Writer, format Format, header []string, records []query.Record) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, header, records)
	case FormatJSON:
		return writeJSON(w, records)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func writeCSV(w io.Writer, header []string, records []query.Record) error {
	if header == nil {
		header = deriveHeader(records)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, r := range records {
		for i, col := range header {
			row[i] = cellString(r[col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, records []query.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if records == nil {
		records = []query.Record{}
	}
	return enc.Encode(records)
}

func deriveHeader(records []query.Record) []string {
	seen := map[string]bool{}
	var header []string
	for _, r := range records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	sort.Strings(header)
	return header
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		// avoid 3.000000 noise for JSON-decoded integers
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
