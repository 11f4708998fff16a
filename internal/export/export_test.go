package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/arvena/talentd/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	records := []query.Record{
		{"name": "Sofia Andersson", "stage": "interview", "score": 8.0},
		{"name": "Liang, Wei", "stage": "applied", "score": 6.5},
		{"name": "Pat \"PJ\" O'Neill", "stage": "hired", "score": nil},
	}

	var buf bytes.Buffer
	err := Write(&buf, FormatCSV, []string{"name", "stage", "score"}, records)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"name", "stage", "score"}, rows[0])
	assert.Equal(t, []string{"Sofia Andersson", "interview", "8"}, rows[1])
	// commas and quotes survive the round trip
	assert.Equal(t, "Liang, Wei", rows[2][0])
	assert.Equal(t, "6.5", rows[2][2])
	assert.Equal(t, `Pat "PJ" O'Neill`, rows[3][0])
	assert.Equal(t, "", rows[3][2])
}

func TestWriteCSVDerivedHeader(t *testing.T) {
	records := []query.Record{
		{"b": "2", "a": "1"},
		{"c": "3"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, nil, records))

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"1", "2", ""}, rows[1])
	assert.Equal(t, []string{"", "", "3"}, rows[2])
}

func TestWriteJSON(t *testing.T) {
	records := []query.Record{{"name": "Sofia", "score": 8}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, nil, records))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Sofia", decoded[0]["name"])
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, nil, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestWriteUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Format("xml"), nil, nil)
	require.Error(t, err)
	assert.False(t, Format("xml").Valid())
	assert.True(t, FormatCSV.Valid())
}
