package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinedRecordLegacyTimestamp(t *testing.T) {
	data := []byte(`[{"timestamp":"2025-04-17 15:45","likes":431,"comments":112,"shares":89}]`)

	var records []CombinedRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)

	assert.True(t, records[0].Timestamp.Equal(time.Date(2025, 4, 17, 15, 45, 0, 0, time.UTC)))
	assert.Equal(t, 431.0, records[0].Likes)
	assert.Equal(t, 112.0, records[0].Comments)
	assert.Equal(t, 89.0, records[0].Shares)
}

func TestCombinedRecordRejectsBadTimestamp(t *testing.T) {
	var r CombinedRecord
	err := json.Unmarshal([]byte(`{"timestamp":"yesterday"}`), &r)
	assert.Error(t, err)
}

func TestRecordValueAndSet(t *testing.T) {
	var r CombinedRecord
	for i, m := range Metrics {
		require.True(t, r.Set(m, float64(i+1)))
	}

	for i, m := range Metrics {
		v, ok := r.Value(m)
		require.True(t, ok)
		assert.Equal(t, float64(i+1), v)
	}

	_, ok := r.Value("views")
	assert.False(t, ok)
	assert.False(t, r.Set("views", 1))
}

func TestColumn(t *testing.T) {
	start := time.Date(2025, 4, 17, 15, 0, 0, 0, time.UTC)
	records := []CombinedRecord{
		{Timestamp: start, Likes: 10, Comments: 2, Shares: 1},
		{Timestamp: start.Add(time.Hour), Likes: 20, Comments: 4, Shares: 2},
	}

	s := Column(records, Comments)
	assert.Equal(t, Comments, s.Metric)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 4.0, s.Points[1].Value)
	assert.True(t, s.Points[1].Timestamp.Equal(start.Add(time.Hour)))
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("shares")
	require.NoError(t, err)
	assert.Equal(t, Shares, m)

	_, err = ParseMetric("views")
	assert.Error(t, err)
}
