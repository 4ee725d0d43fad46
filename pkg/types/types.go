package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metric names one tracked engagement counter
type Metric string

const (
	Likes    Metric = "likes"
	Comments Metric = "comments"
	Shares   Metric = "shares"
)

// Metrics lists the tracked metrics in column order
var Metrics = []Metric{Likes, Comments, Shares}

// ParseMetric validates a metric name
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case Likes, Comments, Shares:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// HourlyPoint represents one hourly engagement count
type HourlyPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// EngagementSeries is a contiguous hourly series for a single metric
type EngagementSeries struct {
	Metric Metric        `json:"metric"`
	Points []HourlyPoint `json:"points"`
}

// Len returns the number of hourly points
func (s EngagementSeries) Len() int {
	return len(s.Points)
}

// CombinedRecord is one hour of all three metrics
type CombinedRecord struct {
	Timestamp time.Time
	Likes     float64
	Comments  float64
	Shares    float64
}

// Value returns the column for a metric
func (r CombinedRecord) Value(m Metric) (float64, bool) {
	switch m {
	case Likes:
		return r.Likes, true
	case Comments:
		return r.Comments, true
	case Shares:
		return r.Shares, true
	}
	return 0, false
}

// Set assigns the column for a metric
func (r *CombinedRecord) Set(m Metric, v float64) bool {
	switch m {
	case Likes:
		r.Likes = v
	case Comments:
		r.Comments = v
	case Shares:
		r.Shares = v
	default:
		return false
	}
	return true
}

// LegacyTimeLayout is the timestamp layout of the legacy dataset files
const LegacyTimeLayout = "2006-01-02 15:04"

type recordJSON struct {
	Timestamp string  `json:"timestamp"`
	Likes     float64 `json:"likes"`
	Comments  float64 `json:"comments"`
	Shares    float64 `json:"shares"`
}

// MarshalJSON encodes the record with an RFC 3339 timestamp
func (r CombinedRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Timestamp: r.Timestamp.Format(time.RFC3339),
		Likes:     r.Likes,
		Comments:  r.Comments,
		Shares:    r.Shares,
	})
}

// UnmarshalJSON accepts RFC 3339 and the legacy "2006-01-02 15:04" layout
func (r *CombinedRecord) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return err
	}

	*r = CombinedRecord{
		Timestamp: ts,
		Likes:     raw.Likes,
		Comments:  raw.Comments,
		Shares:    raw.Shares,
	}
	return nil
}

// ParseTimestamp parses RFC 3339 or the legacy layout (as UTC)
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(LegacyTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return ts, nil
}

// Column extracts one metric as an engagement series
func Column(records []CombinedRecord, m Metric) EngagementSeries {
	s := EngagementSeries{Metric: m, Points: make([]HourlyPoint, len(records))}
	for i, r := range records {
		v, _ := r.Value(m)
		s.Points[i] = HourlyPoint{Timestamp: r.Timestamp, Value: v}
	}
	return s
}

// ForecastPoint is one future hour returned by a forecaster
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Estimate  float64   `json:"estimate"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// Comparison pairs an actual test value with its forecast, if any
type Comparison struct {
	Timestamp   time.Time `json:"timestamp"`
	Actual      float64   `json:"actual"`
	HasForecast bool      `json:"has_forecast"`
	Estimate    float64   `json:"estimate,omitempty"`
	Lower       float64   `json:"lower,omitempty"`
	Upper       float64   `json:"upper,omitempty"`
}

// EvaluationResult holds the accuracy of one (variant, metric) evaluation
type EvaluationResult struct {
	RunID       string          `json:"run_id"`
	Variant     string          `json:"variant"`
	Metric      Metric          `json:"metric"`
	MAE         float64         `json:"mae"`
	RMSE        float64         `json:"rmse"`
	Coverage    float64         `json:"coverage"`
	Compared    int             `json:"compared"`
	Forecast    []ForecastPoint `json:"forecast,omitempty"`
	Comparisons []Comparison    `json:"comparisons,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Failed reports whether the evaluation did not complete
func (r EvaluationResult) Failed() bool {
	return r.Error != ""
}

// Report collects the results of one evaluation run
type Report struct {
	RunID      string             `json:"run_id"`
	CreatedAt  time.Time          `json:"created_at"`
	TrainHours int                `json:"train_hours"`
	TestHours  int                `json:"test_hours"`
	Confidence float64            `json:"confidence"`
	Results    []EvaluationResult `json:"results"`
}

// Failures counts failed entries
func (r Report) Failures() int {
	n := 0
	for _, res := range r.Results {
		if res.Failed() {
			n++
		}
	}
	return n
}
