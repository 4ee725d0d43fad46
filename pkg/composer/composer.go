package composer

import (
	"errors"
	"fmt"
	"time"

	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/types"
)

// ErrMismatchedSeries matches every MismatchedSeriesLengthError
var ErrMismatchedSeries = errors.New("mismatched series")

// MismatchedSeriesLengthError reports series that cannot be zipped. Index is
// -1 for a length mismatch, otherwise the first disagreeing position.
type MismatchedSeriesLengthError struct {
	Metric types.Metric
	Want   int
	Got    int
	Index  int
}

func (e *MismatchedSeriesLengthError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("series %s has %d points, want %d", e.Metric, e.Got, e.Want)
	}
	return fmt.Sprintf("series %s timestamp at index %d disagrees with the shared axis", e.Metric, e.Index)
}

// Is lets errors.Is match ErrMismatchedSeries
func (e *MismatchedSeriesLengthError) Is(target error) bool {
	return target == ErrMismatchedSeries
}

// Compose simulates every tracked metric over the same hourly range and
// zips the results. params must cover each metric exactly once.
func Compose(start time.Time, durationHours int, params []simulator.Parameters, src simulator.SourceFunc) ([]types.CombinedRecord, error) {
	byMetric := make(map[types.Metric]simulator.Parameters, len(params))
	for _, p := range params {
		if _, dup := byMetric[p.Metric]; dup {
			return nil, fmt.Errorf("metric %s configured twice", p.Metric)
		}
		byMetric[p.Metric] = p
	}

	series := make([]types.EngagementSeries, 0, len(types.Metrics))
	for _, m := range types.Metrics {
		p, ok := byMetric[m]
		if !ok {
			return nil, fmt.Errorf("metric %s is not configured", m)
		}

		s, err := simulator.Simulate(start, durationHours, p, src(string(m)))
		if err != nil {
			return nil, fmt.Errorf("failed to simulate %s: %w", m, err)
		}
		series = append(series, s)
	}
	if len(byMetric) != len(types.Metrics) {
		return nil, fmt.Errorf("%d metrics configured, want %d", len(byMetric), len(types.Metrics))
	}

	return Zip(series...)
}

// Zip joins per-metric series on their shared timestamp axis. The first
// series defines the axis; every other series must match it exactly.
func Zip(series ...types.EngagementSeries) ([]types.CombinedRecord, error) {
	if len(series) == 0 {
		return nil, nil
	}

	axis := series[0].Points
	records := make([]types.CombinedRecord, len(axis))
	for i, p := range axis {
		records[i].Timestamp = p.Timestamp
	}

	for _, s := range series {
		if len(s.Points) != len(axis) {
			return nil, &MismatchedSeriesLengthError{Metric: s.Metric, Want: len(axis), Got: len(s.Points), Index: -1}
		}
		for i, p := range s.Points {
			if !p.Timestamp.Equal(axis[i].Timestamp) {
				return nil, &MismatchedSeriesLengthError{Metric: s.Metric, Want: len(axis), Got: len(s.Points), Index: i}
			}
			if !records[i].Set(s.Metric, p.Value) {
				return nil, fmt.Errorf("unknown metric %q", s.Metric)
			}
		}
	}

	return records, nil
}
