package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vjranagit/engagesim/pkg/types"
)

var (
	// ErrInsufficientHistory is returned when there is too little history to fit
	ErrInsufficientHistory = errors.New("forecast: insufficient history")
	// ErrDegenerateHistory is returned for histories containing NaN or Inf
	ErrDegenerateHistory = errors.New("forecast: degenerate history")
)

// Observation is one historical value of a single metric
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Forecaster fits a single-metric history and forecasts horizonHours
// hourly points after its last timestamp, with bounds at the given
// confidence level.
type Forecaster interface {
	FitAndForecast(ctx context.Context, history []Observation, horizonHours int, confidence float64) ([]types.ForecastPoint, error)
}

// Func adapts a function to the Forecaster interface
type Func func(ctx context.Context, history []Observation, horizonHours int, confidence float64) ([]types.ForecastPoint, error)

// FitAndForecast calls f
func (f Func) FitAndForecast(ctx context.Context, history []Observation, horizonHours int, confidence float64) ([]types.ForecastPoint, error) {
	return f(ctx, history, horizonHours, confidence)
}

// History extracts one metric from combined records
func History(records []types.CombinedRecord, m types.Metric) []Observation {
	out := make([]Observation, len(records))
	for i, r := range records {
		v, _ := r.Value(m)
		out[i] = Observation{Timestamp: r.Timestamp, Value: v}
	}
	return out
}

func validateRequest(history []Observation, horizonHours int, confidence float64) error {
	if horizonHours <= 0 {
		return fmt.Errorf("forecast: horizon must be positive, got %d", horizonHours)
	}
	if confidence <= 0 || confidence >= 1 {
		return fmt.Errorf("forecast: confidence must be in (0, 1), got %g", confidence)
	}
	if len(history) < 2 {
		return fmt.Errorf("%w: %d points", ErrInsufficientHistory, len(history))
	}
	return nil
}
