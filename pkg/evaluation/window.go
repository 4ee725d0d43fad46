package evaluation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vjranagit/engagesim/pkg/types"
)

// ErrInsufficientData matches every InsufficientDataError
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError reports a split that does not fit the series
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d hours, need %d", e.Have, e.Need)
}

// Is makes errors.Is(err, ErrInsufficientData) hold
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// ErrNonFiniteForecast matches every NonFiniteForecastError
var ErrNonFiniteForecast = errors.New("non-finite forecast")

// NonFiniteForecastError reports a forecast point with a NaN or infinite
// estimate or bound
type NonFiniteForecastError struct {
	Timestamp time.Time
	Field     string
	Value     float64
}

func (e *NonFiniteForecastError) Error() string {
	return fmt.Sprintf("non-finite forecast %s %v at %s", e.Field, e.Value, e.Timestamp.Format(time.RFC3339))
}

// Is makes errors.Is(err, ErrNonFiniteForecast) hold
func (e *NonFiniteForecastError) Is(target error) bool {
	return target == ErrNonFiniteForecast
}

func checkFinite(points []types.ForecastPoint) error {
	for _, p := range points {
		for _, f := range []struct {
			name  string
			value float64
		}{{"estimate", p.Estimate}, {"lower", p.Lower}, {"upper", p.Upper}} {
			if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
				return &NonFiniteForecastError{Timestamp: p.Timestamp, Field: f.name, Value: f.value}
			}
		}
	}
	return nil
}

// Window is a train prefix and the test hours that directly follow it
type Window struct {
	Train []types.CombinedRecord
	Test  []types.CombinedRecord
}

// Split takes the first trainHours records for training and the next
// testHours for testing. Trailing records are unused.
func Split(records []types.CombinedRecord, trainHours, testHours int) (Window, error) {
	need := trainHours + testHours
	if trainHours <= 0 || testHours <= 0 || need > len(records) {
		return Window{}, &InsufficientDataError{Have: len(records), Need: need}
	}
	return Window{
		Train: records[:trainHours],
		Test:  records[trainHours:need],
	}, nil
}

// Clip floors estimates and lower bounds at zero. Upper bounds are kept.
func Clip(points []types.ForecastPoint) []types.ForecastPoint {
	out := make([]types.ForecastPoint, len(points))
	for i, p := range points {
		p.Estimate = math.Max(0, p.Estimate)
		p.Lower = math.Max(0, p.Lower)
		out[i] = p
	}
	return out
}

// Join pairs every test hour with the forecast for the same timestamp.
// Hours without a forecast stay in the result with HasForecast unset.
func Join(test []types.CombinedRecord, m types.Metric, forecast []types.ForecastPoint) []types.Comparison {
	byTime := make(map[int64]types.ForecastPoint, len(forecast))
	for _, p := range forecast {
		byTime[p.Timestamp.Unix()] = p
	}

	out := make([]types.Comparison, len(test))
	for i, r := range test {
		actual, _ := r.Value(m)
		c := types.Comparison{Timestamp: r.Timestamp, Actual: actual}
		if p, ok := byTime[r.Timestamp.Unix()]; ok {
			c.HasForecast = true
			c.Estimate = p.Estimate
			c.Lower = p.Lower
			c.Upper = p.Upper
		}
		out[i] = c
	}
	return out
}

// MAE is the mean absolute error over joined pairs, with the pair count.
// It is NaN when no pair has a forecast.
func MAE(comparisons []types.Comparison) (float64, int) {
	sum, n := 0.0, 0
	for _, c := range comparisons {
		if !c.HasForecast {
			continue
		}
		sum += math.Abs(c.Actual - c.Estimate)
		n++
	}
	if n == 0 {
		return math.NaN(), 0
	}
	return sum / float64(n), n
}

// RMSE is the root mean squared error over joined pairs
func RMSE(comparisons []types.Comparison) (float64, int) {
	sum, n := 0.0, 0
	for _, c := range comparisons {
		if !c.HasForecast {
			continue
		}
		d := c.Actual - c.Estimate
		sum += d * d
		n++
	}
	if n == 0 {
		return math.NaN(), 0
	}
	return math.Sqrt(sum / float64(n)), n
}

// Coverage is the share of joined actuals inside [Lower, Upper]
func Coverage(comparisons []types.Comparison) float64 {
	inside, n := 0, 0
	for _, c := range comparisons {
		if !c.HasForecast {
			continue
		}
		if c.Actual >= c.Lower && c.Actual <= c.Upper {
			inside++
		}
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return float64(inside) / float64(n)
}
