package simulator

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vjranagit/engagesim/pkg/curve"
	"github.com/vjranagit/engagesim/pkg/types"
)

// NoiseMode selects how Gaussian noise combines with the base value
type NoiseMode int

const (
	// NoiseAdditive adds N(0, peak*level)
	NoiseAdditive NoiseMode = iota + 1
	// NoiseMultiplicative scales by 1+N(0, level)
	NoiseMultiplicative
)

func (m NoiseMode) String() string {
	switch m {
	case NoiseAdditive:
		return "additive"
	case NoiseMultiplicative:
		return "multiplicative"
	}
	return fmt.Sprintf("noise(%d)", int(m))
}

// ParseNoiseMode converts a mode name into a NoiseMode
func ParseNoiseMode(name string) (NoiseMode, error) {
	switch strings.ToLower(name) {
	case "additive":
		return NoiseAdditive, nil
	case "multiplicative":
		return NoiseMultiplicative, nil
	}
	return 0, fmt.Errorf("unknown noise mode %q", name)
}

// ErrNilSource is returned when Simulate gets no noise source
var ErrNilSource = errors.New("simulator: nil noise source")

// Parameters configures the simulation of one metric
type Parameters struct {
	Metric types.Metric

	// Peak is the engagement at full daily and lifecycle multipliers.
	Peak float64
	// Scale is an optional ratio against Peak (comments at 0.3 of likes).
	// Zero means 1.
	Scale float64

	// NoiseLevel is the standard deviation as a fraction of the peak
	// (additive) or of the base value (multiplicative).
	NoiseLevel float64
	Noise      NoiseMode

	// Floor is the smallest emitted count.
	Floor float64

	// Cycle is nil for series without an hour-of-day pattern.
	Cycle     *curve.DailyCycle
	Lifecycle curve.Lifecycle
}

// EffectivePeak is Peak after the scaling ratio
func (p Parameters) EffectivePeak() float64 {
	if p.Scale == 0 {
		return p.Peak
	}
	return p.Peak * p.Scale
}

// Validate checks the parameters before a run
func (p Parameters) Validate() error {
	if _, err := types.ParseMetric(string(p.Metric)); err != nil {
		return err
	}
	if p.Peak <= 0 {
		return fmt.Errorf("%s: peak must be positive", p.Metric)
	}
	if p.Scale < 0 {
		return fmt.Errorf("%s: scale must be non-negative", p.Metric)
	}
	if p.NoiseLevel < 0 {
		return fmt.Errorf("%s: noise level must be non-negative", p.Metric)
	}
	if p.Noise != NoiseAdditive && p.Noise != NoiseMultiplicative {
		return fmt.Errorf("%s: unknown noise mode %v", p.Metric, p.Noise)
	}
	if p.Floor < 1 {
		return fmt.Errorf("%s: floor must be at least 1", p.Metric)
	}
	if p.Cycle != nil {
		if err := p.Cycle.Validate(); err != nil {
			return fmt.Errorf("%s: %w", p.Metric, err)
		}
	}
	if err := p.Lifecycle.Validate(); err != nil {
		return fmt.Errorf("%s: %w", p.Metric, err)
	}
	return nil
}

// Simulate produces durationHours hourly counts starting at start.
// A non-positive duration yields an empty series.
func Simulate(start time.Time, durationHours int, p Parameters, src Source) (types.EngagementSeries, error) {
	series := types.EngagementSeries{Metric: p.Metric}
	if durationHours <= 0 {
		return series, nil
	}
	if err := p.Validate(); err != nil {
		return series, err
	}
	if src == nil {
		return series, ErrNilSource
	}

	peak := p.EffectivePeak()
	series.Points = make([]types.HourlyPoint, durationHours)

	for h := 0; h < durationHours; h++ {
		ts := start.Add(time.Duration(h) * time.Hour)

		daily := 1.0
		if p.Cycle != nil {
			daily = p.Cycle.Multiplier(ts.Hour(), src)
		}
		base := peak * daily * p.Lifecycle.Multiplier(float64(h))

		var value float64
		switch p.Noise {
		case NoiseAdditive:
			value = base + src.NormFloat64()*peak*p.NoiseLevel
		case NoiseMultiplicative:
			value = base * (1 + src.NormFloat64()*p.NoiseLevel)
		}

		series.Points[h] = types.HourlyPoint{
			Timestamp: ts,
			Value:     math.Max(p.Floor, math.Round(value)),
		}
	}

	return series, nil
}

// Expected returns the noise-free curve: no Gaussian noise, night hours at
// their mean multiplier, no rounding or floor.
func Expected(start time.Time, durationHours int, p Parameters) []types.HourlyPoint {
	if durationHours <= 0 {
		return nil
	}

	peak := p.EffectivePeak()
	points := make([]types.HourlyPoint, durationHours)
	for h := 0; h < durationHours; h++ {
		ts := start.Add(time.Duration(h) * time.Hour)
		daily := 1.0
		if p.Cycle != nil {
			daily = p.Cycle.Expected(ts.Hour())
		}
		points[h] = types.HourlyPoint{
			Timestamp: ts,
			Value:     peak * daily * p.Lifecycle.Multiplier(float64(h)),
		}
	}
	return points
}
