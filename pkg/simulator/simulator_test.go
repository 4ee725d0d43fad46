package simulator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjranagit/engagesim/pkg/curve"
	"github.com/vjranagit/engagesim/pkg/types"
)

var testStart = time.Date(2025, 4, 17, 15, 45, 0, 0, time.UTC)

func dailyParams() Parameters {
	return Parameters{
		Metric:     types.Likes,
		Peak:       1000,
		NoiseLevel: 0.2,
		Noise:      NoiseAdditive,
		Floor:      1,
		Cycle: &curve.DailyCycle{
			Window:   curve.ActiveWindow{Start: 9, End: 23},
			NightMin: 0.1,
		},
		Lifecycle: curve.Lifecycle{Shape: curve.ShapePlateauDecay, PlateauHours: 72, DecayRate: 1.2},
	}
}

func TestSimulateShapeOfSeries(t *testing.T) {
	s, err := Simulate(testStart, 336, dailyParams(), Seeded(7)("likes"))
	require.NoError(t, err)
	require.Equal(t, 336, s.Len())
	assert.Equal(t, types.Likes, s.Metric)

	for i, p := range s.Points {
		assert.True(t, p.Timestamp.Equal(testStart.Add(time.Duration(i)*time.Hour)), "point %d", i)
		assert.GreaterOrEqual(t, p.Value, 1.0)
		assert.Equal(t, math.Trunc(p.Value), p.Value, "point %d is not a count", i)
	}
}

func TestSimulateFloors(t *testing.T) {
	for _, floor := range []float64{1, 3, 5} {
		p := dailyParams()
		p.Floor = floor
		p.Noise = NoiseMultiplicative
		p.NoiseLevel = 0.5

		s, err := Simulate(testStart, 336, p, Seeded(3)("x"))
		require.NoError(t, err)
		for _, pt := range s.Points {
			require.GreaterOrEqual(t, pt.Value, floor)
		}
	}
}

func TestSimulateDeterministicWithSeed(t *testing.T) {
	a, err := Simulate(testStart, 336, dailyParams(), Seeded(42)("likes"))
	require.NoError(t, err)
	b, err := Simulate(testStart, 336, dailyParams(), Seeded(42)("likes"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Simulate(testStart, 336, dailyParams(), Seeded(43)("likes"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Points, c.Points)

	// same envelope: mean of the plateau within 15% across seeds
	meanA, meanC := plateauMean(a), plateauMean(c)
	assert.InEpsilon(t, meanA, meanC, 0.15)
}

func plateauMean(s types.EngagementSeries) float64 {
	sum := 0.0
	for _, p := range s.Points[:72] {
		sum += p.Value
	}
	return sum / 72
}

func TestSimulateEmptyDuration(t *testing.T) {
	for _, d := range []int{0, -5} {
		s, err := Simulate(testStart, d, dailyParams(), nil)
		require.NoError(t, err)
		assert.Empty(t, s.Points)
	}
}

func TestSimulateRejectsInvalidParameters(t *testing.T) {
	p := dailyParams()
	p.Peak = 0
	_, err := Simulate(testStart, 24, p, Seeded(1)("x"))
	assert.Error(t, err)

	_, err = Simulate(testStart, 24, dailyParams(), nil)
	assert.ErrorIs(t, err, ErrNilSource)
}

func TestSimulateNoNoiseMatchesExpected(t *testing.T) {
	p := Parameters{
		Metric:    types.Comments,
		Peak:      150,
		Noise:     NoiseAdditive,
		Floor:     1,
		Lifecycle: curve.Lifecycle{Shape: curve.ShapeRampDecay, PeakHours: 3.5, DecayRate: 0.4, OffsetHours: 0.5},
	}

	s, err := Simulate(testStart, 48, p, Seeded(1)("comments"))
	require.NoError(t, err)
	expected := Expected(testStart, 48, p)
	require.Len(t, expected, 48)

	for i := range expected {
		assert.Equal(t, math.Max(1, math.Round(expected[i].Value)), s.Points[i].Value, "hour %d", i)
	}
	// peak at 3.5h offset by 0.5h lands on hour 3
	assert.Equal(t, 150.0, s.Points[3].Value)
}

func TestScaleRatio(t *testing.T) {
	p := dailyParams()
	p.Scale = 0.3
	assert.InDelta(t, 300, p.EffectivePeak(), 1e-9)

	p.Scale = 0
	assert.InDelta(t, 1000, p.EffectivePeak(), 1e-9)
}

func TestSeededSourcesDifferByKey(t *testing.T) {
	src := Seeded(9)
	a := src("likes").Float64()
	b := src("comments").Float64()
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, src("likes").Float64())

	scoped := src.Scoped("noisy")
	assert.Equal(t, src("noisy/likes").Float64(), scoped("likes").Float64())
}

func TestParseNoiseMode(t *testing.T) {
	m, err := ParseNoiseMode("Multiplicative")
	require.NoError(t, err)
	assert.Equal(t, NoiseMultiplicative, m)
	assert.Equal(t, "additive", NoiseAdditive.String())

	_, err = ParseNoiseMode("pink")
	assert.Error(t, err)
}
