package composer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjranagit/engagesim/pkg/curve"
	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/types"
)

var start = time.Date(2025, 4, 17, 15, 45, 0, 0, time.UTC)

func params() []simulator.Parameters {
	out := make([]simulator.Parameters, 0, 3)
	for i, m := range types.Metrics {
		out = append(out, simulator.Parameters{
			Metric:     m,
			Peak:       float64(100 * (i + 1)),
			NoiseLevel: 0.1,
			Noise:      simulator.NoiseAdditive,
			Floor:      1,
			Lifecycle:  curve.Lifecycle{Shape: curve.ShapeRampDecay, PeakHours: 4, DecayRate: 0.3},
		})
	}
	return out
}

func TestComposeAlignsMetrics(t *testing.T) {
	records, err := Compose(start, 336, params(), simulator.Seeded(1))
	require.NoError(t, err)
	require.Len(t, records, 336)

	for i, r := range records {
		assert.True(t, r.Timestamp.Equal(start.Add(time.Duration(i)*time.Hour)))
		assert.GreaterOrEqual(t, r.Likes, 1.0)
		assert.GreaterOrEqual(t, r.Comments, 1.0)
		assert.GreaterOrEqual(t, r.Shares, 1.0)
	}
}

func TestComposeDeterministic(t *testing.T) {
	a, err := Compose(start, 72, params(), simulator.Seeded(5))
	require.NoError(t, err)
	b, err := Compose(start, 72, params(), simulator.Seeded(5))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComposeRequiresEveryMetric(t *testing.T) {
	_, err := Compose(start, 24, params()[:2], simulator.Seeded(1))
	assert.Error(t, err)

	dup := append(params(), params()[0])
	_, err = Compose(start, 24, dup, simulator.Seeded(1))
	assert.Error(t, err)
}

func TestZipLengthMismatch(t *testing.T) {
	likes, err := simulator.Simulate(start, 24, params()[0], simulator.Seeded(1)("likes"))
	require.NoError(t, err)
	comments, err := simulator.Simulate(start, 23, params()[1], simulator.Seeded(1)("comments"))
	require.NoError(t, err)

	_, err = Zip(likes, comments)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMismatchedSeries))

	var mismatch *MismatchedSeriesLengthError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, types.Comments, mismatch.Metric)
	assert.Equal(t, 24, mismatch.Want)
	assert.Equal(t, 23, mismatch.Got)
	assert.Equal(t, -1, mismatch.Index)
}

func TestZipTimestampMismatch(t *testing.T) {
	likes, err := simulator.Simulate(start, 24, params()[0], simulator.Seeded(1)("likes"))
	require.NoError(t, err)
	shares, err := simulator.Simulate(start.Add(time.Hour), 24, params()[2], simulator.Seeded(1)("shares"))
	require.NoError(t, err)

	_, err = Zip(likes, shares)
	var mismatch *MismatchedSeriesLengthError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 0, mismatch.Index)
	assert.Equal(t, types.Shares, mismatch.Metric)
}

func TestZipEmpty(t *testing.T) {
	records, err := Zip()
	require.NoError(t, err)
	assert.Nil(t, records)
}
