package variant

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjranagit/engagesim/pkg/simulator"
	"github.com/vjranagit/engagesim/pkg/types"
)

var floors = map[string]float64{
	Noisy:            1,
	DailyCycle:       1,
	RealisticScaling: 5,
	RightSkewed:      3,
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{Noisy, DailyCycle, RealisticScaling, RightSkewed}, r.Names())

	for _, v := range r.List() {
		assert.Equal(t, 336, v.DurationHours, v.Name)
		assert.NoError(t, v.Validate(), v.Name)
	}

	_, err := r.Get("viral")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := Default()
	err := r.Register(Builtins()[0])
	assert.Error(t, err)
}

func TestRegistrySelect(t *testing.T) {
	r := Default()

	all, err := r.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	some, err := r.Select([]string{RightSkewed, Noisy})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, RightSkewed, some[0].Name)

	_, err = r.Select([]string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestBuiltinsGenerateAlignedSeries(t *testing.T) {
	for _, v := range Builtins() {
		t.Run(v.Name, func(t *testing.T) {
			records, err := v.Generate(simulator.Seeded(11))
			require.NoError(t, err)
			require.Len(t, records, 336)

			floor := floors[v.Name]
			for i, r := range records {
				require.True(t, r.Timestamp.Equal(v.Start.Add(time.Duration(i)*time.Hour)))
				for _, m := range types.Metrics {
					val, _ := r.Value(m)
					require.GreaterOrEqual(t, val, floor, "%s hour %d", m, i)
					require.Equal(t, math.Trunc(val), val)
				}
			}
		})
	}
}

func TestVariantsDrawIndependentNoise(t *testing.T) {
	a, err := Builtins()[2].Generate(simulator.Seeded(1))
	require.NoError(t, err)

	renamed := Builtins()[2]
	renamed.Name = "realistic-copy"
	b, err := renamed.Generate(simulator.Seeded(1))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestRightSkewedPeaksNearDayThree(t *testing.T) {
	v, err := Default().Get(RightSkewed)
	require.NoError(t, err)
	p, ok := v.Parameters(types.Likes)
	require.True(t, ok)
	assert.Equal(t, 0.12, p.NoiseLevel)

	start := time.Date(2025, 4, 17, 15, 45, 0, 0, time.UTC)
	curve := simulator.Expected(start, 336, p)

	best := 0
	for i, pt := range curve {
		if pt.Value > curve[best].Value {
			best = i
		}
	}
	peakDay := float64(best) / 24
	assert.InDelta(t, 3.0, peakDay, 0.5)
}

func TestRealisticScalingRatios(t *testing.T) {
	v, err := Default().Get(RealisticScaling)
	require.NoError(t, err)

	likes, _ := v.Parameters(types.Likes)
	comments, _ := v.Parameters(types.Comments)
	shares, _ := v.Parameters(types.Shares)

	assert.InDelta(t, 0.3, comments.EffectivePeak()/likes.EffectivePeak(), 1e-9)
	assert.InDelta(t, 0.15, shares.EffectivePeak()/likes.EffectivePeak(), 1e-9)
}

const variantsYAML = `
variants:
  - name: weekend-burst
    description: late-night audience
    start: "2025-04-19 09:00"
    duration_hours: 96
    metrics:
      - metric: likes
        peak: 600
        noise: additive
        noise_level: 0.1
        cycle: {start: 20, end: 2, night_min: 0.1}
        lifecycle: {shape: ramp-decay, peak_hours: 6, decay_rate: 0.2}
      - metric: comments
        peak: 600
        scale: 0.25
        noise: multiplicative
        noise_level: 0.2
        floor: 3
        lifecycle: {shape: plateau-decay, plateau_days: 1.5, decay_rate: 0.5}
      - metric: shares
        peak: 90
        noise: multiplicative
        noise_level: 0.1
        floor: 2
        lifecycle: {shape: weibull, weibull_k: 2, peak_day: 1, day_offset: 0.5}
`

func TestDecodeYAML(t *testing.T) {
	variants, err := Decode(strings.NewReader(variantsYAML))
	require.NoError(t, err)
	require.Len(t, variants, 1)

	v := variants[0]
	assert.Equal(t, "weekend-burst", v.Name)
	assert.Equal(t, 96, v.DurationHours)
	assert.True(t, v.Start.Equal(time.Date(2025, 4, 19, 9, 0, 0, 0, time.UTC)))

	likes, _ := v.Parameters(types.Likes)
	require.NotNil(t, likes.Cycle)
	assert.True(t, likes.Cycle.Window.Wraps())
	assert.Equal(t, 1.0, likes.Floor)

	comments, _ := v.Parameters(types.Comments)
	assert.Equal(t, 36.0, comments.Lifecycle.PlateauHours)
	assert.Nil(t, comments.Cycle)

	records, err := v.Generate(simulator.Seeded(2))
	require.NoError(t, err)
	assert.Len(t, records, 96)
}

func TestDecodeRejectsBadRecords(t *testing.T) {
	bad := strings.Replace(variantsYAML, "shape: weibull", "shape: bell", 1)
	_, err := Decode(strings.NewReader(bad))
	assert.Error(t, err)

	missing := strings.Split(variantsYAML, "      - metric: shares")[0]
	_, err = Decode(strings.NewReader(missing))
	assert.Error(t, err)
}

func TestRegisterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(variantsYAML), 0o644))

	r := Default()
	require.NoError(t, r.RegisterFile(path))
	assert.Len(t, r.Names(), 5)

	_, err := r.Get("weekend-burst")
	assert.NoError(t, err)

	assert.Error(t, r.RegisterFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
