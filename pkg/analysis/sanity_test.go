package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHRSanityNormalRun(t *testing.T) {
	s := normalRunStream(900)
	verdict := CheckHRSanity(s.Time, s.HeartRate, s.Velocity, 190, DefaultConfig())
	assert.True(t, verdict.Reliable)
	assert.Empty(t, verdict.Reason)
	assert.Empty(t, verdict.Note)
}

func TestHRSanityMissingChannel(t *testing.T) {
	verdict := CheckHRSanity(timeAxis(300), nil, constSeries(300, 3.0), 0, DefaultConfig())
	assert.False(t, verdict.Reliable)
	assert.Equal(t, ReasonNoHRData, verdict.Reason)
	assert.NotEmpty(t, verdict.Note)
}

func TestHRSanityFlatlineAtRest(t *testing.T) {
	n := 600
	// HR pinned at a resting value while velocity swings between jog and
	// stride. A working sensor cannot produce this.
	hr := constSeries(n, 62)
	vel := series(n, func(i int) float64 {
		if (i/60)%2 == 0 {
			return 2.0
		}
		return 4.0
	})
	verdict := CheckHRSanity(timeAxis(n), hr, vel, 0, DefaultConfig())
	assert.False(t, verdict.Reliable)
	assert.Equal(t, ReasonFlatline, verdict.Reason)
}

func TestHRSanityDropoutWhileMoving(t *testing.T) {
	n := 600
	hr := series(n, func(i int) float64 {
		if i >= 200 && i < 260 {
			return 0 // one minute of dropout mid-run
		}
		return 150
	})
	vel := constSeries(n, 3.0)
	verdict := CheckHRSanity(timeAxis(n), hr, vel, 0, DefaultConfig())
	assert.False(t, verdict.Reliable)
	assert.Equal(t, ReasonDropout, verdict.Reason)
}

func TestHRSanityInverseCorrelation(t *testing.T) {
	s := invertedHRStream(600)
	verdict := CheckHRSanity(s.Time, s.HeartRate, s.Velocity, 0, DefaultConfig())
	assert.False(t, verdict.Reliable)
	assert.Equal(t, ReasonInverseCorrelation, verdict.Reason)
}

func TestHRSanityCorrelationAbstainsOnTinySample(t *testing.T) {
	// Ten inverted samples are not evidence; the correlation check must
	// abstain instead of guessing.
	n := 10
	hr := series(n, func(i int) float64 { return 180 - 5*float64(i) })
	vel := series(n, func(i int) float64 { return 2.0 + 0.2*float64(i) })
	verdict := CheckHRSanity(timeAxis(n), hr, vel, 0, DefaultConfig())
	assert.True(t, verdict.Reliable)
}

func TestHRSanityHardCeiling(t *testing.T) {
	cfg := DefaultConfig()
	build := func(spikeSeconds int) ([]float64, []float64, []float64) {
		n := 600
		hr := series(n, func(i int) float64 {
			if i >= 300 && i < 300+spikeSeconds {
				return 232
			}
			return 150 + float64(i%20)
		})
		vel := series(n, func(i int) float64 { return 3.0 + 0.3*float64(i%10) })
		return timeAxis(n), hr, vel
	}

	// Transient spike under a minute: electrical noise, not a verdict.
	ts, hr, vel := build(30)
	assert.True(t, CheckHRSanity(ts, hr, vel, 0, cfg).Reliable)

	// Sustained beyond a minute trips the ceiling.
	ts, hr, vel = build(90)
	verdict := CheckHRSanity(ts, hr, vel, 0, cfg)
	assert.False(t, verdict.Reliable)
	assert.Equal(t, ReasonHardCeiling, verdict.Reason)
}

func TestHRSanitySoftCeilingNeedsMaxHR(t *testing.T) {
	cfg := DefaultConfig()
	n := 900
	// Saturated at 195bpm for 2.5 minutes: above 1.05x a 180 max, below the
	// hard ceiling.
	hr := series(n, func(i int) float64 {
		if i >= 300 && i < 450 {
			return 195
		}
		return 140 + float64(i%15)
	})
	vel := series(n, func(i int) float64 { return 3.0 + 0.2*float64(i%7) })
	ts := timeAxis(n)

	verdict := CheckHRSanity(ts, hr, vel, 180, cfg)
	assert.False(t, verdict.Reliable)
	assert.Equal(t, ReasonSoftCeiling, verdict.Reason)

	// Without a known max the same trace has to pass.
	assert.True(t, CheckHRSanity(ts, hr, vel, 0, cfg).Reliable)
}

func TestHRSanitySoftCeilingShortSaturationPasses(t *testing.T) {
	cfg := DefaultConfig()
	n := 900
	hr := series(n, func(i int) float64 {
		if i >= 300 && i < 360 {
			return 195 // only one minute, under the 120s requirement
		}
		return 140 + float64(i%15)
	})
	vel := series(n, func(i int) float64 { return 3.0 + 0.2*float64(i%7) })
	assert.True(t, CheckHRSanity(timeAxis(n), hr, vel, 180, cfg).Reliable)
}

func TestSustainedFor(t *testing.T) {
	ts := timeAxis(100)
	pred := func(i int) bool { return i >= 20 && i < 50 }
	assert.InDelta(t, 29, sustainedFor(ts, pred), 1e-9)
	assert.Zero(t, sustainedFor(ts, func(i int) bool { return false }))
}
