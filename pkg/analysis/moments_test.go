package analysis

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func momentsOfType(moments []Moment, t MomentType) []Moment {
	var out []Moment
	for _, m := range moments {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func TestMomentsPaceSurge(t *testing.T) {
	n := 600
	stream := &Stream{
		Time: timeAxis(n),
		Velocity: series(n, func(i int) float64 {
			if i >= 300 && i < 330 {
				return 4.2 // 30s kick off a 3.0 base
			}
			return 3.0
		}),
	}

	moments := DetectMoments(stream, false, DefaultConfig())
	surges := momentsOfType(moments, MomentPaceSurge)
	require.NotEmpty(t, surges)
	assert.GreaterOrEqual(t, surges[0].Index, 300)
	assert.Less(t, surges[0].Index, 330)
	assert.Greater(t, surges[0].Value, 1.0)
	assert.NotEmpty(t, surges[0].Context)
	assert.Nil(t, surges[0].Narrative)
}

func TestMomentsPaceFade(t *testing.T) {
	n := 600
	stream := &Stream{
		Time: timeAxis(n),
		Velocity: series(n, func(i int) float64 {
			if i >= 400 && i < 430 {
				return 2.0 // sag to two-thirds of base
			}
			return 3.0
		}),
	}

	moments := DetectMoments(stream, false, DefaultConfig())
	fades := momentsOfType(moments, MomentPaceFade)
	require.NotEmpty(t, fades)
	assert.GreaterOrEqual(t, fades[0].Index, 400)
	assert.Less(t, fades[0].Value, 1.0)
}

// A deep slowdown on flat ground is an anomaly, not a plain fade: the
// terrain does not explain it.
func TestMomentsGradeAdjustedAnomaly(t *testing.T) {
	n := 600
	stream := &Stream{
		Time: timeAxis(n),
		Velocity: series(n, func(i int) float64 {
			if i >= 300 && i < 330 {
				return 1.8
			}
			return 3.0
		}),
		Grade: constSeries(n, 0),
	}

	moments := DetectMoments(stream, false, DefaultConfig())
	anomalies := momentsOfType(moments, MomentGradeAnomaly)
	require.NotEmpty(t, anomalies)
	assert.Empty(t, momentsOfType(moments, MomentPaceFade),
		"the anomaly must not double-report as a fade")
}

func TestMomentsCadenceSurge(t *testing.T) {
	n := 600
	stream := &Stream{
		Time:     timeAxis(n),
		Velocity: constSeries(n, 3.0),
		Cadence: series(n, func(i int) float64 {
			if i >= 300 && i < 330 {
				return 186
			}
			return 160
		}),
	}

	moments := DetectMoments(stream, false, DefaultConfig())
	require.NotEmpty(t, momentsOfType(moments, MomentCadenceSurge))
}

func TestMomentsNoCadenceChannelNoCadenceMoments(t *testing.T) {
	stream := &Stream{Time: timeAxis(600), Velocity: constSeries(600, 3.0)}
	moments := DetectMoments(stream, false, DefaultConfig())
	assert.Empty(t, momentsOfType(moments, MomentCadenceSurge))
}

func TestMomentsRecoveryHRDelay(t *testing.T) {
	n := 600
	stream := &Stream{
		Time: timeAxis(n),
		Velocity: series(n, func(i int) float64 {
			if i < 300 {
				return 4.0
			}
			return 1.0 // hard stop
		}),
		HeartRate: series(n, func(i int) float64 {
			if i < 300 {
				return 175
			}
			return 173 // barely comes down: delayed recovery
		}),
	}

	moments := DetectMoments(stream, true, DefaultConfig())
	delays := momentsOfType(moments, MomentRecoveryHRDelay)
	require.NotEmpty(t, delays)
	assert.InDelta(t, 300, float64(delays[0].Index), 30)
	assert.Less(t, delays[0].Value, DefaultConfig().RecoveryMinDropBPM)
}

func TestMomentsRecoveryDelayRequiresTrustedHR(t *testing.T) {
	n := 600
	stream := &Stream{
		Time: timeAxis(n),
		Velocity: series(n, func(i int) float64 {
			if i < 300 {
				return 4.0
			}
			return 1.0
		}),
		HeartRate: constSeries(n, 174),
	}

	moments := DetectMoments(stream, false, DefaultConfig())
	assert.Empty(t, momentsOfType(moments, MomentRecoveryHRDelay))
}

func TestMomentsOrderedByIndex(t *testing.T) {
	n := 900
	stream := &Stream{
		Time: timeAxis(n),
		Velocity: series(n, func(i int) float64 {
			switch {
			case i >= 200 && i < 230:
				return 4.3
			case i >= 500 && i < 530:
				return 4.3
			default:
				return 3.0
			}
		}),
	}

	moments := DetectMoments(stream, false, DefaultConfig())
	assert.True(t, sort.SliceIsSorted(moments, func(i, j int) bool {
		return moments[i].Index < moments[j].Index
	}))
}

func TestMomentsEmptyStream(t *testing.T) {
	assert.Nil(t, DetectMoments(&Stream{}, false, DefaultConfig()))
}

func TestContextWindowNormalizesCadence(t *testing.T) {
	n := 200
	stream := &Stream{
		Time:      timeAxis(n),
		Velocity:  constSeries(n, 3.0),
		HeartRate: constSeries(n, 150),
		Cadence:   constSeries(n, 85), // half-cadence recording
	}
	ctx := contextWindow(stream, 100, DefaultConfig())
	assert.InDelta(t, 170, ctx["avg_cadence_rpm"], 0.01)
	assert.InDelta(t, 150, ctx["avg_hr_bpm"], 0.01)
	assert.Positive(t, ctx["avg_pace_min_km"])
}
