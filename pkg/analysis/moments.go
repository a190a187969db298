package analysis

import (
	"math"
	"sort"
)

// MomentType identifies a kind of discrete notable event.
type MomentType string

const (
	MomentPaceSurge       MomentType = "pace_surge"
	MomentPaceFade        MomentType = "pace_fade"
	MomentCadenceSurge    MomentType = "cadence_surge"
	MomentGradeAnomaly    MomentType = "grade_adjusted_anomaly"
	MomentRecoveryHRDelay MomentType = "recovery_hr_delay"
)

// Moment is a point event in the run, independent of segment boundaries;
// several moments can fall inside one segment. Narrative stays nil unless a
// narrator later fills it in.
type Moment struct {
	Type      MomentType         `json:"type"`
	Index     int                `json:"index"`
	TimeS     float64            `json:"time_s"`
	Value     float64            `json:"value"`
	Context   map[string]float64 `json:"context"`
	Narrative *string            `json:"narrative"`
}

// DetectMoments scans the stream for typed, signed, punctual deviations.
// Detectors that depend on a missing channel are silently skipped; that is
// degradation, not an error. hrReliable gates the HR-recovery detector so a
// lying sensor cannot fabricate physiology findings.
func DetectMoments(stream *Stream, hrReliable bool, cfg Config) []Moment {
	n := stream.Len()
	if n == 0 || len(stream.Velocity) == 0 {
		return nil
	}

	dt := stream.sampleInterval()
	baseline := trailingBaseline(stream.Velocity, int(math.Round(cfg.BaselineSeconds/dt)))

	var moments []Moment
	moments = append(moments, detectPaceMoments(stream, baseline, cfg)...)
	moments = append(moments, detectCadenceSurges(stream, cfg)...)
	if hrReliable && len(stream.HeartRate) > 0 {
		moments = append(moments, detectRecoveryDelays(stream, baseline, cfg)...)
	}

	sort.Slice(moments, func(i, j int) bool { return moments[i].Index < moments[j].Index })
	return moments
}

// trailingBaseline computes, per sample, the mean of the preceding window.
// Early samples use whatever history exists so the series has no warm-up
// gap.
func trailingBaseline(series []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(series))
	var sum float64
	for i := range series {
		sum += series[i]
		if i >= window {
			sum -= series[i-window]
		}
		span := i + 1
		if span > window {
			span = window
		}
		out[i] = sum / float64(span)
	}
	return out
}

// detectPaceMoments finds sustained velocity deviations from the rolling
// baseline. A deep slowdown on flat ground is reported as a grade-adjusted
// anomaly rather than a plain fade, since the terrain does not explain it.
func detectPaceMoments(stream *Stream, baseline []float64, cfg Config) []Moment {
	vel := stream.Velocity
	grade := stream.EffectiveGrade()
	var moments []Moment
	lastEmit := map[MomentType]float64{}

	i := 0
	for i < len(vel) {
		if baseline[i] <= cfg.MovingFloorMS {
			i++
			continue
		}
		ratio := vel[i] / baseline[i]

		switch {
		case ratio >= cfg.SurgeRatio:
			j, peak, peakIdx := i, ratio, i
			for j < len(vel) && baseline[j] > cfg.MovingFloorMS && vel[j]/baseline[j] >= cfg.SurgeRatio {
				if r := vel[j] / baseline[j]; r > peak {
					peak, peakIdx = r, j
				}
				j++
			}
			if stream.Time[j-1]-stream.Time[i] >= cfg.SurgeMinSeconds {
				moments = emit(moments, lastEmit, stream, MomentPaceSurge, peakIdx, peak, cfg)
			}
			i = j
		case ratio <= cfg.FadeRatio && vel[i] > cfg.MovingFloorMS:
			j, trough, troughIdx := i, ratio, i
			for j < len(vel) && baseline[j] > cfg.MovingFloorMS && vel[j]/baseline[j] <= cfg.FadeRatio {
				if r := vel[j] / baseline[j]; r < trough {
					trough, troughIdx = r, j
				}
				j++
			}
			dur := stream.Time[j-1] - stream.Time[i]
			flat := grade != nil && math.Abs(meanOf(grade[i:j])) < cfg.GradeExplainedPct/2
			if flat && trough <= cfg.AnomalyRatio && dur >= cfg.AnomalyMinSeconds {
				moments = emit(moments, lastEmit, stream, MomentGradeAnomaly, troughIdx, trough, cfg)
			} else if dur >= cfg.SurgeMinSeconds {
				moments = emit(moments, lastEmit, stream, MomentPaceFade, troughIdx, trough, cfg)
			}
			i = j
		default:
			i++
		}
	}
	return moments
}

func detectCadenceSurges(stream *Stream, cfg Config) []Moment {
	cad := stream.NormalizedCadence(cfg)
	if cad == nil {
		return nil
	}
	dt := stream.sampleInterval()
	baseline := trailingBaseline(cad, int(math.Round(cfg.BaselineSeconds/dt)))

	var moments []Moment
	lastEmit := map[MomentType]float64{}
	i := 0
	for i < len(cad) {
		if baseline[i] <= 0 {
			i++
			continue
		}
		if cad[i]/baseline[i] >= cfg.CadenceSurgeRatio {
			j, peak, peakIdx := i, cad[i]/baseline[i], i
			for j < len(cad) && baseline[j] > 0 && cad[j]/baseline[j] >= cfg.CadenceSurgeRatio {
				if r := cad[j] / baseline[j]; r > peak {
					peak, peakIdx = r, j
				}
				j++
			}
			if stream.Time[j-1]-stream.Time[i] >= cfg.SurgeMinSeconds {
				moments = emit(moments, lastEmit, stream, MomentCadenceSurge, peakIdx, peak, cfg)
			}
			i = j
			continue
		}
		i++
	}
	return moments
}

// detectRecoveryDelays watches what HR does after a sustained velocity
// drop. A healthy response falls quickly once the work stops; a delayed
// response is worth surfacing.
func detectRecoveryDelays(stream *Stream, baseline []float64, cfg Config) []Moment {
	vel := stream.Velocity
	hr := stream.HeartRate
	var moments []Moment
	lastEmit := map[MomentType]float64{}

	for i := 1; i < len(vel); i++ {
		if baseline[i] <= cfg.MovingFloorMS {
			continue
		}
		if vel[i]/baseline[i] > cfg.RecoveryDropRatio || vel[i-1]/baseline[i-1] <= cfg.RecoveryDropRatio {
			continue
		}
		// Drop starts here; give HR the watch window to come down.
		startHR := hr[i]
		watchEnd := stream.Time[i] + cfg.RecoveryWatchSeconds
		minHR := startHR
		j := i
		for j < len(hr) && stream.Time[j] <= watchEnd {
			if hr[j] < minHR {
				minHR = hr[j]
			}
			j++
		}
		if stream.Time[min(j, len(hr))-1] < watchEnd {
			break // run ended inside the watch window, no verdict
		}
		if drop := startHR - minHR; drop < cfg.RecoveryMinDropBPM {
			moments = emit(moments, lastEmit, stream, MomentRecoveryHRDelay, i, drop, cfg)
		}
	}
	return moments
}

// emit appends a moment unless one of the same type fired too recently.
func emit(moments []Moment, lastEmit map[MomentType]float64, stream *Stream, t MomentType, idx int, value float64, cfg Config) []Moment {
	ts := stream.Time[idx]
	if last, ok := lastEmit[t]; ok && ts-last < cfg.MomentMinGapSeconds {
		return moments
	}
	lastEmit[t] = ts
	return append(moments, Moment{
		Type:    t,
		Index:   idx,
		TimeS:   ts,
		Value:   round2(value),
		Context: contextWindow(stream, idx, cfg),
	})
}

// contextWindow summarizes HR, pace and cadence in a fixed-radius window
// around the moment. Cadence is normalized before inclusion so half-cadence
// recordings do not leak into narrator prompts.
func contextWindow(stream *Stream, idx int, cfg Config) map[string]float64 {
	dt := stream.sampleInterval()
	radius := int(math.Round(cfg.MomentContextRadiusS / dt))
	lo := idx - radius
	if lo < 0 {
		lo = 0
	}
	hi := idx + radius + 1
	if hi > stream.Len() {
		hi = stream.Len()
	}

	ctx := map[string]float64{
		"window_start_s": stream.Time[lo],
		"window_end_s":   stream.Time[hi-1],
	}
	if v := meanOf(stream.Velocity[lo:hi]); v > 0 {
		ctx["avg_pace_min_km"] = round2(paceMinPerKM(v))
	}
	if len(stream.HeartRate) >= hi {
		ctx["avg_hr_bpm"] = round2(meanOf(stream.HeartRate[lo:hi]))
	}
	if cad := stream.NormalizedCadence(cfg); cad != nil {
		ctx["avg_cadence_rpm"] = round2(meanOf(cad[lo:hi]))
	}
	if grade := stream.EffectiveGrade(); grade != nil {
		ctx["avg_grade_pct"] = round2(meanOf(grade[lo:hi]))
	}
	return ctx
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
