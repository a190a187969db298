package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ComputeEffort produces one exertion value per sample in [0,1].
//
// When HR is trusted the series is anchored to the tier's physiological
// reference: threshold HR for tier1/tier2, percent-of-max banding for tier3,
// and the stream's own HR range for tier4. When HR is not trusted, any tier
// falls back to pace, normalized against the athlete's threshold pace when
// known and grade-adjusted so terrain never masquerades as a fitness change.
func ComputeEffort(stream *Stream, tier Tier, athlete *AthleteContext, hrReliable bool, cfg Config) []float64 {
	n := stream.Len()
	if n == 0 {
		return nil
	}

	var effort []float64
	if hrReliable && len(stream.HeartRate) > 0 {
		effort = effortFromHR(stream.HeartRate, tier, athlete, cfg)
	} else {
		effort = effortFromPace(stream, athlete, cfg)
	}

	// Cadence sharpens boundaries but is never the primary axis: a small
	// additive term proportional to deviation from the run's own mean.
	if cad := stream.NormalizedCadence(cfg); cad != nil && cfg.CadenceSharpenWeight > 0 {
		mean := stat.Mean(cad, nil)
		if mean > 0 {
			for i := range effort {
				effort[i] += cfg.CadenceSharpenWeight * (cad[i] - mean) / mean
			}
		}
	}

	window := int(math.Round(cfg.SmoothingSeconds / stream.sampleInterval()))
	effort = rollingMean(effort, window)
	clampSeries(effort)
	return effort
}

func effortFromHR(hr []float64, tier Tier, athlete *AthleteContext, cfg Config) []float64 {
	out := make([]float64, len(hr))
	switch tier {
	case TierThresholdHR, TierEstimatedHRR:
		threshold := effectiveThresholdHR(athlete)
		if threshold <= 0 {
			return effortStreamRelative(hr)
		}
		// Running at threshold maps to the anchor value; effort scales
		// linearly through it so supra-threshold work lands near 1.
		for i, v := range hr {
			out[i] = cfg.ThresholdEffortAnchor * v / threshold
		}
	case TierMaxHR:
		maxHR := athlete.MaxHR
		if maxHR <= 0 {
			return effortStreamRelative(hr)
		}
		floor := cfg.MaxHREffortFloorPct
		for i, v := range hr {
			out[i] = (v/maxHR - floor) / (1 - floor)
		}
	default:
		return effortStreamRelative(hr)
	}
	return out
}

func effortFromPace(stream *Stream, athlete *AthleteContext, cfg Config) []float64 {
	vel := stream.Velocity
	out := make([]float64, len(vel))

	thresholdPace := 0.0
	if athlete != nil {
		thresholdPace = athlete.ThresholdPacePerKM
	}

	if thresholdPace > 0 {
		// Anchor to threshold pace: running at threshold is the anchor
		// effort, faster scales above it.
		for i, v := range vel {
			pace := paceMinPerKM(v)
			if pace <= 0 {
				out[i] = 0
				continue
			}
			out[i] = cfg.ThresholdEffortAnchor * thresholdPace / pace
		}
	} else {
		out = effortStreamRelative(vel)
	}

	// Grade adjustment: uphill scales effort up, downhill down. Without it a
	// steep climb at constant effort reads as a fade.
	if grade := stream.EffectiveGrade(); grade != nil {
		for i := range out {
			factor := 1 + cfg.GradeEffortGain*grade[i]
			if factor < cfg.GradeFactorMin {
				factor = cfg.GradeFactorMin
			} else if factor > cfg.GradeFactorMax {
				factor = cfg.GradeFactorMax
			}
			out[i] *= factor
		}
	}
	return out
}

// effortStreamRelative normalizes a series against its own min/max range.
// This is the tier4 anchor: valid within the run, not comparable across
// runs.
func effortStreamRelative(series []float64) []float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return out
	}
	lo, hi := series[0], series[0]
	for _, v := range series {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span <= 0 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range series {
		out[i] = (v - lo) / span
	}
	return out
}

func clampSeries(series []float64) {
	for i, v := range series {
		if v < 0 || math.IsNaN(v) {
			series[i] = 0
		} else if v > 1 {
			series[i] = 1
		}
	}
}
