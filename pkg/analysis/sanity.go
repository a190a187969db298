package analysis

import (
	"gonum.org/v1/gonum/stat"
)

// HRReliability is the single verdict on the heart-rate channel. It is
// computed once per analysis and consumed downstream; nothing re-derives it.
type HRReliability struct {
	Reliable bool
	Reason   string // machine-readable reason code, empty when reliable
	Note     string // user-facing explanation, empty when reliable
}

// Reason codes for an unreliable heart-rate channel.
const (
	ReasonNoHRData           = "no_hr_data"
	ReasonFlatline           = "hr_flatline_at_rest"
	ReasonDropout            = "hr_dropout_while_moving"
	ReasonInverseCorrelation = "hr_inverse_correlation"
	ReasonHardCeiling        = "hr_above_hard_ceiling"
	ReasonSoftCeiling        = "hr_above_athlete_max"
)

var reliabilityNotes = map[string]string{
	ReasonNoHRData:           "No heart rate was recorded for this run, so effort is estimated from pace and terrain.",
	ReasonFlatline:           "The heart rate sensor appears stuck at a resting value while you were moving, so effort is estimated from pace and terrain.",
	ReasonDropout:            "The heart rate sensor dropped out for an extended stretch while you were moving, so effort is estimated from pace and terrain.",
	ReasonInverseCorrelation: "Heart rate moved opposite to your pace, which points to a sensor fault, so effort is estimated from pace and terrain.",
	ReasonHardCeiling:        "Heart rate stayed above any plausible human maximum for a sustained period, so effort is estimated from pace and terrain.",
	ReasonSoftCeiling:        "Heart rate stayed well above your configured maximum for a sustained period, so effort is estimated from pace and terrain.",
}

func unreliable(reason string) HRReliability {
	return HRReliability{Reliable: false, Reason: reason, Note: reliabilityNotes[reason]}
}

// CheckHRSanity decides whether the heart-rate channel can be trusted at
// all. Wrist optical sensors fail in several independent ways, so the checks
// are independent too: any one of them marks the channel unreliable.
// maxHR may be zero (unknown); the soft ceiling check then abstains.
func CheckHRSanity(timeS, hr, velocity []float64, maxHR float64, cfg Config) HRReliability {
	if len(hr) == 0 {
		return unreliable(ReasonNoHRData)
	}

	n := len(hr)
	if len(velocity) < n {
		n = len(velocity)
	}
	if len(timeS) < n {
		n = len(timeS)
	}
	if n == 0 {
		return unreliable(ReasonNoHRData)
	}
	hr = hr[:n]
	vel := velocity[:n]
	ts := timeS[:n]

	// Flatline: near-zero HR variance at a resting level while velocity
	// varies meaningfully. A genuinely steady run has flat velocity too, so
	// both conditions are required.
	hrStd := stat.StdDev(hr, nil)
	if hrStd < cfg.FlatlineStdDevBPM && stat.Mean(hr, nil) <= cfg.FlatlineRestingBPM &&
		stat.StdDev(vel, nil) > cfg.MovingStdDevMS {
		return unreliable(ReasonFlatline)
	}

	// Dropout: a sustained run of near-zero HR while moving.
	if sustainedFor(ts, func(i int) bool {
		return hr[i] <= cfg.DropoutMaxBPM && vel[i] > cfg.MovingFloorMS
	}) >= cfg.DropoutMinSeconds {
		return unreliable(ReasonDropout)
	}

	// Inversion: HR falling as pace rises. Pearson r needs enough samples to
	// mean anything; under the floor this check abstains rather than guess.
	if n >= cfg.MinCorrelationSamples {
		if r := stat.Correlation(hr, vel, nil); r < cfg.InversionTolerance {
			return unreliable(ReasonInverseCorrelation)
		}
	}

	// Hard ceiling: sustained readings beyond any human maximum. A transient
	// spike under the minimum duration is electrical noise, not a verdict.
	if sustainedFor(ts, func(i int) bool { return hr[i] > cfg.HardCeilingBPM }) >= cfg.HardCeilingMinSeconds {
		return unreliable(ReasonHardCeiling)
	}

	// Soft ceiling: sustained readings above the athlete's own max, when
	// known. Catches saturation that never crosses the hard ceiling.
	if maxHR > 0 {
		soft := maxHR * cfg.SoftCeilingMult
		if sustainedFor(ts, func(i int) bool { return hr[i] > soft }) >= cfg.SoftCeilingMinSeconds {
			return unreliable(ReasonSoftCeiling)
		}
	}

	return HRReliability{Reliable: true}
}

// sustainedFor returns the longest continuous duration, in seconds, for
// which pred holds across consecutive samples.
func sustainedFor(timeS []float64, pred func(i int) bool) float64 {
	var longest, runStart float64
	inRun := false
	for i := range timeS {
		if pred(i) {
			if !inRun {
				inRun = true
				runStart = timeS[i]
			}
			if d := timeS[i] - runStart; d > longest {
				longest = d
			}
		} else {
			inRun = false
		}
	}
	return longest
}
