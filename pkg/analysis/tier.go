package analysis

// AthleteContext carries the physiological baselines known for the athlete.
// Any field may be zero, meaning unknown; the engine degrades through tiers
// rather than requiring all of them.
type AthleteContext struct {
	MaxHR              float64 // bpm
	RestingHR          float64 // bpm
	ThresholdHR        float64 // bpm, lactate threshold
	ThresholdPacePerKM float64 // min/km at threshold
}

// Tier is the data-quality regime the analysis runs under. Lower values are
// anchored to better physiological data; the ordering is load-bearing for
// the confidence guarantee, so Tier is an int enum and the wire strings live
// only in String().
type Tier int

const (
	TierThresholdHR Tier = iota + 1 // max, resting and threshold HR all known
	TierEstimatedHRR                // threshold estimated from heart-rate reserve
	TierMaxHR                       // only max HR known
	TierStreamRelative              // no usable context, stream min/max anchoring
)

// flag recorded when tier2 estimates the missing threshold HR.
const FlagThresholdEstimatedFromHRR = "threshold_hr_estimated_from_hrr"

// hrrThresholdFraction places the estimated threshold at 85% of heart-rate
// reserve above resting (Karvonen).
const hrrThresholdFraction = 0.85

func (t Tier) String() string {
	switch t {
	case TierThresholdHR:
		return "tier1_threshold_hr"
	case TierEstimatedHRR:
		return "tier2_estimated_hrr"
	case TierMaxHR:
		return "tier3_max_hr"
	default:
		return "tier4_stream_relative"
	}
}

// CrossRunComparable reports whether results under this tier are anchored to
// an absolute physiological reference. Tier4 is only relative to the
// current stream, so its numbers cannot be compared across activities.
func (t Tier) CrossRunComparable() bool {
	return t != TierStreamRelative
}

// baseConfidence is the per-tier confidence before penalties. Strictly
// decreasing by tier so the monotonicity guarantee holds under any uniform
// penalty.
func (t Tier) baseConfidence() float64 {
	switch t {
	case TierThresholdHR:
		return 0.90
	case TierEstimatedHRR:
		return 0.78
	case TierMaxHR:
		return 0.62
	default:
		return 0.40
	}
}

// ResolveTier maps the known athlete baselines to an analysis tier, plus any
// flags describing values the engine had to estimate.
func ResolveTier(athlete *AthleteContext) (Tier, []string) {
	if athlete == nil {
		return TierStreamRelative, nil
	}
	switch {
	case athlete.MaxHR > 0 && athlete.RestingHR > 0 && athlete.ThresholdHR > 0:
		return TierThresholdHR, nil
	case athlete.MaxHR > 0 && athlete.RestingHR > 0:
		return TierEstimatedHRR, []string{FlagThresholdEstimatedFromHRR}
	case athlete.MaxHR > 0:
		return TierMaxHR, nil
	default:
		return TierStreamRelative, nil
	}
}

// effectiveThresholdHR returns the threshold anchor for tier1/tier2: the
// measured value when present, otherwise the heart-rate-reserve estimate.
func effectiveThresholdHR(athlete *AthleteContext) float64 {
	if athlete == nil {
		return 0
	}
	if athlete.ThresholdHR > 0 {
		return athlete.ThresholdHR
	}
	if athlete.MaxHR > 0 && athlete.RestingHR > 0 {
		return athlete.RestingHR + hrrThresholdFraction*(athlete.MaxHR-athlete.RestingHR)
	}
	return 0
}

// confidenceFor computes the final confidence for a tier given the HR
// verdict and estimation flags. Penalties are uniform across tiers, which
// preserves confidence(tier1) >= ... >= confidence(tier4) on identical
// input.
func confidenceFor(tier Tier, hrReliable bool, flags []string, cfg Config) float64 {
	c := tier.baseConfidence()
	if !hrReliable {
		c -= cfg.ConfidenceHRPenalty
	}
	c -= float64(len(flags)) * cfg.ConfidenceFlagPenalty
	if c < 0.05 {
		c = 0.05
	}
	if c > 1 {
		c = 1
	}
	return c
}
