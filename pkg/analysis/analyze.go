// Package analysis implements the run stream analysis engine: tiered
// degradation over partially-known athlete physiology, heart-rate
// sensor-fault detection, hysteresis segmentation, discrete moment
// detection and fail-closed LLM narration.
//
// The engine is a pure function of its inputs. Every call builds a fresh
// Result; nothing is cached, persisted or shared, so callers can run
// analyses for different activities concurrently without coordination.
package analysis

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Result is the complete outcome of analyzing one run. It is a plain
// serializable structure and the entire contract surface toward callers.
type Result struct {
	AnalysisID         string          `json:"analysis_id"`
	TierUsed           string          `json:"tier_used"`
	Confidence         float64         `json:"confidence"`
	HRReliable         bool            `json:"hr_reliable"`
	HRNote             *string         `json:"hr_note"`
	CrossRunComparable bool            `json:"cross_run_comparable"`
	EstimatedFlags     []string        `json:"estimated_flags"`
	Segments           []Segment       `json:"segments"`
	Moments            []Moment        `json:"moments"`
	EffortIntensity    []float64       `json:"effort_intensity"`
	Narration          NarrationResult `json:"narration"`
}

// Analyze runs the full pipeline over one stream: tier resolution, HR
// sanity, effort calculation, segmentation, moment detection and optional
// narration, strictly in that order. narrator may be nil, in which case no
// external call is made and all narratives stay null. Degraded input is
// communicated through result fields, never through an error.
func Analyze(ctx context.Context, logger *slog.Logger, stream *Stream, athlete *AthleteContext, narrator NarrativeClient, cfg Config) *Result {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("analysis_id", id)

	result := &Result{
		AnalysisID:     id,
		EstimatedFlags: []string{},
	}
	if stream == nil || stream.Len() == 0 {
		// An empty stream still gets a well-formed answer.
		result.TierUsed = TierStreamRelative.String()
		result.Confidence = 0.05
		note := reliabilityNotes[ReasonNoHRData]
		result.HRNote = &note
		result.Segments = []Segment{}
		result.Moments = []Moment{}
		result.EffortIntensity = []float64{}
		logger.Warn("analysis: empty stream")
		return result
	}

	logger.Debug("analysis: starting", "samples", stream.Len(), "channels", stream.Channels())

	tier, flags := ResolveTier(athlete)
	if flags != nil {
		result.EstimatedFlags = flags
	}

	var maxHR float64
	if athlete != nil {
		maxHR = athlete.MaxHR
	}
	hrVerdict := CheckHRSanity(stream.Time, stream.HeartRate, stream.Velocity, maxHR, cfg)
	result.HRReliable = hrVerdict.Reliable
	if !hrVerdict.Reliable {
		note := hrVerdict.Note
		result.HRNote = &note
		logger.Info("analysis: hr channel rejected", "reason", hrVerdict.Reason)
	}

	result.TierUsed = tier.String()
	result.CrossRunComparable = tier.CrossRunComparable()
	result.Confidence = confidenceFor(tier, hrVerdict.Reliable, flags, cfg)

	result.EffortIntensity = ComputeEffort(stream, tier, athlete, hrVerdict.Reliable, cfg)
	result.Segments = DetectSegments(stream, result.EffortIntensity, cfg)
	result.Moments = DetectMoments(stream, hrVerdict.Reliable, cfg)

	narratives, narration := GenerateMomentNarratives(ctx, logger, narrator, result.Moments, result.Segments, stream, cfg)
	for i := range result.Moments {
		result.Moments[i].Narrative = narratives[i]
	}
	result.Narration = narration

	logger.Info("analysis: complete",
		"tier", result.TierUsed,
		"confidence", result.Confidence,
		"hr_reliable", result.HRReliable,
		"segments", len(result.Segments),
		"moments", len(result.Moments),
	)
	return result
}
