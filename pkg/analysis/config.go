package analysis

// Config carries every calibration constant the detectors use. The values in
// DefaultConfig are tuned against real wrist-sensor recordings; tests
// parameterize them rather than re-deriving them.
type Config struct {
	// HR sanity checks
	HardCeilingBPM        float64 // no human HR exceeds this
	HardCeilingMinSeconds float64 // sustained duration before the hard ceiling trips
	SoftCeilingMult       float64 // multiple of athlete max HR
	SoftCeilingMinSeconds float64 // sustained duration before the soft ceiling trips
	InversionTolerance    float64 // Pearson r below this marks HR inverted
	MinCorrelationSamples int     // below this the correlation check abstains
	FlatlineStdDevBPM     float64 // HR stddev under this counts as flat
	FlatlineRestingBPM    float64 // flat HR at or below this level is "stuck at rest"
	MovingStdDevMS        float64 // velocity stddev above this counts as meaningful variation
	DropoutMaxBPM         float64 // HR at or below this counts as a dropout sample
	DropoutMinSeconds     float64 // sustained dropout duration while moving
	MovingFloorMS         float64 // velocity above this counts as moving

	// Effort calculation
	ThresholdEffortAnchor float64 // effort value pinned to threshold intensity
	MaxHREffortFloorPct   float64 // fraction of max HR mapped to zero effort
	GradeEffortGain       float64 // per grade-percent multiplier on pace effort
	GradeFactorMin        float64
	GradeFactorMax        float64
	CadenceSharpenWeight  float64 // small additive boundary-sharpening term
	HalfCadenceMaxRPM     float64 // cadence below this is doubled (single-foot counts)
	SmoothingSeconds      float64 // rolling-mean window for the effort series

	// Segmentation
	DwellSeconds            float64 // new state must persist this long to commit
	WorkEffortThreshold     float64
	RecoveryEffortThreshold float64
	GradeExplainedPct       float64 // sustained |grade| at or above this is terrain
	GradeExplainedSeconds   float64
	EdgeLowSeconds          float64 // min duration for warmup/cooldown relabel

	// Moment detection
	BaselineSeconds       float64 // rolling baseline window
	SurgeRatio            float64 // velocity over baseline ratio for a surge
	FadeRatio             float64 // velocity under baseline ratio for a fade
	SurgeMinSeconds       float64
	CadenceSurgeRatio     float64
	AnomalyRatio          float64 // unexplained velocity deviation ratio
	AnomalyMinSeconds     float64
	RecoveryDropRatio     float64 // velocity drop ratio that opens an HR recovery watch
	RecoveryWatchSeconds  float64 // how long HR gets to come down
	RecoveryMinDropBPM    float64 // expected HR drop within the watch window
	MomentMinGapSeconds   float64 // min spacing between same-type moments
	MomentContextRadiusS  float64 // context window radius around each moment
	NarrativeMinLength    int     // shorter narratives are discarded
	ConfidenceHRPenalty   float64 // confidence deduction when HR is unreliable
	ConfidenceFlagPenalty float64 // confidence deduction per estimated flag
}

// DefaultConfig returns the calibrated constants. The ceiling, dwell and
// grade values are contractual: downstream fixtures assert them directly.
func DefaultConfig() Config {
	return Config{
		HardCeilingBPM:        220,
		HardCeilingMinSeconds: 60,
		SoftCeilingMult:       1.05,
		SoftCeilingMinSeconds: 120,
		InversionTolerance:    -0.30,
		MinCorrelationSamples: 30,
		FlatlineStdDevBPM:     2.0,
		FlatlineRestingBPM:    100,
		MovingStdDevMS:        0.5,
		DropoutMaxBPM:         20,
		DropoutMinSeconds:     30,
		MovingFloorMS:         0.5,

		ThresholdEffortAnchor: 0.85,
		MaxHREffortFloorPct:   0.50,
		GradeEffortGain:       0.02,
		GradeFactorMin:        0.70,
		GradeFactorMax:        1.30,
		CadenceSharpenWeight:  0.05,
		HalfCadenceMaxRPM:     120,
		SmoothingSeconds:      15,

		DwellSeconds:            30,
		WorkEffortThreshold:     0.72,
		RecoveryEffortThreshold: 0.38,
		GradeExplainedPct:       3.0,
		GradeExplainedSeconds:   30,
		EdgeLowSeconds:          60,

		BaselineSeconds:       90,
		SurgeRatio:            1.25,
		FadeRatio:             0.75,
		SurgeMinSeconds:       10,
		CadenceSurgeRatio:     1.10,
		AnomalyRatio:          0.70,
		AnomalyMinSeconds:     15,
		RecoveryDropRatio:     0.60,
		RecoveryWatchSeconds:  90,
		RecoveryMinDropBPM:    10,
		MomentMinGapSeconds:   60,
		MomentContextRadiusS:  30,
		NarrativeMinLength:    20,
		ConfidenceHRPenalty:   0.15,
		ConfidenceFlagPenalty: 0.04,
	}
}
