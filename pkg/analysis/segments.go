package analysis

import "math"

// SegmentType classifies a contiguous stretch of the run.
type SegmentType string

const (
	SegmentWarmup   SegmentType = "warmup"
	SegmentSteady   SegmentType = "steady"
	SegmentWork     SegmentType = "work"
	SegmentRecovery SegmentType = "recovery"
	SegmentCooldown SegmentType = "cooldown"
)

// Segment is one contiguous state of the run. Indices are half-open
// [StartIndex, EndIndex): adjacent segments share a boundary index and the
// last segment's EndIndex equals the stream length, so the full range is
// covered without gaps or overlap.
type Segment struct {
	Type         SegmentType `json:"type"`
	StartIndex   int         `json:"start_index"`
	EndIndex     int         `json:"end_index"`
	StartTimeS   float64     `json:"start_time_s"`
	EndTimeS     float64     `json:"end_time_s"`
	DurationS    float64     `json:"duration_s"`
	AvgPaceMinKM float64     `json:"avg_pace"`
	AvgHR        float64     `json:"avg_hr"`
	AvgCadence   float64     `json:"avg_cadence"`
	AvgGradePct  float64     `json:"avg_grade"`
}

// effort levels used during the hysteresis walk.
type effortLevel int

const (
	levelLow effortLevel = iota
	levelMid
	levelHigh
)

// DetectSegments partitions the effort series into ordered, contiguous,
// non-overlapping segments. A candidate boundary commits only after the new
// classification persists for the dwell window, which keeps oscillation
// around a threshold from shattering the run into micro-segments. A
// transition that coincides with sustained steep grade is treated as
// terrain-driven and suppressed.
func DetectSegments(stream *Stream, effort []float64, cfg Config) []Segment {
	n := len(effort)
	if n == 0 {
		return nil
	}

	dt := stream.sampleInterval()
	dwellSamples := int(math.Round(cfg.DwellSeconds / dt))
	if dwellSamples < 1 {
		dwellSamples = 1
	}
	grade := stream.EffectiveGrade()

	level := func(e float64) effortLevel {
		switch {
		case e >= cfg.WorkEffortThreshold:
			return levelHigh
		case e <= cfg.RecoveryEffortThreshold:
			return levelLow
		default:
			return levelMid
		}
	}

	labels := make([]effortLevel, n)
	for i, e := range effort {
		labels[i] = level(e)
	}

	type run struct {
		start int
		level effortLevel
	}
	runs := []run{{start: 0, level: labels[0]}}
	current := labels[0]

	i := 1
	for i < n {
		if labels[i] == current {
			i++
			continue
		}
		// Candidate transition: measure how long the new label persists.
		j := i
		for j < n && labels[j] == labels[i] {
			j++
		}
		if j-i >= dwellSamples && !gradeExplained(stream.Time, grade, i, cfg) {
			runs = append(runs, run{start: i, level: labels[i]})
			current = labels[i]
		}
		i = j
	}

	segments := make([]Segment, 0, len(runs))
	for k, r := range runs {
		end := n
		if k+1 < len(runs) {
			end = runs[k+1].start
		}
		segType := classifyRun(r.level, k, len(runs))
		segments = append(segments, buildSegment(stream, segType, r.start, end, cfg))
	}
	return segments
}

// classifyRun maps an effort level to a segment type given its position.
// Leading low-effort becomes warmup, trailing low-effort cooldown, interior
// low-effort recovery.
func classifyRun(lvl effortLevel, idx, total int) SegmentType {
	switch lvl {
	case levelHigh:
		return SegmentWork
	case levelLow:
		if total == 1 {
			return SegmentSteady
		}
		if idx == 0 {
			return SegmentWarmup
		}
		if idx == total-1 {
			return SegmentCooldown
		}
		return SegmentRecovery
	default:
		// A moderate opening stretch before harder running still counts as
		// the warmup phase.
		if idx == 0 && total > 1 {
			return SegmentWarmup
		}
		return SegmentSteady
	}
}

// gradeExplained reports whether the transition at index idx sits inside a
// sustained steep-grade stretch. A single-sample grade spike does not
// qualify; the stretch must hold the grade for the configured duration.
func gradeExplained(timeS, grade []float64, idx int, cfg Config) bool {
	if grade == nil || idx >= len(grade) {
		return false
	}
	steep := func(g float64) bool { return math.Abs(g) >= cfg.GradeExplainedPct }
	if !steep(grade[idx]) {
		return false
	}
	lo := idx
	for lo > 0 && steep(grade[lo-1]) {
		lo--
	}
	hi := idx
	for hi+1 < len(grade) && steep(grade[hi+1]) {
		hi++
	}
	return timeS[hi]-timeS[lo] >= cfg.GradeExplainedSeconds
}

func buildSegment(stream *Stream, segType SegmentType, start, end int, cfg Config) Segment {
	last := end - 1
	endTime := stream.Time[last]
	if end < stream.Len() {
		endTime = stream.Time[end]
	} else if stream.Len() >= 2 {
		endTime = stream.Time[last] + stream.sampleInterval()
	}

	seg := Segment{
		Type:       segType,
		StartIndex: start,
		EndIndex:   end,
		StartTimeS: stream.Time[start],
		EndTimeS:   endTime,
	}
	seg.DurationS = seg.EndTimeS - seg.StartTimeS

	if len(stream.Velocity) >= end {
		if v := meanOf(stream.Velocity[start:end]); v > 0 {
			seg.AvgPaceMinKM = paceMinPerKM(v)
		}
	}
	if len(stream.HeartRate) >= end {
		seg.AvgHR = meanOf(stream.HeartRate[start:end])
	}
	if cad := stream.NormalizedCadence(cfg); cad != nil {
		seg.AvgCadence = meanOf(cad[start:end])
	}
	if grade := stream.EffectiveGrade(); grade != nil {
		seg.AvgGradePct = meanOf(grade[start:end])
	}
	return seg
}
