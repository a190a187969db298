package analysis

import (
	"log/slog"
	"math"
)

// Channel names accepted by NewStream.
const (
	ChannelTime      = "time"
	ChannelVelocity  = "velocity"
	ChannelHeartRate = "heartrate"
	ChannelCadence   = "cadence"
	ChannelAltitude  = "altitude"
	ChannelGrade     = "grade"
)

// Stream holds index-aligned per-second telemetry for a single run. Time and
// Velocity are always present; the rest are optional and nil when absent.
type Stream struct {
	Time      []float64 // seconds from start
	Velocity  []float64 // m/s
	HeartRate []float64 // bpm
	Cadence   []float64 // rpm, possibly single-foot counts
	Altitude  []float64 // meters
	Grade     []float64 // percent
}

// NewStream builds an aligned stream from a channel map. Channels of
// mismatched length are truncated to the shortest present channel rather
// than rejected; the truncation is logged so bad uploads stay visible.
func NewStream(channels map[string][]float64, logger *slog.Logger) *Stream {
	s := &Stream{
		Time:      channels[ChannelTime],
		Velocity:  channels[ChannelVelocity],
		HeartRate: channels[ChannelHeartRate],
		Cadence:   channels[ChannelCadence],
		Altitude:  channels[ChannelAltitude],
		Grade:     channels[ChannelGrade],
	}

	shortest := -1
	for _, ch := range [][]float64{s.Time, s.Velocity, s.HeartRate, s.Cadence, s.Altitude, s.Grade} {
		if ch == nil {
			continue
		}
		if shortest < 0 || len(ch) < shortest {
			shortest = len(ch)
		}
	}
	if shortest < 0 {
		shortest = 0
	}

	truncated := false
	trim := func(ch []float64) []float64 {
		if ch == nil {
			return nil
		}
		if len(ch) > shortest {
			truncated = true
			return ch[:shortest]
		}
		return ch
	}
	s.Time = trim(s.Time)
	s.Velocity = trim(s.Velocity)
	s.HeartRate = trim(s.HeartRate)
	s.Cadence = trim(s.Cadence)
	s.Altitude = trim(s.Altitude)
	s.Grade = trim(s.Grade)

	if truncated && logger != nil {
		logger.Warn("stream: channel length mismatch, truncated to shortest", "samples", shortest)
	}
	return s
}

// Len returns the number of aligned samples.
func (s *Stream) Len() int {
	return len(s.Time)
}

// Channels lists the channel names present in the stream.
func (s *Stream) Channels() []string {
	out := []string{}
	if len(s.Time) > 0 {
		out = append(out, ChannelTime)
	}
	if len(s.Velocity) > 0 {
		out = append(out, ChannelVelocity)
	}
	if len(s.HeartRate) > 0 {
		out = append(out, ChannelHeartRate)
	}
	if len(s.Cadence) > 0 {
		out = append(out, ChannelCadence)
	}
	if len(s.Altitude) > 0 {
		out = append(out, ChannelAltitude)
	}
	if len(s.Grade) > 0 {
		out = append(out, ChannelGrade)
	}
	return out
}

// sampleInterval estimates seconds per sample from the time channel.
// Falls back to 1s for degenerate streams.
func (s *Stream) sampleInterval() float64 {
	if len(s.Time) < 2 {
		return 1
	}
	dt := (s.Time[len(s.Time)-1] - s.Time[0]) / float64(len(s.Time)-1)
	if dt <= 0 || math.IsNaN(dt) {
		return 1
	}
	return dt
}

// NormalizedCadence returns cadence with half-cadence recordings corrected.
// Many watches report single-foot steps; a running cadence that averages
// below the half-cadence cutoff is doubled. Returns nil when absent.
func (s *Stream) NormalizedCadence(cfg Config) []float64 {
	if len(s.Cadence) == 0 {
		return nil
	}
	var sum float64
	var n int
	for _, c := range s.Cadence {
		if c > 0 {
			sum += c
			n++
		}
	}
	double := n > 0 && sum/float64(n) < cfg.HalfCadenceMaxRPM
	out := make([]float64, len(s.Cadence))
	for i, c := range s.Cadence {
		if double {
			out[i] = c * 2
		} else {
			out[i] = c
		}
	}
	return out
}

// EffectiveGrade returns the grade channel, deriving it from altitude deltas
// over distance travelled when the device did not record grade directly.
// Returns nil when neither source exists.
func (s *Stream) EffectiveGrade() []float64 {
	if len(s.Grade) > 0 {
		return s.Grade
	}
	if len(s.Altitude) == 0 || len(s.Velocity) == 0 || s.Len() < 2 {
		return nil
	}
	grade := make([]float64, s.Len())
	for i := 1; i < s.Len(); i++ {
		dt := s.Time[i] - s.Time[i-1]
		dist := s.Velocity[i] * dt
		if dist < 0.5 {
			grade[i] = grade[i-1]
			continue
		}
		rise := s.Altitude[i] - s.Altitude[i-1]
		g := rise / dist * 100
		// Altitude channels are noisy; clamp to plausible running terrain.
		if g > 40 {
			g = 40
		} else if g < -40 {
			g = -40
		}
		grade[i] = g
	}
	grade[0] = grade[min(1, len(grade)-1)]
	return rollingMean(grade, 5)
}

// rollingMean smooths a series with a centered window of the given sample
// width. Width <= 1 returns a copy.
func rollingMean(series []float64, width int) []float64 {
	out := make([]float64, len(series))
	if width <= 1 {
		copy(out, series)
		return out
	}
	half := width / 2
	for i := range series {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= len(series) {
			hi = len(series) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += series[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// paceMinPerKM converts a velocity in m/s to minutes per km. Returns 0 for
// non-positive velocity, matching how summary providers guard division.
func paceMinPerKM(velocityMS float64) float64 {
	if velocityMS <= 0 {
		return 0
	}
	return (1000 / velocityMS) / 60
}

func meanOf(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}
