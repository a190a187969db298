// Package fitstream converts FIT activity files into analysis streams.
package fitstream

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/basetype"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"

	"github.com/stridelab/runstream/pkg/analysis"
)

// RecordSample is one decoded record message, unit-converted. Has* flags
// distinguish a true zero from an absent field.
type RecordSample struct {
	Timestamp time.Time
	SpeedMS   float64
	HRBPM     float64
	Cadence   float64
	AltitudeM float64
	HasHR     bool
	HasCad    bool
	HasAlt    bool
}

// FromFIT decodes FIT bytes and builds an aligned analysis stream from its
// record messages.
func FromFIT(data []byte, logger *slog.Logger) (*analysis.Stream, error) {
	dec := decoder.New(bytes.NewReader(data))
	fitData, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode fit file: %w", err)
	}

	var samples []RecordSample
	for _, msg := range fitData.Messages {
		if msg.Num != typedef.MesgNumRecord {
			continue
		}
		rec := mesgdef.NewRecord(&msg)
		if rec.Timestamp.IsZero() {
			continue
		}

		sample := RecordSample{Timestamp: rec.Timestamp}

		speed := rec.EnhancedSpeedScaled()
		if math.IsNaN(speed) {
			speed = rec.SpeedScaled()
		}
		if !math.IsNaN(speed) {
			sample.SpeedMS = speed
		}

		if rec.HeartRate != basetype.Uint8Invalid {
			sample.HRBPM = float64(rec.HeartRate)
			sample.HasHR = true
		}
		if rec.Cadence != basetype.Uint8Invalid {
			sample.Cadence = float64(rec.Cadence)
			sample.HasCad = true
		}

		alt := rec.EnhancedAltitudeScaled()
		if math.IsNaN(alt) {
			alt = rec.AltitudeScaled()
		}
		if !math.IsNaN(alt) {
			sample.AltitudeM = alt
			sample.HasAlt = true
		}

		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("fit file contains no record messages")
	}
	return FromRecords(samples, logger), nil
}

// FromRecords builds a stream from decoded record samples. Optional
// channels are included only when at least one sample carried them; gaps
// inside a present channel carry the last seen value so the arrays stay
// index-aligned.
func FromRecords(samples []RecordSample, logger *slog.Logger) *analysis.Stream {
	if len(samples) == 0 {
		return analysis.NewStream(nil, logger)
	}

	base := samples[0].Timestamp
	timeS := make([]float64, len(samples))
	velocity := make([]float64, len(samples))
	var hr, cadence, altitude []float64
	anyHR, anyCad, anyAlt := false, false, false
	for _, s := range samples {
		anyHR = anyHR || s.HasHR
		anyCad = anyCad || s.HasCad
		anyAlt = anyAlt || s.HasAlt
	}
	if anyHR {
		hr = make([]float64, len(samples))
	}
	if anyCad {
		cadence = make([]float64, len(samples))
	}
	if anyAlt {
		altitude = make([]float64, len(samples))
	}

	var lastHR, lastCad, lastAlt float64
	for i, s := range samples {
		timeS[i] = s.Timestamp.Sub(base).Seconds()
		velocity[i] = s.SpeedMS
		if anyHR {
			if s.HasHR {
				lastHR = s.HRBPM
			}
			hr[i] = lastHR
		}
		if anyCad {
			if s.HasCad {
				lastCad = s.Cadence
			}
			cadence[i] = lastCad
		}
		if anyAlt {
			if s.HasAlt {
				lastAlt = s.AltitudeM
			}
			altitude[i] = lastAlt
		}
	}

	channels := map[string][]float64{
		analysis.ChannelTime:     timeS,
		analysis.ChannelVelocity: velocity,
	}
	if anyHR {
		channels[analysis.ChannelHeartRate] = hr
	}
	if anyCad {
		channels[analysis.ChannelCadence] = cadence
	}
	if anyAlt {
		channels[analysis.ChannelAltitude] = altitude
	}
	return analysis.NewStream(channels, logger)
}
