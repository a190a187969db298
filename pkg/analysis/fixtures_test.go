package analysis

// Shared fixture builders. All fixtures are 1Hz streams with time starting
// at zero, matching what watches actually record.

func timeAxis(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func constSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

// normalRunStream is a plausible easy-then-hard run: velocity ramps from a
// jog to a solid pace and HR follows it with a lag-free linear response.
func normalRunStream(n int) *Stream {
	return &Stream{
		Time:     timeAxis(n),
		Velocity: series(n, func(i int) float64 { return 2.5 + 1.5*float64(i)/float64(n) }),
		HeartRate: series(n, func(i int) float64 {
			return 120 + 50*float64(i)/float64(n)
		}),
	}
}

// invertedHRStream gets faster while HR drifts down, the classic signature
// of a wrist sensor locked onto cadence noise.
func invertedHRStream(n int) *Stream {
	return &Stream{
		Time:      timeAxis(n),
		Velocity:  series(n, func(i int) float64 { return 2.0 + 2.5*float64(i)/float64(n) }),
		HeartRate: series(n, func(i int) float64 { return 180 - 60*float64(i)/float64(n) }),
	}
}

func fullContext() *AthleteContext {
	return &AthleteContext{MaxHR: 190, RestingHR: 55, ThresholdHR: 170, ThresholdPacePerKM: 4.5}
}
