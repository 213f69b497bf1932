package analysis

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

// maxPitchFrames bounds the autocorrelation length.
const maxPitchFrames = 16384

// EstimateFundamental returns the fundamental frequency of a periodic signal
// in [minHz, maxHz], using the FFT autocorrelation peak refined by parabolic
// interpolation.
func EstimateFundamental(samples []float64, sampleRate int, minHz, maxHz float64) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("sample rate must be > 0: %d", sampleRate)
	}
	if minHz <= 0 || maxHz <= minHz {
		return 0, fmt.Errorf("invalid pitch range [%g, %g]", minHz, maxHz)
	}

	x := samples
	if len(x) > maxPitchFrames {
		x = x[:maxPitchFrames]
	}
	minLag := int(math.Floor(float64(sampleRate) / maxHz))
	maxLag := int(math.Ceil(float64(sampleRate) / minHz))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag+2 >= len(x) {
		return 0, fmt.Errorf("signal too short for %g Hz: %d samples", minHz, len(samples))
	}

	r, err := autocorrelate(x)
	if err != nil {
		return 0, err
	}
	if r[0] <= 0 {
		return 0, fmt.Errorf("silent signal")
	}

	// Skip the zero-lag lobe: start after r first dips below zero.
	start := minLag
	for start < maxLag && r[start] > 0 && r[start] <= r[start-1] {
		start++
	}

	best := start
	for lag := start + 1; lag <= maxLag; lag++ {
		if r[lag] > r[best] {
			best = lag
		}
	}
	if r[best] <= 0 {
		return 0, fmt.Errorf("no periodicity in [%g, %g] Hz", minHz, maxHz)
	}

	lag := float64(best) + parabolicOffset(r[best-1], r[best], r[best+1])
	return float64(sampleRate) / lag, nil
}

// autocorrelate returns the biased autocorrelation for lags 0..len(x)-1.
func autocorrelate(x []float64) ([]float32, error) {
	n := len(x)
	a := make([]float32, n)
	b := make([]float32, n)
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)
	for i, v := range x {
		a[i] = float32(v - mean)
		b[n-1-i] = a[i]
	}
	full := make([]float32, 2*n-1)
	if err := algofft.ConvolveReal(full, a, b); err != nil {
		return nil, err
	}
	return full[n-1:], nil
}

func parabolicOffset(l, c, r float32) float64 {
	den := float64(l) - 2*float64(c) + float64(r)
	if den == 0 {
		return 0
	}
	off := 0.5 * (float64(l) - float64(r)) / den
	if off > 0.5 || off < -0.5 {
		return 0
	}
	return off
}

// CentsBetween returns the interval from a to b in cents.
func CentsBetween(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return math.NaN()
	}
	return 1200 * math.Log2(b/a)
}
