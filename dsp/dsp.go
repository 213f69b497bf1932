package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Biquad is a second-order IIR filter (Direct Form I, no heap allocations).
type Biquad struct {
	b0, b1, b2 float32
	a1, a2     float32

	x1, x2 float32
	y1, y2 float32
}

// NewBiquad creates a biquad from coefficients normalised by a0.
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	return &Biquad{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

// NewLowpass creates an RBJ lowpass. The cutoff is clamped below Nyquist.
func NewLowpass(cutoff, sampleRate, q float32) *Biquad {
	nyquist := float64(sampleRate) / 2
	fc := dspcore.Clamp(float64(cutoff), 1, nyquist*0.99)
	if q <= 0 {
		q = 0.7071
	}
	w0 := 2.0 * math.Pi * fc / float64(sampleRate)
	alpha := math.Sin(w0) / (2.0 * float64(q))
	cosw0 := math.Cos(w0)

	a0 := 1.0 + alpha
	return NewBiquad(
		float32((1.0-cosw0)/2.0/a0),
		float32((1.0-cosw0)/a0),
		float32((1.0-cosw0)/2.0/a0),
		float32(-2.0*cosw0/a0),
		float32((1.0-alpha)/a0),
	)
}

// Process filters one sample.
func (b *Biquad) Process(x float32) float32 {
	y := b.b0*x + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	y = float32(dspcore.FlushDenormals(float64(y)))
	b.x2, b.x1 = b.x1, x
	b.y2, b.y1 = b.y1, y
	return y
}

// ProcessBlock filters buf in place.
func (b *Biquad) ProcessBlock(buf []float32) {
	for i, x := range buf {
		buf[i] = b.Process(x)
	}
}

// Reset clears the filter history.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// DefaultDCBlockerPole places the DC blocker corner near 35 Hz at 44.1 kHz.
const DefaultDCBlockerPole = 0.995

// DCBlocker removes the DC offset a seeded noise burst leaves in the loop:
// y[n] = x[n] - x[n-1] + r*y[n-1].
type DCBlocker struct {
	r  float32
	x1 float32
	y1 float32
}

// NewDCBlocker creates a DC blocker with pole r, clamped to [0, 0.9999].
func NewDCBlocker(r float32) *DCBlocker {
	return &DCBlocker{r: float32(dspcore.Clamp(float64(r), 0, 0.9999))}
}

// Process filters one sample.
func (d *DCBlocker) Process(x float32) float32 {
	y := x - d.x1 + d.r*d.y1
	y = float32(dspcore.FlushDenormals(float64(y)))
	d.x1 = x
	d.y1 = y
	return y
}

// ProcessBlock filters buf in place.
func (d *DCBlocker) ProcessBlock(buf []float32) {
	for i, x := range buf {
		buf[i] = d.Process(x)
	}
}

// Reset clears the filter history.
func (d *DCBlocker) Reset() {
	d.x1, d.y1 = 0, 0
}

// ApplyGain scales buf in place.
func ApplyGain(buf []float32, gain float32) {
	if gain == 1 {
		return
	}
	for i := range buf {
		buf[i] *= gain
	}
}
