package pluck

import (
	"errors"
	"fmt"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// MaxBufferSize is the fixed capacity of the delay line in samples.
const MaxBufferSize = 2048

// Default parameter values of a freshly created string.
const (
	DefaultAlpha    = 0.5
	DefaultFeedback = 0.5
	DefaultDry      = 0.5
)

// ErrInvalidParameter is returned by the setters when a value is outside its
// domain. The previous value is kept.
var ErrInvalidParameter = errors.New("pluck: invalid parameter")

// String implements a Karplus-Strong plucked string: noise recirculating
// through a delay line with a one-pole lowpass and a dry/wet mix in the
// feedback path.
//
// A String is not safe for concurrent use. Render performs no locking and no
// allocation; control changes must be applied between blocks.
type String struct {
	sampleRate int
	delay      int
	index      int

	feedback float32
	dry      float32
	alpha    float32

	buffer [MaxBufferSize]float32
}

// New creates a string with default parameters and the full buffer as loop.
func New(sampleRate int) *String {
	return &String{
		sampleRate: sampleRate,
		delay:      MaxBufferSize,
		feedback:   DefaultFeedback,
		dry:        DefaultDry,
		alpha:      DefaultAlpha,
	}
}

// SetSampleRate sets the rate used by SetFrequency. The current delay is not
// recomputed.
func (s *String) SetSampleRate(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0, got %d", ErrInvalidParameter, sampleRate)
	}
	s.sampleRate = sampleRate
	return nil
}

// SetFrequency sets the loop length to floor(sampleRate/freq) samples,
// clamped to [1, MaxBufferSize]. The index and buffer are left untouched.
func (s *String) SetFrequency(freq float32) error {
	if !(freq > 0) {
		return fmt.Errorf("%w: freq should be > 0, got %g", ErrInvalidParameter, freq)
	}
	s.delay = delayForFrequency(s.sampleRate, freq)
	return nil
}

func delayForFrequency(sampleRate int, freq float32) int {
	d := math.Floor(float64(sampleRate) / float64(freq))
	if d > MaxBufferSize {
		return MaxBufferSize
	}
	if d < 1 {
		return 1
	}
	return int(d)
}

// SetFeedback sets the energy retained per loop traversal, in [0,1].
func (s *String) SetFeedback(v float32) error {
	if !inUnitRange(v) {
		return fmt.Errorf("%w: feedback should be in [0, 1] interval, got %g", ErrInvalidParameter, v)
	}
	s.feedback = v
	return nil
}

// SetDry sets the weight of the unfiltered tap in the feedback path, in [0,1].
func (s *String) SetDry(v float32) error {
	if !inUnitRange(v) {
		return fmt.Errorf("%w: dry should be in [0, 1] interval, got %g", ErrInvalidParameter, v)
	}
	s.dry = v
	return nil
}

// SetAlpha sets the one-pole lowpass coefficient, in [0,1].
func (s *String) SetAlpha(v float32) error {
	if !inUnitRange(v) {
		return fmt.Errorf("%w: alpha should be in [0, 1] interval, got %g", ErrInvalidParameter, v)
	}
	s.alpha = v
	return nil
}

// NaN fails both comparisons.
func inUnitRange(v float32) bool {
	return v >= 0 && v <= 1
}

// Reseed fills the whole buffer, not only the active loop, with the fixed
// pseudo-noise sequence. Calling it twice yields identical contents.
func (s *String) Reseed() {
	n := newNoise()
	for i := range s.buffer {
		s.buffer[i] = n.next()
	}
}

// Excite copies src into the start of the buffer and zeroes the rest.
// Samples beyond MaxBufferSize are ignored.
func (s *String) Excite(src []float32) {
	n := copy(s.buffer[:], src)
	clear(s.buffer[n:])
}

// Render fills out with len(out) consecutive samples. The loop position
// carries over between calls, so consecutive blocks form one continuous
// signal.
func (s *String) Render(out []float32) {
	if len(out) == 0 {
		return
	}

	delay := s.delay
	fdry := s.feedback * s.dry
	flp := s.feedback * (1.0 - s.dry)
	alpha := s.alpha
	beta := 1.0 - alpha
	buf := &s.buffer

	prev := s.index % delay
	next := prev
	for i := range out {
		next = prev + 1
		if next >= delay {
			next = 0
		}
		cur := buf[next]
		filtered := alpha*cur + beta*buf[prev]
		v := float32(dspcore.FlushDenormals(float64(fdry*cur + flp*filtered)))
		buf[next] = v
		out[i] = v
		prev = next
	}
	s.index = next
}

// Delay returns the active loop length in samples.
func (s *String) Delay() int { return s.delay }

// Index returns the position of the last written sample.
func (s *String) Index() int { return s.index }

// Feedback returns the current feedback amount.
func (s *String) Feedback() float32 { return s.feedback }

// Dry returns the current dry mix.
func (s *String) Dry() float32 { return s.dry }

// Alpha returns the current filter coefficient.
func (s *String) Alpha() float32 { return s.alpha }

// SampleRate returns the rate used to convert frequencies to delays.
func (s *String) SampleRate() int { return s.sampleRate }

// Buffer returns a copy of the full delay buffer.
func (s *String) Buffer() []float32 {
	out := make([]float32, MaxBufferSize)
	copy(out, s.buffer[:])
	return out
}
