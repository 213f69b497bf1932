package pluck

import (
	"errors"
	"math"
	"testing"
)

func TestApplyParams(t *testing.T) {
	s := New(48000)
	p := &Params{Frequency: 480, Feedback: 0.97, Dry: 0.1, Alpha: 0.8}
	if err := s.Apply(p); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.Delay() != 100 || s.Feedback() != 0.97 || s.Dry() != 0.1 || s.Alpha() != 0.8 {
		t.Fatalf("params not applied: %+v delay=%d", s.Params(), s.Delay())
	}

	got := s.Params()
	if got.Frequency != 480 {
		t.Fatalf("Params().Frequency = %g, want 480", got.Frequency)
	}
}

func TestApplyZeroFrequencyKeepsDelay(t *testing.T) {
	s := New(48000)
	if err := s.Apply(NewDefaultParams()); err != nil {
		t.Fatalf("Apply defaults: %v", err)
	}
	if s.Delay() != MaxBufferSize {
		t.Fatalf("delay = %d, want %d", s.Delay(), MaxBufferSize)
	}
}

func TestApplyReportsEveryRejectedField(t *testing.T) {
	s := New(48000)
	p := &Params{Frequency: -5, Feedback: 2, Dry: 0.25, Alpha: -1}
	err := s.Apply(p)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("Apply err = %v, want ErrInvalidParameter", err)
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		t.Fatalf("expected joined error, got %T", err)
	}
	if n := len(joined.Unwrap()); n != 3 {
		t.Fatalf("got %d errors, want 3: %v", n, err)
	}
	if s.Dry() != 0.25 {
		t.Fatalf("valid field not applied: dry=%g", s.Dry())
	}
	if s.Feedback() != DefaultFeedback || s.Alpha() != DefaultAlpha || s.Delay() != MaxBufferSize {
		t.Fatalf("rejected fields changed state")
	}
}

func TestApplyNil(t *testing.T) {
	if err := New(48000).Apply(nil); err != nil {
		t.Fatalf("Apply(nil): %v", err)
	}
}

func TestApplyDecayT60OverridesFeedback(t *testing.T) {
	s := New(48000)
	p := &Params{Frequency: 480, Feedback: 0.1, Dry: 0.5, Alpha: 0.5, DecayT60: 1}
	if err := s.Apply(p); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := math.Exp(-ln1000 / 480.0)
	if math.Abs(float64(s.Feedback())-want) > 1e-3 {
		t.Fatalf("feedback = %g, want %g", s.Feedback(), want)
	}
}

func TestFeedbackForDecay(t *testing.T) {
	tests := []struct {
		t60        float32
		delay      int
		sampleRate int
	}{
		{1, 100, 48000},
		{0.25, 218, 48000},
		{4, 2048, 44100},
		{0.5, 512, 8000},
	}
	for _, tt := range tests {
		got := FeedbackForDecay(tt.t60, tt.delay, tt.sampleRate)
		loops := float64(tt.t60) * float64(tt.sampleRate) / float64(tt.delay)
		want := math.Exp(-ln1000 / loops)
		if math.Abs(float64(got)-want) > 1e-3 {
			t.Fatalf("FeedbackForDecay(%g,%d,%d) = %g, want %g", tt.t60, tt.delay, tt.sampleRate, got, want)
		}
		if got < 0 || got > 1 {
			t.Fatalf("feedback %g outside [0,1]", got)
		}
	}

	if got := FeedbackForDecay(0, 100, 48000); got != DefaultFeedback {
		t.Fatalf("FeedbackForDecay(0) = %g, want default", got)
	}
	if got := FeedbackForDecay(1, 0, 48000); got != DefaultFeedback {
		t.Fatalf("FeedbackForDecay(delay 0) = %g, want default", got)
	}
}

func TestLongerDecayRingsLonger(t *testing.T) {
	render := func(t60 float32) float64 {
		s := New(48000)
		_ = s.Apply(&Params{Frequency: 220, Dry: 0.5, Alpha: 0.5, DecayT60: t60})
		s.Reseed()
		out := make([]float32, 24000)
		s.Render(out)
		return rms(out[19200:])
	}
	short := render(0.2)
	long := render(2)
	if long <= short {
		t.Fatalf("expected longer t60 to ring longer: short=%g long=%g", short, long)
	}
}
