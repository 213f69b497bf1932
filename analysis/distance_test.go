package analysis

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
)

func TestCompareIdenticalSignalsHasLowDistance(t *testing.T) {
	sr := 48000
	x := makeDecaySine(sr, 440.0, 1.5, 0.7)
	m := Compare(x, x, sr)
	if m.Score > 0.05 {
		t.Fatalf("expected very low score for identical signals, got %f (%+v)", m.Score, m)
	}
	if m.Similarity < 0.8 {
		t.Fatalf("expected high similarity for identical signals, got %f", m.Similarity)
	}
	if math.Abs(m.RefPitchHz-440) > 1 {
		t.Fatalf("reference pitch = %f, want ~440", m.RefPitchHz)
	}
}

func TestCompareIgnoresLevelAndLeadingSilence(t *testing.T) {
	sr := 48000
	x := makeDecaySine(sr, 330.0, 1.0, 0.5)
	y := make([]float64, 1000+len(x))
	for i, v := range x {
		y[1000+i] = 0.25 * v
	}
	m := Compare(x, y, sr)
	if m.Score > 0.05 {
		t.Fatalf("expected level/offset-insensitive comparison, got score %f", m.Score)
	}
}

func TestCompareDifferentSignalsHasHigherDistance(t *testing.T) {
	sr := 48000
	a := makeDecaySine(sr, 261.63, 1.8, 0.8)
	b := makeDecaySine(sr, 330.0, 0.8, 0.25)
	m := Compare(a, b, sr)
	if m.Score <= 0.3 {
		t.Fatalf("expected higher score for different signals, got %f", m.Score)
	}
	if m.PitchDiffCents < 300 {
		t.Fatalf("pitch difference = %f cents, want ~400", m.PitchDiffCents)
	}
	if m.DecayDiffDBPerS <= 1 {
		t.Fatalf("decay difference = %f dB/s, expected a clear gap", m.DecayDiffDBPerS)
	}
}

func TestCompareDegenerateInputs(t *testing.T) {
	x := makeDecaySine(48000, 440, 0.5, 0.3)
	cases := []struct {
		name string
		ref  []float64
		cand []float64
		sr   int
	}{
		{"empty", nil, x, 48000},
		{"silent", x, make([]float64, len(x)), 48000},
		{"short", x[:100], x[:100], 48000},
		{"bad rate", x, x, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := Compare(c.ref, c.cand, c.sr)
			if m.Score != 1 || m.Similarity != 0 {
				t.Fatalf("expected worst score, got score=%f sim=%f", m.Score, m.Similarity)
			}
		})
	}
}

func TestCompareNoiseMetricsMarshal(t *testing.T) {
	ref := randomSignal(48000, 3)
	cand := randomSignal(48000, 5)
	m := Compare(ref, cand, 48000)
	if _, err := json.Marshal(m); err != nil {
		t.Fatalf("metrics must be JSON-safe: %v", err)
	}
	if m.Score < 0 || m.Score > 1 {
		t.Fatalf("score outside [0,1]: %f", m.Score)
	}
}

func TestDecaySlopeMatchesExponential(t *testing.T) {
	sr := 48000
	x := makeDecaySine(sr, 440, 2.0, 0.5)
	env := rmsEnvelope(x, envFrame, envHop)
	got := decaySlopeDBPerS(env, float64(envHop)/float64(sr))
	want := -20.0 / math.Ln10 / 0.5
	if math.Abs(got-want) > 0.5 {
		t.Fatalf("decay slope = %f dB/s, want %f", got, want)
	}
}

func makeDecaySine(sr int, freq float64, durationSec float64, decaySec float64) []float64 {
	n := int(float64(sr) * durationSec)
	if n < 1 {
		n = 1
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		env := math.Exp(-t / decaySec)
		out[i] = env * math.Sin(2*math.Pi*freq*t)
	}
	return out
}

func randomSignal(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}
