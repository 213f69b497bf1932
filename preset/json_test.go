package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-pluck/pluck"
)

func writePreset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesFields(t *testing.T) {
	path := writePreset(t, `{
  "sample_rate": 44100,
  "block_size": 128,
  "freq": 196,
  "feedback": 0.996,
  "dry": 0.1,
  "alpha": 0.35,
  "decay_t60": 2.5,
  "output_gain": 0.8,
  "dc_block": true,
  "tone_hz": 6000
}`)

	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if p.SampleRate != 44100 || p.BlockSize != 128 {
		t.Fatalf("engine fields mismatch: %+v", p)
	}
	s := p.String
	if s.Frequency != 196 || s.Feedback != 0.996 || s.Dry != 0.1 || s.Alpha != 0.35 || s.DecayT60 != 2.5 {
		t.Fatalf("string params mismatch: %+v", s)
	}
	if p.OutputGain != 0.8 || !p.DCBlock || p.ToneHz != 6000 {
		t.Fatalf("output fields mismatch: %+v", p)
	}
}

func TestLoadJSONPartialKeepsDefaults(t *testing.T) {
	p, err := LoadJSON(writePreset(t, `{"alpha": 0.9}`))
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	def := Default()
	if p.String.Alpha != 0.9 {
		t.Fatalf("alpha = %g", p.String.Alpha)
	}
	if p.String.Feedback != pluck.DefaultFeedback || p.String.Dry != pluck.DefaultDry {
		t.Fatalf("defaults lost: %+v", p.String)
	}
	if p.SampleRate != def.SampleRate || p.BlockSize != def.BlockSize || p.OutputGain != 1 {
		t.Fatalf("engine defaults lost: %+v", p)
	}
}

func TestLoadJSONRejectsInvalidRanges(t *testing.T) {
	bad := []string{
		`{"feedback": 1.2}`,
		`{"dry": -0.1}`,
		`{"alpha": 2}`,
		`{"freq": 0}`,
		`{"sample_rate": 0}`,
		`{"block_size": -64}`,
		`{"output_gain": 0}`,
		`{"decay_t60": -1}`,
		`{"tone_hz": -5}`,
		`{"freq": "high"}`,
	}
	for _, content := range bad {
		if _, err := LoadJSON(writePreset(t, content)); err == nil {
			t.Fatalf("expected error for %s", content)
		}
	}
}

func TestLoadJSONMissingFile(t *testing.T) {
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSaveJSONRoundTrip(t *testing.T) {
	p := Default()
	p.String.Frequency = 330
	p.String.Feedback = 0.97
	p.ToneHz = 5000
	p.DCBlock = true

	path := filepath.Join(t.TempDir(), "out", "fitted.json")
	if err := SaveJSON(path, p); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if *got != *p {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, p)
	}
}

func TestApplyFileNilDestination(t *testing.T) {
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatalf("expected error for nil destination")
	}
	if err := ApplyFile(Default(), nil); err != nil {
		t.Fatalf("nil file should be a no-op: %v", err)
	}
}
