package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-pluck/pluck"
)

// File is the JSON schema for pluck presets. Absent fields keep defaults.
type File struct {
	SampleRate *int     `json:"sample_rate,omitempty"`
	BlockSize  *int     `json:"block_size,omitempty"`
	Freq       *float32 `json:"freq,omitempty"`
	Feedback   *float32 `json:"feedback,omitempty"`
	Dry        *float32 `json:"dry,omitempty"`
	Alpha      *float32 `json:"alpha,omitempty"`
	DecayT60   *float32 `json:"decay_t60,omitempty"`
	OutputGain *float32 `json:"output_gain,omitempty"`
	DCBlock    *bool    `json:"dc_block,omitempty"`
	ToneHz     *float32 `json:"tone_hz,omitempty"`
}

// Preset is a fully resolved configuration for a render.
type Preset struct {
	SampleRate int
	BlockSize  int
	String     pluck.Params
	OutputGain float32
	DCBlock    bool
	ToneHz     float32
}

// Default returns the preset used when no file is given.
func Default() *Preset {
	return &Preset{
		SampleRate: 48000,
		BlockSize:  64,
		String:     *pluck.NewDefaultParams(),
		OutputGain: 1.0,
	}
}

// LoadJSON loads a preset JSON file and applies it on top of Default.
func LoadJSON(path string) (*Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	p := Default()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing preset.
func ApplyFile(dst *Preset, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination preset")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate <= 0 {
			return fmt.Errorf("sample_rate must be > 0")
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.BlockSize != nil {
		if *f.BlockSize <= 0 {
			return fmt.Errorf("block_size must be > 0")
		}
		dst.BlockSize = *f.BlockSize
	}
	if f.Freq != nil {
		if *f.Freq <= 0 {
			return fmt.Errorf("freq must be > 0")
		}
		dst.String.Frequency = *f.Freq
	}
	if err := unitField("feedback", f.Feedback, &dst.String.Feedback); err != nil {
		return err
	}
	if err := unitField("dry", f.Dry, &dst.String.Dry); err != nil {
		return err
	}
	if err := unitField("alpha", f.Alpha, &dst.String.Alpha); err != nil {
		return err
	}
	if f.DecayT60 != nil {
		if *f.DecayT60 < 0 {
			return fmt.Errorf("decay_t60 must be >= 0")
		}
		dst.String.DecayT60 = *f.DecayT60
	}
	if f.OutputGain != nil {
		if *f.OutputGain <= 0 {
			return fmt.Errorf("output_gain must be > 0")
		}
		dst.OutputGain = *f.OutputGain
	}
	if f.DCBlock != nil {
		dst.DCBlock = *f.DCBlock
	}
	if f.ToneHz != nil {
		if *f.ToneHz < 0 {
			return fmt.Errorf("tone_hz must be >= 0")
		}
		dst.ToneHz = *f.ToneHz
	}
	return nil
}

func unitField(name string, src *float32, dst *float32) error {
	if src == nil {
		return nil
	}
	if *src < 0 || *src > 1 {
		return fmt.Errorf("%s must be in [0,1]", name)
	}
	*dst = *src
	return nil
}

// ToFile converts a preset into its full JSON form.
func ToFile(p *Preset) *File {
	f := &File{
		SampleRate: &p.SampleRate,
		BlockSize:  &p.BlockSize,
		Feedback:   &p.String.Feedback,
		Dry:        &p.String.Dry,
		Alpha:      &p.String.Alpha,
		OutputGain: &p.OutputGain,
		DCBlock:    &p.DCBlock,
	}
	if p.String.Frequency > 0 {
		f.Freq = &p.String.Frequency
	}
	if p.String.DecayT60 > 0 {
		f.DecayT60 = &p.String.DecayT60
	}
	if p.ToneHz > 0 {
		f.ToneHz = &p.ToneHz
	}
	return f
}

// SaveJSON writes p as indented JSON, creating parent directories.
func SaveJSON(path string, p *Preset) error {
	b, err := json.MarshalIndent(ToFile(p), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
