package fitcommon

import (
	"errors"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	dsptime "github.com/cwbudde/algo-dsp/stats/time"
	"github.com/cwbudde/algo-pluck/dsp"
	"github.com/cwbudde/algo-pluck/host"
	"github.com/cwbudde/algo-pluck/pluck"
	"github.com/cwbudde/algo-pluck/preset"
)

// DecayStop ends a render once the output stays below DBFS for HoldBlocks
// consecutive blocks, but never before MinDuration or after MaxDuration.
type DecayStop struct {
	DBFS        float64
	HoldBlocks  int
	MinDuration float64
	MaxDuration float64
}

// DefaultDecayStop returns the auto-stop settings used by the commands.
func DefaultDecayStop() DecayStop {
	return DecayStop{
		DBFS:        -90,
		HoldBlocks:  6,
		MinDuration: 0.5,
		MaxDuration: 10,
	}
}

// NewEngine builds a string and its host engine from p.
func NewEngine(p *preset.Preset, diag func(error)) (*host.Engine, *pluck.String, error) {
	if p == nil {
		return nil, nil, errors.New("nil preset")
	}
	s := pluck.New(p.SampleRate)
	if err := s.Apply(&p.String); err != nil {
		return nil, nil, err
	}
	opts := []host.Option{host.WithOutputGain(p.OutputGain)}
	if diag != nil {
		opts = append(opts, host.WithDiagnostics(diag))
	}
	if p.DCBlock {
		opts = append(opts, host.WithDCBlocker(dsp.DefaultDCBlockerPole))
	}
	if p.ToneHz > 0 {
		opts = append(opts, host.WithTone(p.ToneHz))
	}
	e, err := host.NewEngine(s, p.SampleRate, opts...)
	if err != nil {
		return nil, nil, err
	}
	return e, s, nil
}

// RenderUntilDecay runs e block by block until stop is satisfied. beforeBlock,
// when set, is called with the starting frame of every block so callers can
// post messages.
func RenderUntilDecay(e *host.Engine, blockSize int, stop DecayStop, beforeBlock func(frame int64)) ([]float32, error) {
	if e == nil {
		return nil, errors.New("nil engine")
	}
	if blockSize < 1 {
		return nil, errors.New("block size must be >= 1")
	}
	if stop.HoldBlocks < 1 {
		stop.HoldBlocks = 1
	}
	stop.MinDuration = math.Max(stop.MinDuration, 0)
	stop.MaxDuration = math.Max(stop.MaxDuration, stop.MinDuration)

	sr := float64(e.SampleRate())
	minFrames := int(sr * stop.MinDuration)
	maxFrames := int(sr * stop.MaxDuration)
	if maxFrames < 1 {
		return nil, errors.New("max duration too small")
	}

	threshold := dspcore.DBToLinear(stop.DBFS)
	out := make([]float32, maxFrames)
	scratch := make([]float64, blockSize)
	rendered := 0
	below := 0
	for rendered < maxFrames {
		n := min(blockSize, maxFrames-rendered)
		if beforeBlock != nil {
			beforeBlock(e.Frame())
		}
		block := out[rendered : rendered+n]
		e.Process(block)
		rendered += n

		if rendered < minFrames {
			continue
		}
		for i, v := range block {
			scratch[i] = float64(v)
		}
		if dsptime.RMS(scratch[:n]) < threshold {
			below++
			if below >= stop.HoldBlocks {
				break
			}
		} else {
			below = 0
		}
	}
	return out[:rendered], nil
}
