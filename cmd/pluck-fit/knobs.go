package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-pluck/preset"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

var knobNames = []string{"freq", "feedback", "dry", "alpha", "output_gain"}

// parseKnobs parses a comma-separated list of knob names.
func parseKnobs(raw string) ([]string, error) {
	valid := make(map[string]bool, len(knobNames))
	for _, n := range knobNames {
		valid[n] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !valid[s] {
			return nil, fmt.Errorf("unknown knob %q (valid: %s)", s, strings.Join(knobNames, ", "))
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no knobs specified")
	}
	return out, nil
}

// freqRange searches one semitone around hint, or a wide range without one.
func freqRange(hint float64) (float64, float64) {
	if hint <= 0 {
		return 30, 2000
	}
	semi := math.Pow(2, 1.0/12.0)
	return hint / semi, hint * semi
}

func initCandidate(base *preset.Preset, names []string, freqHint float64) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, len(names))
	vals := make([]float64, 0, len(names))
	for _, name := range names {
		var def knobDef
		var v float64
		switch name {
		case "freq":
			if freqHint <= 0 {
				freqHint = float64(base.String.Frequency)
			}
			lo, hi := freqRange(freqHint)
			def = knobDef{Name: name, Min: lo, Max: hi}
			v = freqHint
		case "feedback":
			def = knobDef{Name: name, Min: 0.5, Max: 1.0}
			v = float64(base.String.Feedback)
		case "dry":
			def = knobDef{Name: name, Min: 0, Max: 1}
			v = float64(base.String.Dry)
		case "alpha":
			def = knobDef{Name: name, Min: 0, Max: 1}
			v = float64(base.String.Alpha)
		case "output_gain":
			def = knobDef{Name: name, Min: 0.1, Max: 4}
			v = float64(base.OutputGain)
		default:
			continue
		}
		defs = append(defs, def)
		vals = append(vals, dspcore.Clamp(v, def.Min, def.Max))
	}
	return defs, candidate{Vals: vals}
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = dspcore.Clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func applyCandidate(base *preset.Preset, defs []knobDef, c candidate) *preset.Preset {
	p := *base
	for i, def := range defs {
		v := c.Vals[i]
		switch def.Name {
		case "freq":
			p.String.Frequency = float32(v)
		case "feedback":
			p.String.Feedback = float32(v)
			// A fitted feedback replaces any decay time from the base preset.
			p.String.DecayT60 = 0
		case "dry":
			p.String.Dry = float32(v)
		case "alpha":
			p.String.Alpha = float32(v)
		case "output_gain":
			p.OutputGain = float32(v)
		}
	}
	return &p
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}

func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep runReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}

	vals := make([]float64, len(fallback.Vals))
	copy(vals, fallback.Vals)
	updated := false
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			vals[i] = dspcore.Clamp(v, d.Min, d.Max)
			if d.IsInt {
				vals[i] = math.Round(vals[i])
			}
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return candidate{Vals: vals}, true, nil
}
