package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-pluck/analysis"
	"github.com/cwbudde/algo-pluck/internal/fitcommon"
	"github.com/cwbudde/algo-pluck/preset"
)

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	PresetPath      string             `json:"preset_path"`
	OutputPreset    string             `json:"output_preset"`
	SampleRate      int                `json:"sample_rate"`
	DurationSec     float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestKnobs       map[string]float64 `json:"best_knobs"`
	CheckpointCount int                `json:"checkpoint_count"`
}

func newRunReport(cfg *optimizationConfig, elapsed float64, evals int, best candidate, bestM analysis.Metrics, checkpoints int) runReport {
	knobs := make(map[string]float64, len(cfg.defs))
	for i, d := range cfg.defs {
		knobs[d.Name] = best.Vals[i]
	}
	return runReport{
		ReferencePath:   cfg.referencePath,
		PresetPath:      cfg.presetPath,
		OutputPreset:    cfg.outputPreset,
		SampleRate:      cfg.base.SampleRate,
		DurationSec:     elapsed,
		Evaluations:     evals,
		MayflyVariant:   cfg.mayflyVariant,
		BestScore:       bestM.Score,
		BestSimilarity:  bestM.Similarity,
		BestMetrics:     bestM,
		BestKnobs:       knobs,
		CheckpointCount: checkpoints,
	}
}

// writeOutputs writes the fitted preset and the run report next to it.
func writeOutputs(cfg *optimizationConfig, rep runReport, best candidate) error {
	p := applyCandidate(cfg.base, cfg.defs, best)
	if err := preset.SaveJSON(cfg.outputPreset, p); err != nil {
		return err
	}
	reportPath := cfg.reportPath
	if reportPath == "" {
		reportPath = cfg.outputPreset + ".report.json"
	}
	return writeJSON(reportPath, rep)
}

func writeBestCandidateSnapshot(path string, base *preset.Preset, defs []knobDef, best candidate, stop fitcommon.DecayStop) error {
	p := applyCandidate(base, defs, best)
	out, err := renderCandidate(p, stop)
	if err != nil {
		return err
	}
	return fitcommon.WriteMonoWAV(path, out, p.SampleRate)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
