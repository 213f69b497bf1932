package main

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-pluck/internal/fitcommon"
	"github.com/cwbudde/algo-pluck/preset"
)

func TestNewMayflyConfig(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{variant: "ma"},
		{variant: "desma"},
		{variant: "olce"},
		{variant: "eobbma"},
		{variant: "gsasma"},
		{variant: "mpma"},
		{variant: "aoblmoa"},
		{variant: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			cfg, err := newMayflyConfig(tt.variant, 10, 4, 20)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("newMayflyConfig(%q) expected error", tt.variant)
				}
				return
			}
			if err != nil {
				t.Fatalf("newMayflyConfig(%q) unexpected error: %v", tt.variant, err)
			}
			if cfg.ProblemSize != 4 || cfg.NPop != 10 || cfg.NPopF != 10 || cfg.MaxIterations != 20 {
				t.Fatalf("unexpected config: size=%d pop=%d/%d iters=%d", cfg.ProblemSize, cfg.NPop, cfg.NPopF, cfg.MaxIterations)
			}
			if cfg.NC != 20 || cfg.NM < 1 {
				t.Fatalf("NC=%d NM=%d", cfg.NC, cfg.NM)
			}
		})
	}
}

func TestReserveEvalCapsAtMax(t *testing.T) {
	const (
		maxEvals = 47
		workers  = 8
	)

	var evals int64
	var granted int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, ok := reserveEval(&evals, maxEvals); !ok {
					return
				}
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	if granted != maxEvals || evals != maxEvals {
		t.Fatalf("granted=%d evals=%d, want %d", granted, evals, maxEvals)
	}
}

func testStop() fitcommon.DecayStop {
	return fitcommon.DecayStop{DBFS: -80, HoldBlocks: 4, MinDuration: 0.1, MaxDuration: 0.3}
}

func TestEvaluateCandidateMatchesItsOwnRender(t *testing.T) {
	base := preset.Default()
	base.String.Frequency = 330
	base.String.Feedback = 0.995
	ref, err := renderCandidate(base, testStop())
	if err != nil {
		t.Fatalf("renderCandidate: %v", err)
	}

	defs, cand := initCandidate(base, []string{"feedback", "alpha"}, 330)
	cfg := &optimizationConfig{
		reference: fitcommon.ToFloat64(ref),
		base:      base,
		defs:      defs,
		stop:      testStop(),
	}
	m, err := evaluateCandidate(cfg, cand)
	if err != nil {
		t.Fatalf("evaluateCandidate: %v", err)
	}
	if m.Score > 0.05 {
		t.Fatalf("identical render scored %f", m.Score)
	}

	far := candidate{Vals: []float64{0.6, 0.05}}
	mf, err := evaluateCandidate(cfg, far)
	if err != nil {
		t.Fatalf("evaluateCandidate: %v", err)
	}
	if mf.Score <= m.Score {
		t.Fatalf("distant candidate scored %f <= %f", mf.Score, m.Score)
	}
}

func TestRunOptimizationRespectsEvalBudget(t *testing.T) {
	base := preset.Default()
	base.String.Frequency = 330
	base.String.Feedback = 0.99
	ref, err := renderCandidate(base, testStop())
	if err != nil {
		t.Fatalf("renderCandidate: %v", err)
	}

	start := *base
	start.String.Feedback = 0.8
	defs, cand := initCandidate(&start, []string{"feedback"}, 330)
	dir := t.TempDir()
	cfg := &optimizationConfig{
		reference:        fitcommon.ToFloat64(ref),
		base:             &start,
		defs:             defs,
		initCandidate:    cand,
		seed:             7,
		timeBudget:       20,
		maxEvals:         12,
		reportEvery:      100,
		checkpointEvery:  1,
		stop:             testStop(),
		mayflyVariant:    "ma",
		mayflyPop:        2,
		mayflyRoundEvals: 4,
		workers:          1,
		outputPreset:     filepath.Join(dir, "fitted.json"),
	}
	initM, err := evaluateCandidate(cfg, cand)
	if err != nil {
		t.Fatalf("evaluateCandidate: %v", err)
	}

	res, err := runOptimization(cfg)
	if err != nil {
		t.Fatalf("runOptimization: %v", err)
	}
	if res.evals > cfg.maxEvals {
		t.Fatalf("evals = %d exceeds budget %d", res.evals, cfg.maxEvals)
	}
	if res.bestMetrics.Score > initM.Score {
		t.Fatalf("best score %f worse than start %f", res.bestMetrics.Score, initM.Score)
	}
	if len(res.best.Vals) != 1 || math.IsNaN(res.best.Vals[0]) {
		t.Fatalf("unexpected best candidate %+v", res.best)
	}
	if res.checkpoints > 0 {
		if _, err := os.Stat(cfg.outputPreset); err != nil {
			t.Fatalf("checkpoint preset missing: %v", err)
		}
	}
}
