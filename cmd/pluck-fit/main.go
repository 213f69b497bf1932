package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cwbudde/algo-pluck/analysis"
	"github.com/cwbudde/algo-pluck/internal/fitcommon"
	"github.com/cwbudde/algo-pluck/preset"
)

func main() {
	referencePath := flag.String("reference", "reference/pluck.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base preset JSON path (optional)")
	outputPreset := flag.String("output-preset", "assets/presets/fitted.json", "Path to write best fitted preset JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	knobsFlag := flag.String("knobs", "freq,feedback,dry,alpha", "Comma-separated knobs to fit: freq,feedback,dry,alpha,output_gain")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	checkpointEvery := flag.Int("checkpoint-every", 1, "Write checkpoint every N best-score improvements")
	decayDBFS := flag.Float64("decay-dbfs", -90.0, "Auto-stop threshold in dBFS")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks for stop")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds")
	maxDuration := flag.Float64("max-duration", 10.0, "Maximum render duration in seconds")
	writeBestCandidate := flag.String("write-best-candidate", "", "Optional WAV path to write best candidate render")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	workersFlag := flag.String("workers", "auto", "Parallel optimization workers (integer >= 1 or 'auto')")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *sampleRate <= 0 {
		die("sample-rate must be > 0")
	}
	*reportEvery = max(*reportEvery, 1)
	*checkpointEvery = max(*checkpointEvery, 1)
	*mayflyPop = max(*mayflyPop, 2)
	*mayflyRoundEvals = max(*mayflyRoundEvals, *mayflyPop*2)

	workers, err := fitcommon.ParseWorkers(*workersFlag)
	if err != nil {
		die("invalid -workers: %v", err)
	}
	knobs, err := parseKnobs(*knobsFlag)
	if err != nil {
		die("invalid -knobs: %v", err)
	}
	variant := strings.ToLower(*mayflyVariant)
	if _, err := newMayflyConfig(variant, *mayflyPop, len(knobs), 1); err != nil {
		die("invalid mayfly variant: %v", err)
	}

	base := preset.Default()
	if *presetPath != "" {
		base, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
	}
	base.SampleRate = *sampleRate

	ref, refSR, err := fitcommon.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err = fitcommon.ResampleIfNeeded(ref, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	freqHint, err := analysis.EstimateFundamental(ref, *sampleRate, 20, float64(*sampleRate)/4)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reference pitch unknown (%v), searching the full range\n", err)
		freqHint = 0
	} else {
		fmt.Printf("Reference pitch %.2f Hz\n", freqHint)
	}

	defs, initCand := initCandidate(base, knobs, freqHint)
	if *resume {
		resumePath := *reportPath
		if resumePath == "" {
			resumePath = *outputPreset + ".report.json"
		}
		if resumed, ok, err := loadCandidateFromReport(resumePath, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", resumePath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", resumePath)
		}
	}

	cfg := &optimizationConfig{
		reference:       ref,
		base:            base,
		defs:            defs,
		initCandidate:   initCand,
		seed:            *seed,
		timeBudget:      *timeBudget,
		maxEvals:        *maxEvals,
		reportEvery:     *reportEvery,
		checkpointEvery: *checkpointEvery,
		stop: fitcommon.DecayStop{
			DBFS:        *decayDBFS,
			HoldBlocks:  *decayHoldBlocks,
			MinDuration: *minDuration,
			MaxDuration: *maxDuration,
		},
		mayflyVariant:      variant,
		mayflyPop:          *mayflyPop,
		mayflyRoundEvals:   *mayflyRoundEvals,
		workers:            workers,
		outputPreset:       *outputPreset,
		reportPath:         *reportPath,
		referencePath:      *referencePath,
		presetPath:         *presetPath,
		writeBestCandidate: *writeBestCandidate,
	}

	fmt.Printf("Fitting %d knobs (%s) with %s, budget %s / %d evals\n",
		len(defs), strings.Join(knobs, ","), variant, time.Duration(*timeBudget*float64(time.Second)), *maxEvals)
	res, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	rep := newRunReport(cfg, res.elapsed, res.evals, res.best, res.bestMetrics, res.checkpoints+1)
	if err := writeOutputs(cfg, rep, res.best); err != nil {
		die("failed to write outputs: %v", err)
	}
	fmt.Printf("Done evals=%d elapsed=%.1fs best score=%.4f similarity=%.2f%%\n",
		res.evals, res.elapsed, res.bestMetrics.Score, res.bestMetrics.Similarity*100.0)
	for i, d := range defs {
		fmt.Printf("  %-12s %.6f\n", d.Name, res.best.Vals[i])
	}
	fmt.Printf("Wrote %s\n", *outputPreset)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
