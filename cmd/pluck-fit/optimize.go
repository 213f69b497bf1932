package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-pluck/analysis"
	"github.com/cwbudde/algo-pluck/host"
	"github.com/cwbudde/algo-pluck/internal/fitcommon"
	"github.com/cwbudde/algo-pluck/preset"
	"github.com/cwbudde/mayfly"
)

type optimizationConfig struct {
	reference          []float64
	base               *preset.Preset
	defs               []knobDef
	initCandidate      candidate
	seed               int64
	timeBudget         float64
	maxEvals           int
	reportEvery        int
	checkpointEvery    int
	stop               fitcommon.DecayStop
	mayflyVariant      string
	mayflyPop          int
	mayflyRoundEvals   int
	workers            int
	outputPreset       string
	reportPath         string
	referencePath      string
	presetPath         string
	writeBestCandidate string
}

type optimizationResult struct {
	best        candidate
	bestMetrics analysis.Metrics
	evals       int
	elapsed     float64
	checkpoints int
}

type optimizationState struct {
	mu          sync.Mutex
	best        candidate
	bestMetrics analysis.Metrics
	checkpoints int
}

// renderCandidate plucks the string once and renders until it has decayed.
func renderCandidate(p *preset.Preset, stop fitcommon.DecayStop) ([]float32, error) {
	e, _, err := fitcommon.NewEngine(p, nil)
	if err != nil {
		return nil, err
	}
	e.Post(host.Bang())
	return fitcommon.RenderUntilDecay(e, p.BlockSize, stop, nil)
}

func evaluateCandidate(cfg *optimizationConfig, c candidate) (analysis.Metrics, error) {
	p := applyCandidate(cfg.base, cfg.defs, c)
	out, err := renderCandidate(p, cfg.stop)
	if err != nil {
		return analysis.Metrics{}, err
	}
	return analysis.Compare(cfg.reference, fitcommon.ToFloat64(out), p.SampleRate), nil
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)

	best := cloneCandidate(cfg.initCandidate)
	bestM, err := evaluateCandidate(cfg, best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", bestM.Score, bestM.Similarity*100.0)

	state := &optimizationState{
		best:        best,
		bestMetrics: bestM,
	}
	var evals int64 = 1
	var rounds int64
	var improves int64
	var outputMu sync.Mutex
	var latestPersistedImprove int64

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) {
					return
				}
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}
				round := int(atomic.AddInt64(&rounds, 1))
				budget := min(cfg.mayflyRoundEvals, remaining)
				iters := max(1, budget/(2*cfg.mayflyPop))

				mayflyConfig, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					m, err := evaluateCandidate(cfg, cand)
					if err != nil {
						return currentBestScore(state) + 0.8
					}

					improved := false
					checkpointDue := false
					var improveNum int64

					state.mu.Lock()
					if m.Score < state.bestMetrics.Score {
						state.best = cloneCandidate(cand)
						state.bestMetrics = m
						improved = true
						improveNum = atomic.AddInt64(&improves, 1)
						checkpointDue = cfg.checkpointEvery > 0 && improveNum%int64(cfg.checkpointEvery) == 0
					}
					bestSnapshot := cloneCandidate(state.best)
					bestMetrics := state.bestMetrics
					state.mu.Unlock()

					if improved {
						fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n", improveNum, evalNum, bestMetrics.Score, bestMetrics.Similarity*100.0)
						outputMu.Lock()
						if improveNum > latestPersistedImprove {
							latestPersistedImprove = improveNum
							if cfg.writeBestCandidate != "" {
								if err := writeBestCandidateSnapshot(cfg.writeBestCandidate, cfg.base, cfg.defs, bestSnapshot, cfg.stop); err != nil {
									fmt.Fprintf(os.Stderr, "failed to update best candidate wav: %v\n", err)
								}
							}
							if checkpointDue {
								state.mu.Lock()
								checkpointNum := state.checkpoints + 1
								state.mu.Unlock()
								rep := newRunReport(cfg, time.Since(start).Seconds(), int(atomic.LoadInt64(&evals)), bestSnapshot, bestMetrics, checkpointNum)
								if err := writeOutputs(cfg, rep, bestSnapshot); err != nil {
									fmt.Fprintf(os.Stderr, "checkpoint write failed: %v\n", err)
								} else {
									state.mu.Lock()
									state.checkpoints = max(state.checkpoints, checkpointNum)
									state.mu.Unlock()
								}
							}
						}
						outputMu.Unlock()
					}

					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						fmt.Printf("Progress round=%d eval=%d elapsed=%.1fs best=%.4f\n", round, evalNum, time.Since(start).Seconds(), bestMetrics.Score)
					}
					return m.Score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	return &optimizationResult{
		best:        cloneCandidate(state.best),
		bestMetrics: state.bestMetrics,
		evals:       int(atomic.LoadInt64(&evals)),
		elapsed:     time.Since(start).Seconds(),
		checkpoints: state.checkpoints,
	}, nil
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.bestMetrics.Score
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	// Parent pairs are drawn from both populations, so NC must be 2*pop.
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
