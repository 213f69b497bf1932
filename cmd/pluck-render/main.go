package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	dsptime "github.com/cwbudde/algo-dsp/stats/time"
	"github.com/cwbudde/algo-pluck/analysis"
	"github.com/cwbudde/algo-pluck/host"
	"github.com/cwbudde/algo-pluck/internal/fitcommon"
	"github.com/cwbudde/algo-pluck/preset"
)

func main() {
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	freq := flag.Float64("freq", 220, "String frequency in Hz")
	feedback := flag.Float64("feedback", 0.5, "Loop feedback in [0,1]")
	dry := flag.Float64("dry", 0.5, "Direct share of the feedback path in [0,1]")
	alpha := flag.Float64("alpha", 0.5, "Lowpass smoothing in [0,1]")
	t60 := flag.Float64("t60", 0, "Decay time in seconds; overrides -feedback when > 0")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	blockSize := flag.Int("block-size", 64, "Render block size in frames")
	duration := flag.Float64("duration", 2.0, "Duration in seconds (maximum duration with -decay-dbfs)")
	scriptPath := flag.String("script", "", "Timed message script: lines of '<seconds> <selector> [args]'")
	bangEvery := flag.Float64("bang-every", 0, "Re-pluck every N seconds (0 = once at the start)")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	p := preset.Default()
	if *presetPath != "" {
		var err error
		p, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("Error loading preset %q: %v", *presetPath, err)
		}
	}
	if p.String.Frequency == 0 {
		p.String.Frequency = float32(*freq)
	}

	// Explicit flags win over the preset.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "freq":
			p.String.Frequency = float32(*freq)
		case "feedback":
			p.String.Feedback = float32(*feedback)
		case "dry":
			p.String.Dry = float32(*dry)
		case "alpha":
			p.String.Alpha = float32(*alpha)
		case "t60":
			p.String.DecayT60 = float32(*t60)
		case "sample-rate":
			p.SampleRate = *sampleRate
		case "block-size":
			p.BlockSize = *blockSize
		}
	})
	if p.SampleRate <= 0 {
		die("sample-rate must be > 0")
	}
	if p.BlockSize < 1 {
		die("block-size must be >= 1")
	}
	if *duration <= 0 {
		die("duration must be > 0")
	}

	e, s, err := fitcommon.NewEngine(p, func(err error) {
		fmt.Fprintf(os.Stderr, "message rejected: %v\n", err)
	})
	if err != nil {
		die("invalid string parameters: %v", err)
	}

	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			die("Error opening script: %v", err)
		}
		msgs, err := host.ParseScript(f, p.SampleRate)
		f.Close()
		if err != nil {
			die("Error parsing script %q: %v", *scriptPath, err)
		}
		e.Schedule(msgs)
		fmt.Printf("Scheduled %d messages from %s\n", len(msgs), *scriptPath)
	} else {
		e.Post(host.Bang())
	}
	if *bangEvery > 0 {
		maxFrames := int64(float64(p.SampleRate) * *duration)
		step := int64(float64(p.SampleRate) * *bangEvery)
		if step < 1 {
			step = 1
		}
		for frame := step; frame < maxFrames; frame += step {
			e.ScheduleAt(frame, host.Bang())
		}
	}

	fmt.Printf("Rendering %.2f Hz (delay %d), feedback %.4f, dry %.3f, alpha %.3f for up to %.2f seconds at %d Hz...\n",
		float64(p.SampleRate)/float64(s.Delay()), s.Delay(), s.Feedback(), s.Dry(), s.Alpha(), *duration, p.SampleRate)

	stop := fitcommon.DecayStop{
		DBFS:        math.Inf(-1),
		HoldBlocks:  1,
		MinDuration: *duration,
		MaxDuration: *duration,
	}
	autoStop := !math.IsInf(*decayDBFS, 1)
	if autoStop {
		stop.DBFS = *decayDBFS
		stop.HoldBlocks = *decayHoldBlocks
		stop.MinDuration = min(*minDuration, *duration)
	}

	samples, err := fitcommon.RenderUntilDecay(e, p.BlockSize, stop, nil)
	if err != nil {
		die("render failed: %v", err)
	}
	if autoStop {
		fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n", len(samples), float64(len(samples))/float64(p.SampleRate), *decayDBFS)
	}

	if err := fitcommon.WriteMonoWAV(*output, samples, p.SampleRate); err != nil {
		die("Error writing WAV file: %v", err)
	}

	mono := fitcommon.ToFloat64(samples)
	st := dsptime.Calculate(mono)
	fmt.Printf("Peak %.2f dBFS, RMS %.2f dBFS, crest %.2f dB\n", st.Peak_dB, st.RMS_dB, st.CrestFactor_dB)
	if hz, err := analysis.EstimateFundamental(mono, p.SampleRate, 20, float64(p.SampleRate)/4); err == nil {
		fmt.Printf("Estimated pitch %.2f Hz\n", hz)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, len(samples))
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
