package analysis

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/window"
	dsptime "github.com/cwbudde/algo-dsp/stats/time"
	algofft "github.com/cwbudde/algo-fft"
)

const (
	envFrame     = 256
	envHop       = 128
	specFFTSize  = 4096
	specMaxHops  = 16
	minCompare   = 2048
	pitchMinHz   = 20.0
	pitchMaxHz   = 5000.0
	silenceLevel = 1e-6
)

// Metrics contains distance measurements between a reference recording and a
// rendered candidate. Non-finite sub-measurements are reported as zero.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`

	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	RefDecayDBPerS  float64 `json:"ref_decay_db_per_s"`
	CandDecayDBPerS float64 `json:"cand_decay_db_per_s"`
	DecayDiffDBPerS float64 `json:"decay_diff_db_per_s"`
	RefPitchHz      float64 `json:"ref_pitch_hz"`
	CandPitchHz     float64 `json:"cand_pitch_hz"`
	PitchDiffCents  float64 `json:"pitch_diff_cents"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare returns distance metrics and a combined score in [0,1], lower is
// closer. Both signals are trimmed of leading silence and RMS-normalised, so
// level differences do not count.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1.0,
	}
	if sampleRate <= 0 {
		return m
	}

	ref := normalizeRMS(trimLeadingSilence(reference, silenceLevel), 0.1)
	cand := normalizeRMS(trimLeadingSilence(candidate, silenceLevel), 0.1)
	n := min(len(ref), len(cand), sampleRate*12)
	if n < minCompare {
		return m
	}
	ref = ref[:n]
	cand = cand[:n]
	m.AlignedFrames = n

	refEnv := rmsEnvelope(ref, envFrame, envHop)
	candEnv := rmsEnvelope(cand, envFrame, envHop)
	envDiff := make([]float64, min(len(refEnv), len(candEnv)))
	for i := range envDiff {
		envDiff[i] = linToDB(refEnv[i]) - linToDB(candEnv[i])
	}
	m.EnvelopeRMSEDB = dsptime.RMS(envDiff)

	m.SpectralRMSEDB = spectralRMSEDB(ref, cand)

	hopSec := float64(envHop) / float64(sampleRate)
	refDecay := decaySlopeDBPerS(refEnv, hopSec)
	candDecay := decaySlopeDBPerS(candEnv, hopSec)
	decNorm := 1.0
	if isFinite(refDecay) && isFinite(candDecay) {
		m.RefDecayDBPerS = refDecay
		m.CandDecayDBPerS = candDecay
		m.DecayDiffDBPerS = math.Abs(refDecay - candDecay)
		decNorm = clamp01(m.DecayDiffDBPerS / 40.0)
	}

	pitchNorm := 1.0
	refPitch, errRef := EstimateFundamental(ref, sampleRate, pitchMinHz, pitchMaxHz)
	candPitch, errCand := EstimateFundamental(cand, sampleRate, pitchMinHz, pitchMaxHz)
	if errRef == nil && errCand == nil {
		m.RefPitchHz = refPitch
		m.CandPitchHz = candPitch
		m.PitchDiffCents = CentsBetween(refPitch, candPitch)
		pitchNorm = clamp01(math.Abs(m.PitchDiffCents) / 100.0)
	}

	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	m.Score = clamp01(0.25*envNorm + 0.30*specNorm + 0.15*decNorm + 0.30*pitchNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i, v := range x {
		if math.Abs(v) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	out := make([]float64, len(x))
	r := dsptime.RMS(x)
	if r <= 1e-12 {
		copy(out, x)
		return out
	}
	g := target / r
	for i, v := range x {
		out[i] = v * g
	}
	return out
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	out := make([]float64, 1+(len(x)-frame)/hop)
	for i := range out {
		start := i * hop
		out[i] = dsptime.RMS(x[start : start+frame])
	}
	return out
}

// spectralRMSEDB compares Hann-windowed magnitude spectra averaged over the
// first hops of both signals.
func spectralRMSEDB(a []float64, b []float64) float64 {
	size := specFFTSize
	for size > len(a) && size > 512 {
		size /= 2
	}
	if size > len(a) {
		return 0
	}
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return 0
	}

	hann, err := window.Hann(size)
	if err != nil {
		return 0
	}
	bins := size / 2
	avgA := make([]float64, bins)
	avgB := make([]float64, bins)
	spec := make([]complex128, bins+1)
	buf := make([]float64, size)

	accumulate := func(dst []float64, x []float64) {
		for i := range buf {
			buf[i] = x[i] * hann[i]
		}
		plan.Forward(spec, buf)
		for k := 1; k < bins; k++ {
			dst[k] += cmplx.Abs(spec[k])
		}
	}

	hop := size / 2
	frames := 0
	for pos := 0; pos+size <= len(a) && frames < specMaxHops; pos += hop {
		accumulate(avgA, a[pos:pos+size])
		accumulate(avgB, b[pos:pos+size])
		frames++
	}
	if frames == 0 {
		return 0
	}

	diff := make([]float64, bins-1)
	for k := 1; k < bins; k++ {
		diff[k-1] = linToDB(avgA[k]/float64(frames)) - linToDB(avgB[k]/float64(frames))
	}
	return dsptime.RMS(diff)
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

// decaySlopeDBPerS fits a line to the dB envelope from its peak down to
// 60 dB below it.
func decaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peak := math.Inf(-1)
	peakIdx := 0
	for i, v := range env {
		if db := linToDB(v); db > peak {
			peak = db
			peakIdx = i
		}
	}
	start := peakIdx + 1
	if start >= len(env)-4 {
		return math.NaN()
	}

	end := len(env)
	for i := start; i < len(env); i++ {
		if linToDB(env[i]) < peak-60.0 {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := linToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
