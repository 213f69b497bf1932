package pluck

import (
	"github.com/cwbudde/algo-approx"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// ln(1000): 60 dB in nepers.
const ln1000 = 6.907755278982137

// FeedbackForDecay returns the feedback that attenuates the loop by 60 dB
// after t60 seconds, for a loop of delay samples at sampleRate.
// Non-positive inputs yield the default feedback.
func FeedbackForDecay(t60 float32, delay int, sampleRate int) float32 {
	if t60 <= 0 || delay <= 0 || sampleRate <= 0 {
		return DefaultFeedback
	}
	loops := t60 * float32(sampleRate) / float32(delay)
	g := approx.FastExp(-ln1000 / loops)
	return float32(dspcore.Clamp(float64(g), 0, 1))
}
