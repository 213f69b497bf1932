// Package pluck implements a Karplus-Strong plucked-string generator.
//
// A String keeps a fixed 2048-sample delay line. Reseed fills it with a
// deterministic noise burst; Render then recirculates the active part of the
// line through a one-pole lowpass and a dry/wet feedback mix, one block at a
// time:
//
//	s := pluck.New(48000)
//	_ = s.SetFrequency(220)
//	s.Reseed()
//	block := make([]float32, 64)
//	s.Render(block)
package pluck
