package pluck

import "errors"

// Params holds a complete string configuration.
type Params struct {
	// Frequency in Hz. Zero leaves the delay untouched.
	Frequency float32
	Feedback  float32
	Dry       float32
	Alpha     float32

	// DecayT60 in seconds. When > 0 it overrides Feedback with the value
	// that decays the loop by 60 dB in that time at the applied frequency.
	DecayT60 float32
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		Feedback: DefaultFeedback,
		Dry:      DefaultDry,
		Alpha:    DefaultAlpha,
	}
}

// Apply sets every parameter through the regular setters. Rejected fields keep
// their previous value; all rejections are returned joined.
func (s *String) Apply(p *Params) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.Frequency != 0 {
		if err := s.SetFrequency(p.Frequency); err != nil {
			errs = append(errs, err)
		}
	}
	feedback := p.Feedback
	if p.DecayT60 > 0 {
		feedback = FeedbackForDecay(p.DecayT60, s.delay, s.sampleRate)
	}
	if err := s.SetFeedback(feedback); err != nil {
		errs = append(errs, err)
	}
	if err := s.SetDry(p.Dry); err != nil {
		errs = append(errs, err)
	}
	if err := s.SetAlpha(p.Alpha); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Params returns the current configuration. Frequency is derived from the
// integer delay and may differ from the value last set.
func (s *String) Params() *Params {
	return &Params{
		Frequency: float32(s.sampleRate) / float32(s.delay),
		Feedback:  s.feedback,
		Dry:       s.dry,
		Alpha:     s.alpha,
	}
}
