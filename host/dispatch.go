package host

import "fmt"

// Synth is the capability set a host drives: named setters, reseed and a
// block render.
type Synth interface {
	SetSampleRate(sampleRate int) error
	SetFrequency(freq float32) error
	SetFeedback(v float32) error
	SetDry(v float32) error
	SetAlpha(v float32) error
	Reseed()
	Render(out []float32)
}

// Dispatch routes one control message to the matching Synth method.
func Dispatch(s Synth, m Message) error {
	switch m.Selector {
	case "bang":
		if len(m.Args) != 0 {
			return fmt.Errorf("%w: bang takes no arguments, got %d", ErrBadArguments, len(m.Args))
		}
		s.Reseed()
		return nil
	case "freq", "feedback", "dry", "alpha":
		if len(m.Args) != 1 {
			return fmt.Errorf("%w: %s takes one float, got %d", ErrBadArguments, m.Selector, len(m.Args))
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, m.Selector)
	}

	v := m.Args[0]
	switch m.Selector {
	case "freq":
		return s.SetFrequency(v)
	case "feedback":
		return s.SetFeedback(v)
	case "dry":
		return s.SetDry(v)
	default:
		return s.SetAlpha(v)
	}
}
