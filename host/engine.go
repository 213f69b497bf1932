package host

import (
	"container/heap"
	"fmt"
	"sync"

	"github.com/cwbudde/algo-pluck/dsp"
)

// Option configures an Engine.
type Option func(*Engine)

// WithDiagnostics sets the callback receiving rejected control messages.
// It runs on the goroutine calling Process.
func WithDiagnostics(fn func(error)) Option {
	return func(e *Engine) {
		e.diag = fn
	}
}

// WithDCBlocker enables a DC blocker with pole r on the output.
func WithDCBlocker(r float32) Option {
	return func(e *Engine) {
		e.dc = dsp.NewDCBlocker(r)
	}
}

// WithTone enables a lowpass on the output. A cutoff <= 0 disables it.
func WithTone(cutoffHz float32) Option {
	return func(e *Engine) {
		e.toneHz = cutoffHz
	}
}

// WithOutputGain scales the output. Values <= 0 are ignored.
func WithOutputGain(gain float32) Option {
	return func(e *Engine) {
		if gain > 0 {
			e.gain = gain
		}
	}
}

// Engine drives a Synth from a host. Control messages may be posted from any
// goroutine; they are applied on the audio goroutine before the next block,
// or at their exact frame when scheduled, so the synth is never mutated while
// it renders.
type Engine struct {
	synth      Synth
	sampleRate int

	mu      sync.Mutex
	pending []Message
	queue   msgQueue
	seq     int64

	// owned by the audio goroutine
	work  []Message
	due   []*TimedMessage
	frame int64

	diag   func(error)
	dc     *dsp.DCBlocker
	tone   *dsp.Biquad
	toneHz float32
	gain   float32
}

// NewEngine wraps s and hands it the sample rate.
func NewEngine(s Synth, sampleRate int, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("host: nil synth")
	}
	e := &Engine{
		synth:   s,
		gain:    1,
		pending: make([]Message, 0, 16),
		work:    make([]Message, 0, 16),
		due:     make([]*TimedMessage, 0, 16),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if err := e.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return e, nil
}

// SetSampleRate reconfigures the synth and output stages. It must not be
// called concurrently with Process.
func (e *Engine) SetSampleRate(sampleRate int) error {
	if err := e.synth.SetSampleRate(sampleRate); err != nil {
		return err
	}
	e.sampleRate = sampleRate
	e.tone = nil
	if e.toneHz > 0 {
		e.tone = dsp.NewLowpass(e.toneHz, float32(sampleRate), 0.7071)
	}
	return nil
}

// SampleRate returns the configured sample rate.
func (e *Engine) SampleRate() int { return e.sampleRate }

// Frame returns the number of frames rendered so far.
func (e *Engine) Frame() int64 { return e.frame }

// Post queues m for the start of the next block.
func (e *Engine) Post(m Message) {
	e.mu.Lock()
	e.pending = append(e.pending, m)
	e.mu.Unlock()
}

// ScheduleAt queues m for the given absolute frame. Frames already rendered
// are applied at the start of the next block.
func (e *Engine) ScheduleAt(frame int64, m Message) {
	e.mu.Lock()
	e.seq++
	heap.Push(&e.queue, &TimedMessage{Frame: frame, Msg: m, seq: e.seq})
	e.mu.Unlock()
}

// Schedule queues a batch of timed messages, typically from ParseScript.
func (e *Engine) Schedule(msgs []TimedMessage) {
	for _, tm := range msgs {
		e.ScheduleAt(tm.Frame, tm.Msg)
	}
}

// Pending reports how many scheduled messages have not been applied yet.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Process renders len(out) frames. Posted messages apply first; scheduled
// messages split the block at their frame.
func (e *Engine) Process(out []float32) {
	n := int64(len(out))

	e.mu.Lock()
	e.work, e.pending = e.pending, e.work[:0]
	e.due = e.due[:0]
	for len(e.queue) > 0 && e.queue[0].Frame < e.frame+n {
		e.due = append(e.due, heap.Pop(&e.queue).(*TimedMessage))
	}
	e.mu.Unlock()

	for _, m := range e.work {
		e.apply(m)
	}

	pos := 0
	for _, tm := range e.due {
		at := int(tm.Frame - e.frame)
		if at > pos {
			e.synth.Render(out[pos:at])
			pos = at
		}
		e.apply(tm.Msg)
	}
	e.synth.Render(out[pos:])

	if e.dc != nil {
		e.dc.ProcessBlock(out)
	}
	if e.tone != nil {
		e.tone.ProcessBlock(out)
	}
	dsp.ApplyGain(out, e.gain)

	e.frame += n
}

func (e *Engine) apply(m Message) {
	if err := Dispatch(e.synth, m); err != nil && e.diag != nil {
		e.diag(fmt.Errorf("%s: %w", m, err))
	}
}
