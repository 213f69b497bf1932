package host

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownMessage is returned for selectors the synth does not handle.
	ErrUnknownMessage = errors.New("host: unknown message")
	// ErrBadArguments is returned when a message has the wrong arguments.
	ErrBadArguments = errors.New("host: bad arguments")
	// ErrEmptyMessage is returned when parsing a blank or comment line.
	ErrEmptyMessage = errors.New("host: empty message")
)

// Message is a control message: a selector followed by float arguments,
// e.g. "freq 220" or "bang".
type Message struct {
	Selector string
	Args     []float32
}

func (m Message) String() string {
	if len(m.Args) == 0 {
		return m.Selector
	}
	var b strings.Builder
	b.WriteString(m.Selector)
	for _, a := range m.Args {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(float64(a), 'g', -1, 32))
	}
	return b.String()
}

// Float builds a single-argument message.
func Float(selector string, v float32) Message {
	return Message{Selector: selector, Args: []float32{v}}
}

// Bang builds the reseed message.
func Bang() Message {
	return Message{Selector: "bang"}
}

// ParseMessage parses one message in text form. A trailing ';' is allowed.
func ParseMessage(line string) (Message, error) {
	fields := splitLine(line)
	if len(fields) == 0 {
		return Message{}, ErrEmptyMessage
	}
	return parseFields(fields)
}

func splitLine(line string) []string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	line = strings.TrimSuffix(line, ";")
	return strings.Fields(line)
}

func parseFields(fields []string) (Message, error) {
	m := Message{Selector: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		m.Args = make([]float32, 0, len(fields)-1)
	}
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return Message{}, fmt.Errorf("%w: %q in %q", ErrBadArguments, f, strings.Join(fields, " "))
		}
		m.Args = append(m.Args, float32(v))
	}
	return m, nil
}
