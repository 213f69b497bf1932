package host

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
)

// TimedMessage is a message due at an absolute output frame.
type TimedMessage struct {
	Frame int64
	Msg   Message

	seq int64
}

// msgQueue orders timed messages by frame, then by insertion order.
type msgQueue []*TimedMessage

func (q msgQueue) Len() int { return len(q) }

func (q msgQueue) Less(i, j int) bool {
	if q[i].Frame == q[j].Frame {
		return q[i].seq < q[j].seq
	}
	return q[i].Frame < q[j].Frame
}

func (q msgQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *msgQueue) Push(x any) {
	*q = append(*q, x.(*TimedMessage))
}

func (q *msgQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// ParseScript reads a control script, one message per line prefixed with its
// time in seconds:
//
//	0     bang
//	0     freq 220
//	1.5   feedback 0.99
//
// Blank lines and '#' comments are skipped.
func ParseScript(r io.Reader, sampleRate int) ([]TimedMessage, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("script sample rate must be > 0: %d", sampleRate)
	}
	var out []TimedMessage
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := splitLine(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("script line %d: expected \"<seconds> <selector> [args]\"", lineNo)
		}
		at, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || at < 0 || math.IsInf(at, 0) {
			return nil, fmt.Errorf("script line %d: invalid time %q", lineNo, fields[0])
		}
		m, err := parseFields(fields[1:])
		if err != nil {
			return nil, fmt.Errorf("script line %d: %w", lineNo, err)
		}
		out = append(out, TimedMessage{
			Frame: int64(math.Round(at * float64(sampleRate))),
			Msg:   m,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
