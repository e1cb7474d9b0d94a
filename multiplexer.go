package llmgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
)

// Sentinel payloads written on the wire.
const (
	DoneSentinel          = "[DONE]"
	SafetyBlockedSentinel = "[SAFETY_BLOCKED]"
)

// ErrChannelClosed is returned by Multiplexer.Write after a terminal frame.
var ErrChannelClosed = errors.New("llmgateway: output channel already terminated")

// Framing selects how events are rendered as SSE frames.
type Framing int

const (
	// FramingLabeled writes "event: <label>" before each payload and renders
	// every event kind.
	FramingLabeled Framing = iota

	// FramingPlain writes unlabeled "data:" frames carrying message text only.
	// Thought and citation events produce no frames.
	FramingPlain
)

// Multiplexer serializes an event sequence onto a single SSE channel.
// Frames are written in arrival order and flushed one at a time; exactly
// one terminal frame is written, after which the channel accepts nothing.
//
// A Multiplexer is used by one request and is not safe for concurrent use.
type Multiplexer struct {
	w       io.Writer
	flusher http.Flusher
	framing Framing
	closed  bool
	frames  int
}

// NewMultiplexer returns a multiplexer writing to w. If w implements
// http.Flusher, each frame is flushed as soon as it is written.
func NewMultiplexer(w io.Writer, framing Framing) *Multiplexer {
	m := &Multiplexer{w: w, framing: framing}
	if f, ok := w.(http.Flusher); ok {
		m.flusher = f
	}
	return m
}

// Closed reports whether a terminal frame has been written.
func (m *Multiplexer) Closed() bool { return m.closed }

// Frames returns the number of frames written so far.
func (m *Multiplexer) Frames() int { return m.frames }

// Write renders ev. Events that have no representation in the current
// framing are skipped without error.
func (m *Multiplexer) Write(ev Event) error {
	if m.closed {
		return ErrChannelClosed
	}
	if ev.IsEmptyFragment() {
		return nil
	}

	label, payload, ok := m.render(ev)
	if ev.IsTerminal() {
		m.closed = true
	}
	if !ok {
		return nil
	}
	return m.writeFrame(label, payload)
}

// Pump drains seq onto the channel. It returns the error carried by a
// Failure terminal (nil for Control), a write error, or ctx.Err() when the
// context ends first. No frame is written once ctx is done.
//
// If seq ends without a terminal event, Pump writes an error frame for
// ErrStreamTruncated so the channel is never left open.
func (m *Multiplexer) Pump(ctx context.Context, seq iter.Seq[Event]) error {
	for ev := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Write(ev); err != nil {
			return err
		}
		if m.closed {
			if ev.Kind == EventFailure {
				return ev.Err
			}
			return nil
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.closed {
		if err := m.Write(Failure(ErrStreamTruncated)); err != nil {
			return err
		}
		return ErrStreamTruncated
	}
	return nil
}

func (m *Multiplexer) render(ev Event) (label, payload string, ok bool) {
	if m.framing == FramingPlain {
		switch ev.Kind {
		case EventMessage:
			return "", ev.Text, true
		case EventControl:
			return "", controlSentinel(ev.Control), true
		case EventFailure:
			return "", "Error: " + ev.Detail, true
		default:
			return "", "", false
		}
	}

	switch ev.Kind {
	case EventThought, EventMessage:
		return ev.Kind.String(), ev.Text, true
	case EventCitation:
		sources := ev.Sources
		if sources == nil {
			sources = []string{}
		}
		data, err := json.Marshal(sources)
		if err != nil {
			return "", "", false
		}
		return ev.Kind.String(), string(data), true
	case EventControl:
		return ev.Kind.String(), controlSentinel(ev.Control), true
	case EventFailure:
		return ev.Kind.String(), ev.Detail, true
	default:
		return "", "", false
	}
}

func controlSentinel(kind ControlKind) string {
	if kind == ControlSafetyBlocked {
		return SafetyBlockedSentinel
	}
	return DoneSentinel
}

func (m *Multiplexer) writeFrame(label, payload string) error {
	var b strings.Builder
	if label != "" {
		fmt.Fprintf(&b, "event: %s\n", label)
	}
	// A lone CR also ends an SSE line.
	payload = strings.ReplaceAll(payload, "\r\n", "\n")
	payload = strings.ReplaceAll(payload, "\r", "\n")
	for _, line := range strings.Split(payload, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := io.WriteString(m.w, b.String()); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	m.frames++
	if m.flusher != nil {
		m.flusher.Flush()
	}
	return nil
}
