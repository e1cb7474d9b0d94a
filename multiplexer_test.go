package llmgateway

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMultiplexer_Labeled(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   string
	}{
		{
			name:   "normal completion",
			events: []Event{Thought("hmm"), Message("4"), Done()},
			want: "event: thought\ndata: hmm\n\n" +
				"event: message\ndata: 4\n\n" +
				"event: control\ndata: [DONE]\n\n",
		},
		{
			name:   "citations as json",
			events: []Event{Message("x"), Citation([]string{"https://a", "https://b"}), Done()},
			want: "event: message\ndata: x\n\n" +
				"event: citation\ndata: [\"https://a\",\"https://b\"]\n\n" +
				"event: control\ndata: [DONE]\n\n",
		},
		{
			name:   "safety block",
			events: []Event{Message("par"), SafetyBlocked()},
			want: "event: message\ndata: par\n\n" +
				"event: control\ndata: [SAFETY_BLOCKED]\n\n",
		},
		{
			name:   "failure",
			events: []Event{Message("a"), {Kind: EventFailure, Detail: "upstream reset"}},
			want: "event: message\ndata: a\n\n" +
				"event: error\ndata: upstream reset\n\n",
		},
		{
			name:   "multi-line payload",
			events: []Event{Message("line one\nline two\r\nline three"), Done()},
			want: "event: message\ndata: line one\ndata: line two\ndata: line three\n\n" +
				"event: control\ndata: [DONE]\n\n",
		},
		{
			name:   "bare carriage return splits lines",
			events: []Event{Message("line1\rinjected: x"), Done()},
			want: "event: message\ndata: line1\ndata: injected: x\n\n" +
				"event: control\ndata: [DONE]\n\n",
		},
		{
			name:   "empty fragments produce no frames",
			events: []Event{Message(""), Thought(""), Message("a"), Done()},
			want: "event: message\ndata: a\n\n" +
				"event: control\ndata: [DONE]\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m := NewMultiplexer(rec, FramingLabeled)
			_ = m.Pump(context.Background(), seqOf(tt.events...))

			if got := rec.Body.String(); got != tt.want {
				t.Errorf("output mismatch\ngot:\n%q\nwant:\n%q", got, tt.want)
			}
			if !m.Closed() {
				t.Error("channel should be closed after terminal frame")
			}
			if !rec.Flushed {
				t.Error("frames were not flushed")
			}
		})
	}
}

func TestMultiplexer_Plain(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   string
	}{
		{
			name:   "message text only",
			events: []Event{Thought("hidden"), Message("Hello"), Message(" world"), Citation([]string{"s"}), Done()},
			want:   "data: Hello\n\ndata:  world\n\ndata: [DONE]\n\n",
		},
		{
			name:   "failure",
			events: []Event{Failure(errors.New("boom"))},
			want:   "data: Error: boom\n\n",
		},
		{
			name:   "safety block",
			events: []Event{SafetyBlocked()},
			want:   "data: [SAFETY_BLOCKED]\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			_ = NewMultiplexer(rec, FramingPlain).Pump(context.Background(), seqOf(tt.events...))
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMultiplexer_NoWritesAfterTerminal(t *testing.T) {
	var b strings.Builder
	m := NewMultiplexer(&b, FramingLabeled)

	if err := m.Write(Done()); err != nil {
		t.Fatal(err)
	}
	if err := m.Write(Message("late")); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Write after terminal = %v, want ErrChannelClosed", err)
	}
	if m.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", m.Frames())
	}
	if strings.Contains(b.String(), "late") {
		t.Error("frame written after terminal")
	}
}

func TestMultiplexer_PumpResults(t *testing.T) {
	t.Run("done returns nil", func(t *testing.T) {
		var b strings.Builder
		if err := NewMultiplexer(&b, FramingLabeled).Pump(context.Background(), seqOf(Message("a"), Done())); err != nil {
			t.Errorf("Pump() = %v", err)
		}
	})

	t.Run("failure returns its error", func(t *testing.T) {
		var b strings.Builder
		err := NewMultiplexer(&b, FramingLabeled).Pump(context.Background(), seqOf(Failure(ErrTimeout)))
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("Pump() = %v, want ErrTimeout", err)
		}
	})

	t.Run("unterminated sequence gets an error frame", func(t *testing.T) {
		var b strings.Builder
		m := NewMultiplexer(&b, FramingLabeled)
		err := m.Pump(context.Background(), seqOf(Message("a")))
		if !errors.Is(err, ErrStreamTruncated) {
			t.Errorf("Pump() = %v, want ErrStreamTruncated", err)
		}
		if !strings.HasSuffix(b.String(), "event: error\ndata: "+ErrStreamTruncated.Error()+"\n\n") {
			t.Errorf("missing terminal error frame: %q", b.String())
		}
		if !m.Closed() {
			t.Error("channel should be closed")
		}
	})

	t.Run("cancelled context writes nothing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var b strings.Builder
		m := NewMultiplexer(&b, FramingLabeled)
		if err := m.Pump(ctx, seqOf(Message("a"), Done())); !errors.Is(err, context.Canceled) {
			t.Errorf("Pump() = %v, want context.Canceled", err)
		}
		if b.Len() != 0 {
			t.Errorf("wrote %q after cancellation", b.String())
		}
	})

	t.Run("write error stops pumping", func(t *testing.T) {
		m := NewMultiplexer(failingWriter{}, FramingLabeled)
		if err := m.Pump(context.Background(), seqOf(Message("a"), Done())); err == nil {
			t.Error("expected write error")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }
