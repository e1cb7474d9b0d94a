package llmgateway

import (
	"context"
	"errors"
	"testing"
)

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func equalKinds(a, b []EventKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGuardStream(t *testing.T) {
	tests := []struct {
		name  string
		input []Event
		want  []EventKind
	}{
		{
			name:  "passes a well formed stream",
			input: []Event{Thought("t"), Message("a"), Citation([]string{"s"}), Done()},
			want:  []EventKind{EventThought, EventMessage, EventCitation, EventControl},
		},
		{
			name:  "drops empty fragments",
			input: []Event{Message(""), Thought(""), Message("a"), Citation(nil), Done()},
			want:  []EventKind{EventMessage, EventControl},
		},
		{
			name:  "stops after first terminal",
			input: []Event{Message("a"), SafetyBlocked(), Message("leak"), Done()},
			want:  []EventKind{EventMessage, EventControl},
		},
		{
			name:  "adds failure when terminal is missing",
			input: []Event{Message("a"), Message("b")},
			want:  []EventKind{EventMessage, EventMessage, EventFailure},
		},
		{
			name:  "empty stream fails",
			input: nil,
			want:  []EventKind{EventFailure},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collect(GuardStream(context.Background(), seqOf(tt.input...)))
			if !equalKinds(kinds(got), tt.want) {
				t.Errorf("kinds = %v, want %v", kinds(got), tt.want)
			}
		})
	}
}

func TestGuardStream_TruncatedDetail(t *testing.T) {
	got := Collect(GuardStream(context.Background(), seqOf(Message("a"))))
	last := got[len(got)-1]
	if !errors.Is(last.Err, ErrStreamTruncated) {
		t.Errorf("last.Err = %v, want ErrStreamTruncated", last.Err)
	}
	if KindOf(last.Err) != KindTransport {
		t.Errorf("truncation should classify as transport, got %q", KindOf(last.Err))
	}
}

func TestGuardStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newScripted(Message("a"), Message("b"), Message("c"), Done())

	var got []Event
	for ev := range GuardStream(ctx, p.Stream(ctx, &GenerationRequest{}, nil)) {
		got = append(got, ev)
		cancel()
	}

	if len(got) != 1 {
		t.Errorf("expected exactly one event before cancellation, got %d", len(got))
	}
	if !p.released {
		t.Error("backend stream was not released")
	}
}

func TestGuardStream_ConsumerBreakReleasesBackend(t *testing.T) {
	p := newScripted(Message("a"), Message("b"), Done())
	for range GuardStream(context.Background(), p.Stream(context.Background(), &GenerationRequest{}, nil)) {
		break
	}
	if !p.released {
		t.Error("backend stream was not released")
	}
}

func TestInvoke(t *testing.T) {
	p := newScripted(Thought("t"), Message("4"), Done())
	req := &GenerationRequest{Prompt: "2+2?"}

	for _, streaming := range []bool{false, true} {
		got := Collect(Invoke(context.Background(), p, req, streaming, nil))
		want := []EventKind{EventThought, EventMessage, EventControl}
		if !equalKinds(kinds(got), want) {
			t.Errorf("streaming=%v kinds = %v, want %v", streaming, kinds(got), want)
		}
	}

	p.genErr = ErrTimeout
	got := Collect(Invoke(context.Background(), p, req, false, nil))
	if len(got) != 1 || got[0].Kind != EventFailure || !errors.Is(got[0].Err, ErrTimeout) {
		t.Errorf("non-streaming error should become one Failure, got %+v", got)
	}
}
