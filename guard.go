package llmgateway

import (
	"context"
	"iter"
)

// GuardStream enforces the event-sequence contract on top of an adapter's
// stream:
//   - empty Thought/Message fragments are dropped
//   - at most one terminal event is passed through, and nothing after it
//   - a sequence that ends without a terminal gets Failure(ErrStreamTruncated)
//   - once ctx is done, nothing further is yielded
func GuardStream(ctx context.Context, seq iter.Seq[Event]) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		terminated := false
		for ev := range seq {
			if ctx.Err() != nil {
				return
			}
			if ev.IsEmptyFragment() {
				continue
			}
			if ev.Kind == EventCitation && len(ev.Sources) == 0 {
				continue
			}
			if !yield(ev) {
				return
			}
			if ev.IsTerminal() {
				terminated = true
				break
			}
		}
		if !terminated && ctx.Err() == nil {
			yield(Failure(ErrStreamTruncated))
		}
	}
}

// Collect drains seq into a slice. It stops after the first terminal event.
func Collect(seq iter.Seq[Event]) []Event {
	var events []Event
	for ev := range seq {
		events = append(events, ev)
		if ev.IsTerminal() {
			break
		}
	}
	return events
}
