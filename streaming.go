package llmgateway

// EventKind tags the variant carried by an Event.
type EventKind int

const (
	// EventThought is an internal reasoning fragment.
	EventThought EventKind = iota + 1

	// EventMessage is a user-visible output fragment.
	EventMessage

	// EventCitation carries the ordered sources of a search-backed answer.
	EventCitation

	// EventControl is the normal terminal marker (Done or SafetyBlocked).
	EventControl

	// EventFailure is the abnormal terminal marker.
	EventFailure
)

// String returns the channel label the multiplexer frames the event under.
func (k EventKind) String() string {
	switch k {
	case EventThought:
		return "thought"
	case EventMessage:
		return "message"
	case EventCitation:
		return "citation"
	case EventControl:
		return "control"
	case EventFailure:
		return "error"
	default:
		return "unknown"
	}
}

// ControlKind distinguishes the two normal terminal markers.
type ControlKind string

const (
	ControlDone          ControlKind = "done"
	ControlSafetyBlocked ControlKind = "safety_blocked"
)

// Event is one unit of normalized output from a backend invocation.
//
// Exactly one of the variant fields is meaningful, selected by Kind:
//   - EventThought, EventMessage: Text
//   - EventCitation: Sources
//   - EventControl: Control
//   - EventFailure: Detail (and Err when the cause is known)
//
// A sequence produced by a Provider contains exactly one terminal event
// (EventControl or EventFailure) and it is always the last element.
type Event struct {
	Kind EventKind

	Text    string
	Sources []string
	Control ControlKind

	Detail string
	Err    error
}

// Thought returns a reasoning fragment event.
func Thought(text string) Event { return Event{Kind: EventThought, Text: text} }

// Message returns a user-visible fragment event.
func Message(text string) Event { return Event{Kind: EventMessage, Text: text} }

// Citation returns a citation event. The slice is copied.
func Citation(sources []string) Event {
	return Event{Kind: EventCitation, Sources: append([]string(nil), sources...)}
}

// Done returns the normal completion marker.
func Done() Event { return Event{Kind: EventControl, Control: ControlDone} }

// SafetyBlocked returns the content-policy terminal marker.
func SafetyBlocked() Event { return Event{Kind: EventControl, Control: ControlSafetyBlocked} }

// Failure returns an abnormal terminal marker for err.
func Failure(err error) Event {
	if err == nil {
		err = ErrStreamTruncated
	}
	return Event{Kind: EventFailure, Detail: err.Error(), Err: err}
}

// IsTerminal reports whether the event closes a sequence.
func (e Event) IsTerminal() bool {
	return e.Kind == EventControl || e.Kind == EventFailure
}

// IsEmptyFragment reports a Thought/Message with no text, which is never emitted.
func (e Event) IsEmptyFragment() bool {
	return (e.Kind == EventThought || e.Kind == EventMessage) && e.Text == ""
}
