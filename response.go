package llmgateway

import "strings"

// Response status values.
const (
	StatusSuccess = "success"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// NormalizedResponse is the non-streaming result of one invocation.
type NormalizedResponse struct {
	// Status is "success", "blocked" or "error", taken from the terminal event.
	Status string `json:"status"`

	// Model is the model that served the request.
	Model string `json:"model"`

	// Reasoning is the newline-joined Thought texts, nil when none were produced.
	Reasoning *string `json:"reasoning"`

	// Response is the concatenation of all Message texts in order.
	Response string `json:"response"`

	// Citations is the last Citation's sources, nil when none were produced.
	Citations []string `json:"citations"`

	// Detail holds the failure detail when Status is "error".
	Detail string `json:"-"`
}

// FoldEvents builds a NormalizedResponse from a complete event sequence.
// Events after the first terminal are ignored. A sequence with no terminal
// folds to an error status carrying ErrStreamTruncated.
func FoldEvents(model string, events []Event) *NormalizedResponse {
	resp := &NormalizedResponse{Model: model}

	var thoughts []string
	var text strings.Builder
	terminated := false

	for _, ev := range events {
		if terminated {
			break
		}
		switch ev.Kind {
		case EventThought:
			if ev.Text != "" {
				thoughts = append(thoughts, ev.Text)
			}
		case EventMessage:
			text.WriteString(ev.Text)
		case EventCitation:
			resp.Citations = append([]string(nil), ev.Sources...)
		case EventControl:
			terminated = true
			if ev.Control == ControlSafetyBlocked {
				resp.Status = StatusBlocked
			} else {
				resp.Status = StatusSuccess
			}
		case EventFailure:
			terminated = true
			resp.Status = StatusError
			resp.Detail = ev.Detail
		}
	}

	if !terminated {
		resp.Status = StatusError
		resp.Detail = ErrStreamTruncated.Error()
	}

	if len(thoughts) > 0 {
		reasoning := strings.Join(thoughts, "\n")
		resp.Reasoning = &reasoning
	}
	resp.Response = text.String()

	return resp
}
