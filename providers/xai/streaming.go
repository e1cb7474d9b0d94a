package xai

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	llmgateway "github.com/wallscreet/llm-gateway"
)

// maxLineSize bounds a single SSE line. Final chunks can carry long citation lists.
const maxLineSize = 1 << 20

// ParsedDelta is what one streaming chunk contributes.
type ParsedDelta struct {
	Thinking     string
	Text         string
	FinishReason string
	Citations    []string

	// ErrMessage is set when xAI reports a failure in-band.
	ErrMessage string
}

// parseChunk extracts the fields of one chat.completion.chunk.
func parseChunk(data string) (*ParsedDelta, error) {
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: chunk is not valid JSON", llmgateway.ErrMalformedChunk)
	}

	chunk := gjson.Parse(data)
	if e := chunk.Get("error"); e.Exists() {
		msg := e.Get("message").String()
		if msg == "" {
			msg = e.String()
		}
		return &ParsedDelta{ErrMessage: msg}, nil
	}

	choice := chunk.Get("choices.0")
	parsed := &ParsedDelta{
		Thinking:     choice.Get("delta.reasoning_content").String(),
		Text:         choice.Get("delta.content").String(),
		FinishReason: choice.Get("finish_reason").String(),
		Citations:    citations(chunk.Get("citations")),
	}
	return parsed, nil
}

// Stream generates a streaming response from xAI.
// The returned sequence always ends in exactly one terminal event.
func (p *Provider) Stream(ctx context.Context, req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) iter.Seq[llmgateway.Event] {
	return func(yield func(llmgateway.Event) bool) {
		chatReq := buildChatCompletionRequest(req, params)
		chatReq.Stream = true

		httpReq, err := p.buildHTTPRequest(ctx, chatReq)
		if err != nil {
			yield(llmgateway.Failure(err))
			return
		}
		httpReq.Header.Set("Accept", "text/event-stream")

		resp, err := p.httpClient.Do(httpReq)
		if err != nil {
			yield(llmgateway.Failure(llmgateway.WrapTransport(p.Name(), err)))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			yield(llmgateway.Failure(p.handleErrorResponse(resp)))
			return
		}

		p.streamEvents(ctx, resp.Body, yield)
	}
}

// streamEvents reads the SSE body and yields normalized events.
func (p *Provider) streamEvents(ctx context.Context, body io.Reader, yield func(llmgateway.Event) bool) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		sources  []string
		seen     = make(map[string]bool)
		finished bool
		sawDone  bool
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		// SSE format: "data: {...}"
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")

		// Check for stream end
		if data == "[DONE]" {
			sawDone = true
			break
		}

		parsed, err := parseChunk(data)
		if err != nil {
			p.logger.Debug("skipping malformed chunk", "provider", p.Name().String(), "error", err)
			continue
		}

		if parsed.ErrMessage != "" {
			yield(llmgateway.Failure(&llmgateway.ProviderError{
				Provider: p.Name().String(),
				Message:  parsed.ErrMessage,
				Err:      llmgateway.ErrProviderUnavailable,
			}))
			return
		}

		if parsed.Thinking != "" && !yield(llmgateway.Thought(parsed.Thinking)) {
			return
		}
		if parsed.Text != "" && !yield(llmgateway.Message(parsed.Text)) {
			return
		}
		for _, url := range parsed.Citations {
			if !seen[url] {
				seen[url] = true
				sources = append(sources, url)
			}
		}

		switch parsed.FinishReason {
		case "":
		case finishContentFilter:
			yield(llmgateway.SafetyBlocked())
			return
		default:
			finished = true
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		yield(llmgateway.Failure(llmgateway.WrapTransport(p.Name(), fmt.Errorf("stream read error: %w", err))))
		return
	}

	if !sawDone && !finished {
		if ctx.Err() != nil {
			return
		}
		yield(llmgateway.Failure(llmgateway.WrapTransport(p.Name(), llmgateway.ErrStreamTruncated)))
		return
	}

	if len(sources) > 0 && !yield(llmgateway.Citation(sources)) {
		return
	}
	yield(llmgateway.Done())
}
