package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"iter"

	llmgateway "github.com/wallscreet/llm-gateway"
)

// Stream performs a streaming chat. Ollama answers with one JSON object per
// line; the last one has done=true.
func (p *Provider) Stream(ctx context.Context, req *llmgateway.GenerationRequest, params *llmgateway.ThinkingParameters) iter.Seq[llmgateway.Event] {
	return func(yield func(llmgateway.Event) bool) {
		body, err := json.Marshal(buildChatRequest(req, params, true))
		if err != nil {
			yield(llmgateway.Failure(fmt.Errorf("failed to marshal request: %w", err)))
			return
		}

		respBody, err := p.doPost(ctx, "/api/chat", body)
		if err != nil {
			yield(llmgateway.Failure(err))
			return
		}
		defer respBody.Close()

		scanner := bufio.NewScanner(respBody)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk chatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				// Skip malformed lines; a missing done line is caught below.
				continue
			}

			if chunk.Error != "" {
				yield(llmgateway.Failure(p.inBandError(chunk.Error)))
				return
			}
			if chunk.Message.Thinking != "" && !yield(llmgateway.Thought(chunk.Message.Thinking)) {
				return
			}
			if chunk.Message.Content != "" && !yield(llmgateway.Message(chunk.Message.Content)) {
				return
			}
			if chunk.Done {
				yield(llmgateway.Done())
				return
			}
		}

		if ctx.Err() != nil {
			return
		}
		if err := scanner.Err(); err != nil {
			yield(llmgateway.Failure(llmgateway.WrapTransport(p.Name(), fmt.Errorf("stream read error: %w", err))))
			return
		}
		yield(llmgateway.Failure(llmgateway.WrapTransport(p.Name(), llmgateway.ErrStreamTruncated)))
	}
}
