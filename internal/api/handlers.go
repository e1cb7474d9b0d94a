package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	llmgateway "github.com/wallscreet/llm-gateway"
)

// chatRequest is the JSON body accepted by every endpoint.
type chatRequest struct {
	Prompt string `json:"prompt"`

	// Level is read by the thinking endpoints when ?level= is absent.
	Level string `json:"level,omitempty"`
}

// endpoint describes what one route asks of the gateway.
type endpoint struct {
	thinking bool
	search   bool
}

type providerHandler struct {
	gw     *llmgateway.Gateway
	id     llmgateway.ProviderID
	logger *slog.Logger
}

// Generate handles POST /{provider}/generate.
func (h *providerHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, endpoint{})
}

// GenerateThinking handles POST /{provider}/generate_thinking.
func (h *providerHandler) GenerateThinking(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, endpoint{thinking: true})
}

// GenerateWithSearch handles POST /{provider}/generate_with_search.
func (h *providerHandler) GenerateWithSearch(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, endpoint{search: true})
}

// Stream handles POST /{provider}/stream.
func (h *providerHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, endpoint{}, llmgateway.FramingPlain)
}

// StreamThinking handles POST /{provider}/stream_thinking.
func (h *providerHandler) StreamThinking(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, endpoint{thinking: true}, llmgateway.FramingLabeled)
}

func (h *providerHandler) generate(w http.ResponseWriter, r *http.Request, ep endpoint) {
	body, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := buildRequest(r, body, ep)
	if err != nil {
		writeError(w, llmgateway.HTTPStatus(err), err.Error())
		return
	}

	resp, err := h.gw.Generate(r.Context(), h.id, req)
	if err != nil {
		writeError(w, llmgateway.HTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *providerHandler) stream(w http.ResponseWriter, r *http.Request, ep endpoint, framing llmgateway.Framing) {
	body, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	mux := llmgateway.NewMultiplexer(w, framing)

	req, err := buildRequest(r, body, ep)
	if err != nil {
		if werr := mux.Write(llmgateway.Failure(err)); werr != nil {
			h.logger.Debug("failed to write error frame", "error", werr)
		}
		return
	}

	if err := mux.Pump(r.Context(), h.gw.Stream(r.Context(), h.id, req)); err != nil {
		h.logger.Debug("stream ended with error", "frames", mux.Frames(), "error", err)
	}
}

// decodeChatRequest reads the JSON body. An empty body decodes to a zero
// request so the prompt check reports the problem.
func decodeChatRequest(r *http.Request) (chatRequest, error) {
	var body chatRequest
	if r.Body == nil {
		return body, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return body, errors.New("invalid JSON body: " + err.Error())
	}
	return body, nil
}

// buildRequest maps the HTTP inputs onto a GenerationRequest. Query
// parameters win over body fields.
func buildRequest(r *http.Request, body chatRequest, ep endpoint) (llmgateway.GenerationRequest, error) {
	q := r.URL.Query()
	req := llmgateway.GenerationRequest{
		Prompt: body.Prompt,
		Model:  q.Get("model_name"),
	}

	if ep.thinking {
		raw := q.Get("level")
		if raw == "" {
			raw = body.Level
		}
		level, err := llmgateway.ParseEffortLevel(raw)
		if err != nil {
			return req, err
		}
		req.EffortLevel = level
	}

	if ep.search {
		req.Tools = []llmgateway.ToolCapability{llmgateway.ToolWebSearch}
	}
	return req, nil
}
