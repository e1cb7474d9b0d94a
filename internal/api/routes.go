// Package api exposes the gateway over HTTP.
//
// Every registered backend is mounted under /<provider id> with the same
// endpoint set:
//
//	POST /generate              non-streaming, no reasoning
//	POST /generate_thinking     non-streaming, reasoning at ?level= (default low)
//	POST /generate_with_search  non-streaming, web search (search-capable backends only)
//	POST /stream                SSE, message text only
//	POST /stream_thinking       SSE, labeled thought/message/citation/control/error frames
//
// Every stream ends with exactly one terminal frame. On /stream_thinking a
// completed answer ends with "event: control" / "data: [DONE]" and a safety
// block with "event: control" / "data: [SAFETY_BLOCKED]". "event: error"
// carries failures only, so clients can tell a policy block from a backend
// failure by the data line alone. On /stream the same sentinels arrive as
// bare data lines and failures as "data: Error: <detail>".
package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	llmgateway "github.com/wallscreet/llm-gateway"
)

// RootMessage is returned by GET /.
const RootMessage = "Wallscreet AI C2 Online"

// NewRouter creates and configures a chi router serving gw.
func NewRouter(gw *llmgateway.Gateway, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": RootMessage})
	})

	// Health check, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/providers", listProviders(gw))

	for _, id := range gw.Providers() {
		h := &providerHandler{gw: gw, id: id, logger: logger.With("provider", id.String())}

		r.Route("/"+id.String(), func(r chi.Router) {
			r.Post("/generate", h.Generate)
			r.Post("/generate_thinking", h.GenerateThinking)
			if mountSearch(gw, id) {
				r.Post("/generate_with_search", h.GenerateWithSearch)
			}
			r.Post("/stream", h.Stream)
			r.Post("/stream_thinking", h.StreamThinking)
		})
	}

	return r
}

// mountSearch reports whether generate_with_search is routed for id.
// Unavailable backends keep the route so callers get the configuration
// error instead of a 404.
func mountSearch(gw *llmgateway.Gateway, id llmgateway.ProviderID) bool {
	caps, ok := gw.Capabilities(id)
	return !ok || caps.Search
}

type providerInfo struct {
	ID           string `json:"id"`
	Available    bool   `json:"available"`
	DefaultModel string `json:"default_model,omitempty"`
	Reasoning    bool   `json:"reasoning"`
	Search       bool   `json:"search"`
	Detail       string `json:"detail,omitempty"`
}

func listProviders(gw *llmgateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := gw.Providers()
		out := make([]providerInfo, 0, len(ids))
		for _, id := range ids {
			info := providerInfo{ID: id.String()}
			if _, err := gw.Provider(id); err != nil {
				info.Detail = err.Error()
			} else if caps, ok := gw.Capabilities(id); ok {
				info.Available = true
				info.DefaultModel = caps.DefaultModel
				info.Reasoning = caps.Reasoning
				info.Search = caps.Search
			}
			out = append(out, info)
		}
		writeJSON(w, http.StatusOK, out)
	}
}
