// Package server assembles the chi router and HTTP handlers that expose
// the gateway's OpenAI-compatible surface.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/halcyon-ai/relaygw/internal/middleware"
	"github.com/halcyon-ai/relaygw/internal/svc"
)

// New builds the full router: request IDs, real-IP extraction, panic
// recovery, a 300-second request timeout, the API-key gate, and a request
// body size cap ahead of the OpenAI-compatible routes.
func New(ctx *svc.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(300 * time.Second))

	h := &handlers{ctx: ctx}

	r.Get("/healthz", h.health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(ctx.Config.APIKey))
		r.Use(middleware.MaxBodySize(ctx.Config.Security.MaxRequestBodySize))

		r.Post("/v1/chat/completions", h.chatCompletions)
		r.Get("/v1/models", h.listModels)
		r.Post("/v1/embeddings", h.embeddings)
	})

	if ctx.Config.IsObservabilityEnabled() {
		r.Get("/v1/observability/stream", h.observabilityStream)
	}

	return r
}
