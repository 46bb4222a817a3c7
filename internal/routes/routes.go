package routes

import (
	"github.com/contextfort/postwatch/internal/handlers"
	"github.com/contextfort/postwatch/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	requestHandler *handlers.RequestHandler,
	whitelistHandler *handlers.WhitelistHandler,
	ingestLimit middleware.RateLimitConfig,
) {
	router.Route("/api", func(r chi.Router) {
		r.Route("/blocked-requests", func(r chi.Router) {
			// Ingestion is the only endpoint an untrusted page can make chatty
			r.With(middleware.RateLimitByIP(ingestLimit)).Post("/", requestHandler.Create)
			r.Get("/", requestHandler.List)
			r.Delete("/", requestHandler.DeleteAll)
			r.Get("/{id}", requestHandler.Get)
			r.Patch("/{id}/status", requestHandler.UpdateStatus)
			r.Delete("/{id}", requestHandler.Delete)
		})

		r.Get("/stats", requestHandler.Stats)

		r.Route("/whitelist", func(r chi.Router) {
			r.Post("/", whitelistHandler.Add)
			r.Get("/", whitelistHandler.List)
			r.Get("/check", whitelistHandler.Check)
			r.Delete("/{id}", whitelistHandler.Remove)
		})
	})
}
