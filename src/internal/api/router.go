package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a new HTTP router with all API endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(Logger(h.metrics))
	r.Use(PrivateSubnetOnly)
	r.Use(CORS)
	r.Use(JSONContentType)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.CheckHealth)
		r.Get("/check", h.CheckStore)
		r.Get("/interfaces", h.GetInterfaces)
		r.Post("/validate", h.ValidateEdit)

		r.Get("/{collection}", h.GetRecords)
		r.Delete("/{collection}/{id}", h.DeleteRecord)
		r.Put("/{collection}/{id}/{field}", h.UpdateField)
		r.Get("/{collection}/{id}/{field}/candidates", h.GetCandidates)
	})

	r.Handle("/metrics", h.metrics.Handler())

	return r
}
