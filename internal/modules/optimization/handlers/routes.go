package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers optimization routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/optimizer", func(r chi.Router) {
		r.Get("/", h.HandleGetDefaults)
		r.Post("/run", h.HandleRun)
		r.Post("/chart", h.HandleChart)
	})
}
