package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all vector store routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/vectors", func(r chi.Router) {
		r.Post("/documents", h.HandleAddDocuments)
		r.Post("/search", h.HandleSearch)
		r.Get("/collection", h.HandleGetCollection)
	})
}
