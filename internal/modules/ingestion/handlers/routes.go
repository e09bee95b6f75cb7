package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all ingestion routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ingestion", func(r chi.Router) {
		r.Post("/pdf", h.HandleUploadPDF)
		r.Post("/text", h.HandleIngestText)
	})
}
