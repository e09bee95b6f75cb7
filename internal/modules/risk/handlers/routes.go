package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk scoring routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/score", h.HandleComputeScore)
		r.Post("/simulate", h.HandleSimulate)

		r.Get("/profile/{score}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetProfile(w, r, chi.URLParam(r, "score"))
		})
		r.Get("/metrics/{score}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetMetrics(w, r, chi.URLParam(r, "score"))
		})

		r.Get("/factors", h.HandleGetFactors)
		r.Put("/factors", h.HandleUpsertFactor)
		r.Get("/profiles", h.HandleGetProfiles)

		r.Get("/assessments/{userID}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetAssessments(w, r, chi.URLParam(r, "userID"))
		})
	})
}
