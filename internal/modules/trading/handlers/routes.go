package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all trading routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/trading", func(r chi.Router) {
		r.Post("/buy", h.HandleBuy)
		r.Post("/sell", h.HandleSell)
		r.Put("/prices", h.HandleUpsertPrices)

		r.Get("/portfolio/{userID}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetPortfolio(w, r, chi.URLParam(r, "userID"))
		})
		r.Get("/trades/{userID}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetTrades(w, r, chi.URLParam(r, "userID"))
		})
		r.Get("/indicators/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetIndicators(w, r, chi.URLParam(r, "symbol"))
		})
	})
}
