// Package handlers provides HTTP handlers for virtual trading operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/trading"
	"github.com/rs/zerolog"
)

// Handler handles trading HTTP requests
type Handler struct {
	service *trading.Service
	prices  *trading.PriceRepository
	log     zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(service *trading.Service, prices *trading.PriceRepository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		prices:  prices,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

// tradeRequest is the POST /api/trading/{buy,sell} payload
type tradeRequest struct {
	UserID   string `json:"user_id"`
	Symbol   string `json:"symbol"`
	Quantity int    `json:"quantity"`
}

// HandleBuy handles POST /api/trading/buy
func (h *Handler) HandleBuy(w http.ResponseWriter, r *http.Request) {
	h.handleTrade(w, r, h.service.Buy)
}

// HandleSell handles POST /api/trading/sell
func (h *Handler) HandleSell(w http.ResponseWriter, r *http.Request) {
	h.handleTrade(w, r, h.service.Sell)
}

func (h *Handler) handleTrade(w http.ResponseWriter, r *http.Request, exec func(string, string, int) (*trading.Trade, error)) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	trade, err := exec(req.UserID, req.Symbol, req.Quantity)
	if err != nil {
		// Validation failures (bad symbol, insufficient cash/holdings) are
		// client errors, not server faults
		h.log.Warn().Err(err).Str("user_id", req.UserID).Str("symbol", req.Symbol).Msg("Trade rejected")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"trade": trade,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetPortfolio handles GET /api/trading/portfolio/{userID}
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request, userID string) {
	valuation, err := h.service.Valuation(userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to value portfolio")
		http.Error(w, "Failed to get portfolio", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": valuation,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetTrades handles GET /api/trading/trades/{userID}
func (h *Handler) HandleGetTrades(w http.ResponseWriter, r *http.Request, userID string) {
	trades, err := h.service.Trades(userID, 50)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to get trades")
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"trades": trades,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetIndicators handles GET /api/trading/indicators/{symbol}
func (h *Handler) HandleGetIndicators(w http.ResponseWriter, r *http.Request, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	indicators, err := h.service.ComputeIndicators(symbol)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to compute indicators")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": indicators,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// pricesRequest is the PUT /api/trading/prices payload
type pricesRequest struct {
	Prices []trading.DailyPrice `json:"prices"`
}

// HandleUpsertPrices handles PUT /api/trading/prices (admin price loads)
func (h *Handler) HandleUpsertPrices(w http.ResponseWriter, r *http.Request) {
	var req pricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Prices) == 0 {
		http.Error(w, "prices must not be empty", http.StatusBadRequest)
		return
	}

	if err := h.prices.UpsertPrices(req.Prices); err != nil {
		h.log.Error().Err(err).Int("rows", len(req.Prices)).Msg("Failed to upsert prices")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"upserted": len(req.Prices),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
