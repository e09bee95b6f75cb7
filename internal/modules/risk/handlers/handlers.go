// Package handlers provides HTTP handlers for risk scoring operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/events"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/risk"
	"github.com/rs/zerolog"
)

// Handler handles risk scoring HTTP requests
type Handler struct {
	engine      *risk.Engine
	configRepo  *risk.Repository
	assessments *risk.AssessmentRepository
	eventBus    *events.Bus
	log         zerolog.Logger
}

// NewHandler creates a new risk scoring handler
func NewHandler(
	engine *risk.Engine,
	configRepo *risk.Repository,
	assessments *risk.AssessmentRepository,
	eventBus *events.Bus,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		engine:      engine,
		configRepo:  configRepo,
		assessments: assessments,
		eventBus:    eventBus,
		log:         log.With().Str("handler", "risk").Logger(),
	}
}

// scoreRequest is the POST /api/risk/score payload
type scoreRequest struct {
	UserID    string                     `json:"user_id"`
	Responses risk.QuestionnaireResponse `json:"responses"`
}

// HandleComputeScore handles POST /api/risk/score.
// Computes the score, classifies the profile, derives metrics, and (when
// a user ID is supplied) persists the assessment.
func (h *Handler) HandleComputeScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Responses.Age <= 0 {
		http.Error(w, "age must be a positive integer", http.StatusBadRequest)
		return
	}
	if req.Responses.Horizon < 0 {
		http.Error(w, "horizon must be non-negative", http.StatusBadRequest)
		return
	}

	score := h.engine.ComputeScore(req.Responses)
	profile := h.engine.ClassifyProfile(score)
	metrics := risk.ComputePortfolioMetrics(score)

	var assessmentID string
	if req.UserID != "" {
		assessment, err := h.assessments.Create(req.UserID, score, profile.ProfileName)
		if err != nil {
			// Scoring succeeded; persistence failure is logged but the
			// result is still returned to the caller
			h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to store assessment")
		} else {
			assessmentID = assessment.ID
			h.eventBus.Publish(events.Event{
				Type: events.AssessmentCompleted,
				Data: map[string]interface{}{
					"user_id": req.UserID,
					"score":   score,
					"profile": profile.ProfileName,
				},
			})
		}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"score":         score,
			"profile":       profile,
			"metrics":       metrics,
			"assessment_id": assessmentID,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetProfile handles GET /api/risk/profile/{score}
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request, scoreParam string) {
	score, err := strconv.Atoi(scoreParam)
	if err != nil || score < 0 || score > 100 {
		http.Error(w, "score must be an integer in [0,100]", http.StatusBadRequest)
		return
	}

	profile := h.engine.ClassifyProfile(score)

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"score":   score,
			"profile": profile,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetMetrics handles GET /api/risk/metrics/{score}
func (h *Handler) HandleGetMetrics(w http.ResponseWriter, r *http.Request, scoreParam string) {
	score, err := strconv.Atoi(scoreParam)
	if err != nil || score < 0 || score > 100 {
		http.Error(w, "score must be an integer in [0,100]", http.StatusBadRequest)
		return
	}

	metrics := risk.ComputePortfolioMetrics(score)

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"score":   score,
			"metrics": metrics,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// simulateRequest is the POST /api/risk/simulate payload
type simulateRequest struct {
	Score               int     `json:"score"`
	MarketChangePercent float64 `json:"market_change_percent"`
}

// HandleSimulate handles POST /api/risk/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	change := risk.SimulateMarketImpact(req.Score, req.MarketChangePercent)

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"score":                    req.Score,
			"market_change_percent":    req.MarketChangePercent,
			"portfolio_change_percent": change,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetFactors handles GET /api/risk/factors
func (h *Handler) HandleGetFactors(w http.ResponseWriter, r *http.Request) {
	factors, err := h.configRepo.ActiveFactors()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get risk factors")
		http.Error(w, "Failed to get risk factors", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"factors": factors,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleUpsertFactor handles PUT /api/risk/factors
func (h *Handler) HandleUpsertFactor(w http.ResponseWriter, r *http.Request) {
	var factor risk.Factor
	if err := json.NewDecoder(r.Body).Decode(&factor); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if factor.FactorType == "" || factor.ConditionKey == "" {
		http.Error(w, "factor_type and condition_key are required", http.StatusBadRequest)
		return
	}

	if err := h.configRepo.UpsertFactor(factor); err != nil {
		h.log.Error().Err(err).Msg("Failed to upsert risk factor")
		http.Error(w, "Failed to upsert risk factor", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"status": "ok",
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetProfiles handles GET /api/risk/profiles.
// Returns configured profiles when present, the static ladder otherwise.
func (h *Handler) HandleGetProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.configRepo.ActiveProfiles()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get configured profiles, returning static ladder")
		profiles = nil
	}
	if len(profiles) == 0 {
		profiles = risk.StaticProfiles()
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"profiles": profiles,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetAssessments handles GET /api/risk/assessments/{userID}
func (h *Handler) HandleGetAssessments(w http.ResponseWriter, r *http.Request, userID string) {
	latest, err := h.assessments.Latest(userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to get latest assessment")
		http.Error(w, "Failed to get assessments", http.StatusInternalServerError)
		return
	}

	history, err := h.assessments.History(userID, 50)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to get assessment history")
		http.Error(w, "Failed to get assessments", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"latest":  latest,
			"history": history,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
