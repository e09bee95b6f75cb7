// Package handlers provides HTTP handlers for document ingestion.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/ingestion"
	"github.com/rs/zerolog"
)

// maxUploadBytes caps PDF uploads at 32 MiB
const maxUploadBytes = 32 << 20

// Handler handles ingestion HTTP requests
type Handler struct {
	service *ingestion.Service
	log     zerolog.Logger
}

// NewHandler creates a new ingestion handler
func NewHandler(service *ingestion.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ingestion").Logger(),
	}
}

// HandleUploadPDF handles POST /api/ingestion/pdf.
// Accepts a multipart form with a "file" part. The request blocks until
// the whole document is embedded and stored.
func (h *Handler) HandleUploadPDF(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	result, err := h.service.IngestPDF(r.Context(), header.Filename, data)
	if err != nil {
		h.log.Error().Err(err).Str("source", header.Filename).Msg("PDF ingestion failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.writeResult(w, result)
}

// textRequest is the POST /api/ingestion/text payload
type textRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// HandleIngestText handles POST /api/ingestion/text
func (h *Handler) HandleIngestText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Source == "" || req.Text == "" {
		http.Error(w, "source and text are required", http.StatusBadRequest)
		return
	}

	result, err := h.service.IngestText(r.Context(), req.Source, req.Text)
	if err != nil {
		h.log.Error().Err(err).Str("source", req.Source).Msg("Text ingestion failed")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.writeResult(w, result)
}

// writeResult writes an ingestion result in the standard envelope
func (h *Handler) writeResult(w http.ResponseWriter, result *ingestion.Result) {
	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
