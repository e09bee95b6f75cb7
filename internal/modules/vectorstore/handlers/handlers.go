// Package handlers provides HTTP handlers for the vector store.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/vectorstore"
	"github.com/rs/zerolog"
)

// Handler handles vector store HTTP requests
type Handler struct {
	store *vectorstore.Store
	log   zerolog.Logger
}

// NewHandler creates a new vector store handler
func NewHandler(store *vectorstore.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "vectorstore").Logger(),
	}
}

// addRequest is the POST /api/vectors/documents payload
type addRequest struct {
	Texts      []string                 `json:"texts"`
	Embeddings [][]float64              `json:"embeddings"`
	Metadatas  []map[string]interface{} `json:"metadatas,omitempty"`
	IDs        []string                 `json:"ids"`
}

// HandleAddDocuments handles POST /api/vectors/documents
func (h *Handler) HandleAddDocuments(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Texts) == 0 {
		http.Error(w, "texts must not be empty", http.StatusBadRequest)
		return
	}

	if err := h.store.AddDocuments(req.Texts, req.Embeddings, req.Metadatas, req.IDs); err != nil {
		h.log.Error().Err(err).Int("batch_size", len(req.Texts)).Msg("Failed to add documents")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"added": len(req.Texts),
			"count": h.store.Count(),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// searchRequest is the POST /api/vectors/search payload
type searchRequest struct {
	Embedding []float64 `json:"embedding"`
	TopK      int       `json:"top_k"`
}

// HandleSearch handles POST /api/vectors/search.
// Results come back as index-aligned arrays, the shape downstream RAG
// clients already consume.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Embedding) == 0 {
		http.Error(w, "embedding must not be empty", http.StatusBadRequest)
		return
	}

	results, err := h.store.SearchSimilar(req.Embedding, req.TopK)
	if err != nil {
		h.log.Error().Err(err).Msg("Similarity search failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ids := make([]string, len(results))
	texts := make([]string, len(results))
	metadatas := make([]map[string]interface{}, len(results))
	distances := make([]float64, len(results))
	for i, res := range results {
		ids[i] = res.ID
		texts[i] = res.Text
		metadatas[i] = res.Metadata
		distances[i] = res.Distance
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"ids":       ids,
			"documents": texts,
			"metadatas": metadatas,
			"distances": distances,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetCollection handles GET /api/vectors/collection
func (h *Handler) HandleGetCollection(w http.ResponseWriter, r *http.Request) {
	info := h.store.Info()

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"name":      info.Name,
			"count":     info.Count,
			"dimension": h.store.Dimension(),
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
