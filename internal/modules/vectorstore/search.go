package vectorstore

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// SearchResult is a single ranked match.
// Distance is 1 - cosine similarity, so smaller means more similar.
type SearchResult struct {
	ID         string                 `json:"id"`
	Text       string                 `json:"text"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Similarity float64                `json:"similarity"`
	Distance   float64                `json:"distance"`
}

// SearchSimilar computes cosine similarity between the query vector and
// every stored embedding, then returns the topK most similar documents in
// descending similarity order. An empty store yields an empty result, not
// an error. The scan is O(N*D) with a full sort; fine at the corpus sizes
// this store is built for.
func (s *Store) SearchSimilar(query []float64, topK int) ([]SearchResult, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.documents) == 0 {
		return []SearchResult{}, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("query dimension %d does not match store dimension %d", len(query), s.dim)
	}

	queryNorm := floats.Norm(query, 2)

	results := make([]SearchResult, 0, len(s.documents))
	for i, emb := range s.embeddings {
		doc := s.documents[i]
		sim := cosineSimilarity(query, emb.Vector, queryNorm)
		results = append(results, SearchResult{
			ID:         doc.ID,
			Text:       doc.Text,
			Metadata:   doc.Metadata,
			Similarity: sim,
			Distance:   1 - sim,
		})
	}

	// Ingestion rejects zero vectors, so NaN similarities can only come
	// from a zero query; sort them last to keep the order total either way
	sort.SliceStable(results, func(i, j int) bool {
		si, sj := results[i].Similarity, results[j].Similarity
		if math.IsNaN(si) {
			return false
		}
		if math.IsNaN(sj) {
			return true
		}
		return si > sj
	})

	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// cosineSimilarity computes dot(a,b) / (|a|*|b|).
// queryNorm is precomputed by the caller to avoid recomputing it N times.
func cosineSimilarity(query, stored []float64, queryNorm float64) float64 {
	dot := floats.Dot(query, stored)
	return dot / (queryNorm * floats.Norm(stored, 2))
}
