// Package vectorstore implements an append-only document store with
// brute-force cosine-similarity search. Documents and embeddings are held
// as two index-aligned in-memory slices persisted to two JSON files; the
// store is the single owner of both files.
package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
)

// CollectionName is the fixed name reported by CollectionInfo
const CollectionName = "sebi_regulations"

const (
	documentsFile  = "documents.json"
	embeddingsFile = "embeddings.json"
)

// Document is a stored text with caller-supplied ID and metadata
type Document struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Embedding is the vector paired 1:1 with a Document at the same index
type Embedding struct {
	ID     string    `json:"id"`
	Vector []float64 `json:"vector"`
}

// CollectionInfo describes the current store contents
type CollectionInfo struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

// Store owns the parallel document and embedding slices and their on-disk
// serialization. All mutation goes through a single mutex: two concurrent
// batches can no longer race on the file rewrite, which the original
// whole-file-per-batch design allowed.
type Store struct {
	mu         sync.RWMutex
	dir        string
	documents  []Document
	embeddings []Embedding
	byID       map[string]int
	dim        int // fixed dimensionality, set by the first vector
	dirty      bool
	log        zerolog.Logger
}

// New creates a store rooted at dir. Call Open before use.
func New(dir string, log zerolog.Logger) *Store {
	return &Store{
		dir:  dir,
		byID: make(map[string]int),
		log:  log.With().Str("component", "vectorstore").Logger(),
	}
}

// Open ensures the storage directory exists and loads any previously
// persisted arrays into memory. Unreadable or mismatched files reset the
// store to empty rather than aborting startup.
func (s *Store) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create vector store directory: %w", err)
	}

	docs, docsErr := loadJSON[[]Document](filepath.Join(s.dir, documentsFile))
	embs, embsErr := loadJSON[[]Embedding](filepath.Join(s.dir, embeddingsFile))

	if docsErr != nil || embsErr != nil {
		if !os.IsNotExist(docsErr) || !os.IsNotExist(embsErr) {
			s.log.Warn().
				AnErr("documents", docsErr).
				AnErr("embeddings", embsErr).
				Msg("Failed to load persisted arrays, starting empty")
		}
		s.reset()
		return nil
	}

	if len(docs) != len(embs) {
		s.log.Warn().
			Int("documents", len(docs)).
			Int("embeddings", len(embs)).
			Msg("Persisted arrays are not index-aligned, starting empty")
		s.reset()
		return nil
	}

	s.documents = docs
	s.embeddings = embs
	s.byID = make(map[string]int, len(docs))
	s.dim = 0
	for i, d := range docs {
		s.byID[d.ID] = i
		if s.dim == 0 && len(embs[i].Vector) > 0 {
			s.dim = len(embs[i].Vector)
		}
	}

	s.log.Info().Int("count", len(docs)).Int("dim", s.dim).Msg("Vector store loaded")
	return nil
}

// reset clears the in-memory state (caller holds the lock)
func (s *Store) reset() {
	s.documents = nil
	s.embeddings = nil
	s.byID = make(map[string]int)
	s.dim = 0
	s.dirty = false
}

// AddDocuments appends one entry per index to the store and persists both
// arrays. The four slices must have equal length. Duplicate IDs,
// zero-magnitude vectors, and dimension mismatches are rejected before
// any mutation, so a failed batch leaves the store untouched.
func (s *Store) AddDocuments(texts []string, embeddings [][]float64, metadatas []map[string]interface{}, ids []string) error {
	n := len(texts)
	if len(embeddings) != n || len(ids) != n || (metadatas != nil && len(metadatas) != n) {
		return fmt.Errorf("mismatched batch lengths: texts=%d embeddings=%d metadatas=%d ids=%d",
			len(texts), len(embeddings), len(metadatas), len(ids))
	}
	if n == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch first
	seen := make(map[string]bool, n)
	dim := s.dim
	for i, id := range ids {
		if id == "" {
			return fmt.Errorf("document %d has an empty id", i)
		}
		if _, exists := s.byID[id]; exists {
			return fmt.Errorf("duplicate document id %q", id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate document id %q within batch", id)
		}
		seen[id] = true

		vec := embeddings[i]
		if len(vec) == 0 {
			return fmt.Errorf("document %q has an empty embedding", id)
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return fmt.Errorf("document %q has dimension %d, store dimension is %d", id, len(vec), dim)
		}
		// Zero-magnitude vectors would produce NaN similarities; reject
		// them at the single write path
		if floats.Norm(vec, 2) == 0 {
			return fmt.Errorf("document %q has a zero-magnitude embedding", id)
		}
	}

	for i := 0; i < n; i++ {
		var meta map[string]interface{}
		if metadatas != nil {
			meta = metadatas[i]
		}
		s.documents = append(s.documents, Document{ID: ids[i], Text: texts[i], Metadata: meta})
		s.embeddings = append(s.embeddings, Embedding{ID: ids[i], Vector: embeddings[i]})
		s.byID[ids[i]] = len(s.documents) - 1
	}
	s.dim = dim
	s.dirty = true

	// Persist synchronously so the API keeps write-through semantics.
	// On failure the in-memory state is ahead of disk; the dirty flag
	// stays set and the scheduler retries the flush.
	if err := s.flushLocked(); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist vector store after batch")
		return fmt.Errorf("batch accepted in memory but persistence failed: %w", err)
	}

	return nil
}

// Flush persists the arrays if there are unflushed changes
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	return s.flushLocked()
}

// flushLocked serializes both arrays in full (caller holds the lock).
// Writes go to temp files renamed into place so a crash mid-write cannot
// corrupt an existing file.
func (s *Store) flushLocked() error {
	if err := saveJSON(filepath.Join(s.dir, documentsFile), s.documents); err != nil {
		return fmt.Errorf("failed to persist documents: %w", err)
	}
	if err := saveJSON(filepath.Join(s.dir, embeddingsFile), s.embeddings); err != nil {
		return fmt.Errorf("failed to persist embeddings: %w", err)
	}
	s.dirty = false
	return nil
}

// Close flushes any pending changes
func (s *Store) Close() error {
	return s.Flush()
}

// Count returns the number of stored documents
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// Dimension returns the fixed embedding dimensionality (0 when empty)
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dim
}

// Info returns the collection info
func (s *Store) Info() CollectionInfo {
	return CollectionInfo{
		Count: s.Count(),
		Name:  CollectionName,
	}
}

// loadJSON reads and unmarshals a JSON file
func loadJSON[T any](path string) (T, error) {
	var out T
	data, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// saveJSON marshals v and atomically replaces the file at path
func saveJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
