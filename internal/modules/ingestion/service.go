// Package ingestion turns regulatory documents into embedded chunks in the
// vector store: extract, chunk, embed, append.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/events"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/vectorstore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// EmbeddingProvider produces embedding vectors for text. The context
// carries the per-call timeout.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result summarizes a completed ingestion
type Result struct {
	Source      string `json:"source"`
	Chunks      int    `json:"chunks"`
	CacheHits   int    `json:"cache_hits"`
	StoredCount int    `json:"stored_count"`
}

// Service runs the extract-chunk-embed-store pipeline. Embedding calls go
// out sequentially through a rate limiter so a large circular cannot blow
// through the provider's quota.
type Service struct {
	store       *vectorstore.Store
	provider    EmbeddingProvider
	cache       *EmbeddingCache
	chunker     *Chunker
	limiter     *rate.Limiter
	callTimeout time.Duration
	eventBus    *events.Bus
	log         zerolog.Logger
}

// NewService creates an ingestion service. interval is the minimum gap
// between provider calls.
func NewService(
	store *vectorstore.Store,
	provider EmbeddingProvider,
	cache *EmbeddingCache,
	chunker *Chunker,
	interval time.Duration,
	callTimeout time.Duration,
	eventBus *events.Bus,
	log zerolog.Logger,
) *Service {
	if interval <= 0 {
		interval = 1200 * time.Millisecond
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Service{
		store:       store,
		provider:    provider,
		cache:       cache,
		chunker:     chunker,
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		callTimeout: callTimeout,
		eventBus:    eventBus,
		log:         log.With().Str("service", "ingestion").Logger(),
	}
}

// IngestPDF extracts text from a PDF and ingests it
func (s *Service) IngestPDF(ctx context.Context, source string, data []byte) (*Result, error) {
	text, err := ExtractPDFText(data)
	if err != nil {
		return nil, fmt.Errorf("extraction failed for %s: %w", source, err)
	}
	return s.IngestText(ctx, source, text)
}

// IngestText chunks and embeds text, then appends the whole batch to the
// vector store. A provider failure aborts the batch before anything is
// stored; the caller retries the document as a unit. Embeddings obtained
// before the failure stay in the cache, so a retry only pays for the rest.
func (s *Service) IngestText(ctx context.Context, source string, text string) (*Result, error) {
	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced for %s", source)
	}

	s.log.Info().Str("source", source).Int("chunks", len(chunks)).Msg("Starting ingestion")
	s.eventBus.Publish(events.Event{
		Type: events.IngestionStarted,
		Data: map[string]interface{}{"source": source, "chunks": len(chunks)},
	})

	defer func() {
		if err := s.cache.Save(); err != nil {
			s.log.Error().Err(err).Msg("Failed to save embedding cache")
		}
	}()

	vectors := make([][]float64, len(chunks))
	cacheHits := 0
	for i, chunk := range chunks {
		key := Key(chunk)
		if vec, ok := s.cache.Get(key); ok {
			vectors[i] = vec
			cacheHits++
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("ingestion cancelled for %s: %w", source, err)
		}

		vec, err := s.embedChunk(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embedding failed for %s at chunk %d/%d: %w",
				source, i+1, len(chunks), err)
		}
		s.cache.Put(key, vec)
		vectors[i] = vec

		s.eventBus.Publish(events.Event{
			Type: events.IngestionProgress,
			Data: map[string]interface{}{"source": source, "chunk": i + 1, "chunks": len(chunks)},
		})
	}

	texts := make([]string, len(chunks))
	metadatas := make([]map[string]interface{}, len(chunks))
	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk
		metadatas[i] = map[string]interface{}{
			"source":      source,
			"chunk_index": i,
		}
		ids[i] = uuid.New().String()
	}

	if err := s.store.AddDocuments(texts, vectors, metadatas, ids); err != nil {
		return nil, fmt.Errorf("failed to store chunks for %s: %w", source, err)
	}

	result := &Result{
		Source:      source,
		Chunks:      len(chunks),
		CacheHits:   cacheHits,
		StoredCount: s.store.Count(),
	}

	s.log.Info().
		Str("source", source).
		Int("chunks", result.Chunks).
		Int("cache_hits", result.CacheHits).
		Msg("Ingestion completed")
	s.eventBus.Publish(events.Event{
		Type: events.IngestionCompleted,
		Data: map[string]interface{}{
			"source":     source,
			"chunks":     result.Chunks,
			"cache_hits": result.CacheHits,
		},
	})

	return result, nil
}

// embedChunk calls the provider under the per-call timeout and widens the
// vector to float64 for storage
func (s *Service) embedChunk(ctx context.Context, chunk string) ([]float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	raw, err := s.provider.Embed(callCtx, chunk)
	if err != nil {
		return nil, err
	}

	vec := make([]float64, len(raw))
	for i, v := range raw {
		vec[i] = float64(v)
	}
	return vec, nil
}
