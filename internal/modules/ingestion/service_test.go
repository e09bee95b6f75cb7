package ingestion

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/events"
	"github.com/AnupBarde45/SEBI-final-sub001/internal/modules/vectorstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns deterministic vectors and counts calls
type fakeEmbedder struct {
	calls   int
	failAt  int // fail on the Nth call (1-based), 0 means never
	lastErr error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		f.lastErr = fmt.Errorf("provider unavailable")
		return nil, f.lastErr
	}
	// Length-derived vector keeps distinct chunks distinct
	return []float32{float32(len(text)), 1, 0.5}, nil
}

func newTestService(t *testing.T, provider EmbeddingProvider) (*Service, *vectorstore.Store) {
	t.Helper()

	dir := t.TempDir()
	store := vectorstore.New(dir, zerolog.Nop())
	require.NoError(t, store.Open())

	svc := NewService(
		store,
		provider,
		NewEmbeddingCache(dir, zerolog.Nop()),
		NewChunker(200, 40, 20),
		time.Millisecond, // keep tests fast
		time.Second,
		events.NewBus(),
		zerolog.Nop(),
	)
	return svc, store
}

func TestIngestTextStoresAllChunks(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc, store := newTestService(t, embedder)

	text := "Paragraph one about listing obligations.\n\n" +
		"Paragraph two about disclosure timelines.\n\n" +
		"Paragraph three about penalties for non-compliance."

	result, err := svc.IngestText(context.Background(), "sebi_lodr.pdf", text)
	require.NoError(t, err)

	assert.Equal(t, "sebi_lodr.pdf", result.Source)
	assert.Greater(t, result.Chunks, 0)
	assert.Equal(t, result.Chunks, store.Count())
	assert.Equal(t, result.Chunks, embedder.calls)
	assert.Equal(t, 0, result.CacheHits)
}

func TestIngestTextEmptyDocument(t *testing.T) {
	svc, store := newTestService(t, &fakeEmbedder{})

	_, err := svc.IngestText(context.Background(), "empty.pdf", "   \n\n  ")
	require.Error(t, err)
	assert.Equal(t, 0, store.Count())
}

func TestIngestTextProviderFailureAbortsBatch(t *testing.T) {
	dir := t.TempDir()
	store := vectorstore.New(dir, zerolog.Nop())
	require.NoError(t, store.Open())

	// Chunk budget below paragraph length so each paragraph is its own
	// chunk and the second provider call actually happens
	embedder := &fakeEmbedder{failAt: 2}
	svc := NewService(store, embedder, NewEmbeddingCache(dir, zerolog.Nop()),
		NewChunker(80, 0, 20), time.Millisecond, time.Second, events.NewBus(), zerolog.Nop())

	text := "First paragraph with enough text to stand alone as a chunk here.\n\n" +
		"Second paragraph with enough text to stand alone as a chunk too.\n\n" +
		"Third paragraph with enough text to stand alone as a chunk also."

	_, err := svc.IngestText(context.Background(), "doc.pdf", text)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding failed")

	// The batch stopped at the failing chunk and nothing reached the store
	assert.Equal(t, 2, embedder.calls)
	assert.Equal(t, 0, store.Count())
}

func TestIngestTextRetryUsesCache(t *testing.T) {
	dir := t.TempDir()
	store := vectorstore.New(dir, zerolog.Nop())
	require.NoError(t, store.Open())
	cache := NewEmbeddingCache(dir, zerolog.Nop())
	bus := events.NewBus()

	text := "First paragraph with enough text to stand alone as a chunk here.\n\n" +
		"Second paragraph with enough text to stand alone as a chunk too."

	// First attempt fails on the second provider call
	failing := &fakeEmbedder{failAt: 2}
	svc := NewService(store, failing, cache, NewChunker(80, 0, 20),
		time.Millisecond, time.Second, bus, zerolog.Nop())
	_, err := svc.IngestText(context.Background(), "doc.pdf", text)
	require.Error(t, err)

	// Retry with a healthy provider: the first chunk comes from cache
	healthy := &fakeEmbedder{}
	svc = NewService(store, healthy, cache, NewChunker(80, 0, 20),
		time.Millisecond, time.Second, bus, zerolog.Nop())
	result, err := svc.IngestText(context.Background(), "doc.pdf", text)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Chunks)
	assert.Equal(t, 1, result.CacheHits)
	assert.Equal(t, 1, healthy.calls)
	assert.Equal(t, 2, store.Count())
}

func TestIngestTextPublishesEvents(t *testing.T) {
	bus := events.NewBus()
	_, ch := bus.Subscribe()

	dir := t.TempDir()
	store := vectorstore.New(dir, zerolog.Nop())
	require.NoError(t, store.Open())

	svc := NewService(store, &fakeEmbedder{}, NewEmbeddingCache(dir, zerolog.Nop()),
		NewChunker(200, 40, 20), time.Millisecond, time.Second, bus, zerolog.Nop())

	_, err := svc.IngestText(context.Background(), "doc.pdf", "One short paragraph about compliance.")
	require.NoError(t, err)

	var types []events.EventType
	for len(ch) > 0 {
		types = append(types, (<-ch).Type)
	}

	require.NotEmpty(t, types)
	assert.Equal(t, events.IngestionStarted, types[0])
	assert.Equal(t, events.IngestionCompleted, types[len(types)-1])
}

func TestExtractPDFTextRejectsNonPDF(t *testing.T) {
	_, err := ExtractPDFText([]byte("plain text, not a pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a PDF")
}

func TestEmbeddingCachePersistence(t *testing.T) {
	dir := t.TempDir()

	cache := NewEmbeddingCache(dir, zerolog.Nop())
	key := Key("some chunk text")
	cache.Put(key, []float64{0.1, 0.2, 0.3})
	require.NoError(t, cache.Save())

	reloaded := NewEmbeddingCache(dir, zerolog.Nop())
	vec, ok := reloaded.Get(key)
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 1, reloaded.Len())
}
