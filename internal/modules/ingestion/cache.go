package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const cacheFile = "embedding_cache.msgpack"

// EmbeddingCache memoizes chunk embeddings on disk, keyed by the SHA-256
// of the chunk text. Re-ingesting an updated circular only pays for the
// chunks that actually changed.
type EmbeddingCache struct {
	mu      sync.Mutex
	path    string
	entries map[string][]float64
	dirty   bool
	log     zerolog.Logger
}

// NewEmbeddingCache loads the cache at dir, starting empty if the file is
// missing or unreadable
func NewEmbeddingCache(dir string, log zerolog.Logger) *EmbeddingCache {
	c := &EmbeddingCache{
		path:    filepath.Join(dir, cacheFile),
		entries: make(map[string][]float64),
		log:     log.With().Str("component", "embedding_cache").Logger(),
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn().Err(err).Msg("Failed to read embedding cache, starting empty")
		}
		return c
	}
	if err := msgpack.Unmarshal(data, &c.entries); err != nil {
		c.log.Warn().Err(err).Msg("Failed to decode embedding cache, starting empty")
		c.entries = make(map[string][]float64)
	}
	return c
}

// Key returns the cache key for a chunk of text
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached vector for a key, if present
func (c *EmbeddingCache) Get(key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vec, ok := c.entries[key]
	return vec, ok
}

// Put stores a vector under key
func (c *EmbeddingCache) Put(key string, vec []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = vec
	c.dirty = true
}

// Len returns the number of cached vectors
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save persists the cache if it changed since the last save
func (c *EmbeddingCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := msgpack.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("failed to encode embedding cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write embedding cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace embedding cache: %w", err)
	}

	c.dirty = false
	return nil
}
