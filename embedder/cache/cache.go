// Package cache memoizes an Embedder with a ristretto in-memory cache.
//
// Conversations repeat themselves: the same query text is often embedded for
// Query and again for BuildContextPrompt. Cached vectors are keyed by the
// content hash of the text.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/ristretto"

	"github.com/becomeliminal/cortica-go/memory"
)

// Config configures the cache.
type Config struct {
	// MaxBytes bounds the total size of cached vectors (default: 64 MiB).
	MaxBytes int64

	// NumCounters is the number of keys tracked for admission (default: 100k).
	NumCounters int64

	Logger *slog.Logger
}

// Embedder wraps another Embedder with content-hash caching.
type Embedder struct {
	next   memory.Embedder
	cache  *ristretto.Cache
	logger *slog.Logger
}

var _ memory.Embedder = (*Embedder)(nil)

// New wraps next.
func New(next memory.Embedder, cfg Config) (*Embedder, error) {
	if next == nil {
		return nil, fmt.Errorf("cache: wrapped embedder is required")
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 64 << 20
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 100_000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}

	return &Embedder{
		next:   next,
		cache:  c,
		logger: cfg.Logger.With("component", "embed_cache"),
	}, nil
}

// Embed returns the embedding for text, using the cache when available.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := ContentHash(text)

	if v, ok := e.cache.Get(key); ok {
		if vec, ok := v.([]float32); ok {
			return append([]float32(nil), vec...), nil
		}
	}

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	stored := append([]float32(nil), vec...)
	if !e.cache.Set(key, stored, int64(4*len(stored))) {
		e.logger.Debug("embedding not admitted to cache", "key", key[:12])
	}
	// Make the entry visible to the next Get.
	e.cache.Wait()

	return vec, nil
}

// Stats reports cache hits and misses since creation.
func (e *Embedder) Stats() (hits, misses uint64) {
	return e.cache.Metrics.Hits(), e.cache.Metrics.Misses()
}

// Close stops the cache's background goroutines.
func (e *Embedder) Close() {
	e.cache.Close()
}

// ContentHash computes a SHA-256 hash of text content.
func ContentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
