package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"notechat/internal/contextutil"
)

// CachedEmbedder memoizes embeddings of repeated texts for a limited time.
type CachedEmbedder struct {
	next  Embedder
	cache *expirable.LRU[string, []float32]
}

// NewCachedEmbedder wraps next with an LRU cache of size entries expiring after ttl.
// A non-positive size or ttl disables caching and returns next unchanged.
func NewCachedEmbedder(next Embedder, size int, ttl time.Duration) Embedder {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &CachedEmbedder{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

// ModelName returns the wrapped model name.
func (c *CachedEmbedder) ModelName() string {
	return c.next.ModelName()
}

// Embed returns a cached vector or asks the wrapped embedder. Errors are not cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(c.next.ModelName(), text)
	if cached, ok := c.cache.Get(key); ok {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "embedding cache hit")
		return cloneVector(cached), nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneVector(vec))
	return vec, nil
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

func cacheKey(model, text string) string {
	hash := sha256.Sum256([]byte(text))
	return model + ":" + hex.EncodeToString(hash[:])
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
