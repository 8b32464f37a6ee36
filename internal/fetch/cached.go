package fetch

import (
	"context"
	"time"

	"github.com/jonathan/algomentor/internal/cache"
	"github.com/rs/zerolog/log"
)

// DefaultResponseTTL is how long successful upstream bodies are reused.
// Profile builds hit the same submission endpoints several times in a row.
const DefaultResponseTTL = 2 * time.Minute

// CachedClient wraps a Getter with a response cache keyed by URL.
// Only successful responses are cached.
type CachedClient struct {
	next  Getter
	store cache.Store
	ttl   time.Duration
}

// NewCachedClient creates a CachedClient. A non-positive ttl uses DefaultResponseTTL.
func NewCachedClient(next Getter, store cache.Store, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = DefaultResponseTTL
	}
	return &CachedClient{next: next, store: store, ttl: ttl}
}

// Get returns a cached body when fresh, otherwise fetches and stores it.
func (c *CachedClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	key := responseKey(rawURL)
	if body, ok, err := c.store.Get(ctx, key); err == nil && ok {
		return body, nil
	} else if err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("response cache read failed")
	}

	body, err := c.next.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, body, c.ttl); err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("response cache write failed")
	}
	return body, nil
}

// Invalidate drops the cached body for rawURL.
func (c *CachedClient) Invalidate(ctx context.Context, rawURL string) error {
	return c.store.Delete(ctx, responseKey(rawURL))
}

func responseKey(rawURL string) string {
	return "http:" + rawURL
}
