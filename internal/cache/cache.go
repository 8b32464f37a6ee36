// Package cache provides a small TTL key-value cache with in-memory and
// Redis backends, plus a read-through helper for JSON values.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL matches the lifetime of per-user dashboard data.
const DefaultTTL = time.Hour

// Store is a byte-oriented cache. Get reports ok=false on a miss.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UserKey builds the per-user key for a dataset, e.g. "user:42:tag".
func UserKey(userID, dataset string) string {
	return fmt.Sprintf("user:%s:%s", userID, dataset)
}

// Datasets cached per user.
const (
	DatasetProfile = "profile"
	DatasetTags    = "tag"
)

// GetJSON reads key and decodes it into out.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}

// Loader performs read-through caching. Concurrent misses on one key share a
// single fill.
type Loader struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
}

// NewLoader creates a Loader. A non-positive ttl uses DefaultTTL.
func NewLoader(store Store, ttl time.Duration) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Loader{store: store, ttl: ttl}
}

// Store returns the underlying store.
func (l *Loader) Store() Store {
	return l.store
}

// Load decodes the cached value at key into out. On a miss it calls fill,
// stores the result and decodes it into out. Cache read and write errors
// degrade to a fill; fill errors are returned.
func Load[T any](ctx context.Context, l *Loader, key string, fill func(context.Context) (T, error)) (T, error) {
	return LoadCacheable(ctx, l, key, func(ctx context.Context) (T, bool, error) {
		v, err := fill(ctx)
		return v, true, err
	})
}

// LoadCacheable is Load for fills that can decline caching: a result with
// keep=false is returned to every waiter but not stored.
func LoadCacheable[T any](ctx context.Context, l *Loader, key string, fill func(context.Context) (T, bool, error)) (T, error) {
	var cached T
	if ok, err := GetJSON(ctx, l.store, key, &cached); err == nil && ok {
		return cached, nil
	}

	// Waiters share one fill, so it must outlive any single caller.
	shared := context.WithoutCancel(ctx)
	v, err, _ := l.group.Do(key, func() (any, error) {
		value, keep, err := fill(shared)
		if err != nil {
			return nil, err
		}
		if keep {
			_ = SetJSON(shared, l.store, key, value, l.ttl)
		}
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops the cached value at key.
func (l *Loader) Invalidate(ctx context.Context, key string) error {
	return l.store.Delete(ctx, key)
}
