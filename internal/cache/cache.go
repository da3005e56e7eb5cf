package cache

import (
	"context"
	"time"

	"github.com/elevatehq/elevate-api/internal/config"
	gocache "github.com/patrickmn/go-cache"
)

// Cache is a small read-through cache used for hot lookups on the webhook
// path (ex: user email resolution for marketing sync).
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{})
	Delete(ctx context.Context, key string)
}

type inMemoryCache struct {
	store *gocache.Cache
}

// NewInMemoryCache creates a process-local cache with the configured TTL.
func NewInMemoryCache(cfg *config.Configuration) Cache {
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &inMemoryCache{
		store: gocache.New(ttl, 2*ttl),
	}
}

func (c *inMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *inMemoryCache) Set(_ context.Context, key string, value interface{}) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

func (c *inMemoryCache) Delete(_ context.Context, key string) {
	c.store.Delete(key)
}
