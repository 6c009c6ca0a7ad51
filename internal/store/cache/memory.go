package cache

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

type item struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a bounded in-process cache. Entries leave either when
// their own TTL passes or when the LRU evicts them.
type MemoryCache struct {
	items *lru.LRU[string, item]
	now   func() time.Time
}

// NewMemoryCache keeps at most size entries. maxTTL caps every entry's
// lifetime regardless of the TTL passed to Set.
func NewMemoryCache(size int, maxTTL time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	return &MemoryCache{
		items: lru.NewLRU[string, item](size, nil, maxTTL),
		now:   time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	it, ok := c.items.Get(key)
	if !ok {
		return ErrMiss
	}

	if c.now().After(it.expiresAt) {
		c.items.Remove(key)
		return ErrMiss
	}

	return json.Unmarshal(it.value, dest)
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.items.Add(key, item{
		value:     data,
		expiresAt: c.now().Add(ttl),
	})
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.items.Remove(key)
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.items.Len()
}
