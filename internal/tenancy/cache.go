package tenancy

import (
	"container/list"
	"context"
	"sync"
	"time"

	"saas-tenancy/internal/model"
)

// Cache stores resolved tenants keyed by hint.
type Cache interface {
	Get(ctx context.Context, key string) (*model.Tenant, bool)
	Set(ctx context.Context, key string, tenant *model.Tenant, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Close() error
}

// DefaultCacheSize bounds the in-memory cache.
const DefaultCacheSize = 1000

type memoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
	now     func() time.Time
}

type memoryItem struct {
	key       string
	tenant    model.Tenant
	expiresAt time.Time
}

// NewMemoryCache returns an LRU-bounded in-process cache with per-entry TTL.
func NewMemoryCache(maxSize int) Cache {
	return newMemoryCache(maxSize, time.Now)
}

func newMemoryCache(maxSize int, now func() time.Time) *memoryCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &memoryCache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		now:     now,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (*model.Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	item := el.Value.(*memoryItem)
	if c.now().After(item.expiresAt) {
		c.order.Remove(el)
		delete(c.items, key)
		return nil, false
	}

	c.order.MoveToFront(el)
	t := item.tenant
	return &t, true
}

func (c *memoryCache) Set(_ context.Context, key string, tenant *model.Tenant, ttl time.Duration) {
	if tenant == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		item := el.Value.(*memoryItem)
		item.tenant = *tenant
		item.expiresAt = c.now().Add(ttl)
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*memoryItem).key)
		}
	}

	c.items[key] = c.order.PushFront(&memoryItem{
		key:       key,
		tenant:    *tenant,
		expiresAt: c.now().Add(ttl),
	})
}

func (c *memoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

func (c *memoryCache) Close() error { return nil }

type noopCache struct{}

// NewNoopCache returns a cache that never stores anything.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) (*model.Tenant, bool) { return nil, false }
func (noopCache) Set(context.Context, string, *model.Tenant, time.Duration) {}
func (noopCache) Delete(context.Context, string) {}
func (noopCache) Close() error { return nil }
