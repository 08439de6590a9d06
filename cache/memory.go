package cache

import (
	"container/list"
	"context"
	"sync"
)

// MemoryCache is an in-memory cache implementation.
//
// When the policy sets MaxEntries, the least recently used entry is evicted
// to make room for a new key. Reads and overwrites both count as use.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	max     int
}

// NewMemoryCache creates a new in-memory cache with the given policy.
func NewMemoryCache(policy Policy) *MemoryCache {
	limit := policy.MaxEntries
	if limit < 0 {
		limit = 0
	}
	return &MemoryCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		max:     limit,
	}
}

// Get retrieves an entry. Stale entries are returned as-is.
func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	c.order.MoveToFront(el)
	return el.Value.(Entry), true, nil
}

// Set stores an entry, replacing any previous entry for the same key.
func (c *MemoryCache) Set(_ context.Context, entry Entry) error {
	if err := ValidateKey(entry.Key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[entry.Key]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
		return nil
	}

	if c.max > 0 {
		for c.order.Len() >= c.max {
			c.evictOldestLocked()
		}
	}
	c.entries[entry.Key] = c.order.PushFront(entry)
	return nil
}

// Delete removes an entry. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, fresh or stale.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *MemoryCache) evictOldestLocked() {
	el := c.order.Back()
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.entries, el.Value.(Entry).Key)
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)
