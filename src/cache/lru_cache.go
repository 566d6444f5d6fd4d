package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Entry is a cached value together with its expiry deadline.
type Entry struct {
	Value     any       `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LRUCache is a fixed-capacity cache with per-entry TTL. Safe for concurrent use.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	index    map[string]*list.Element
	order    *list.List // front = most recently used
}

type node struct {
	key string
	ent Entry
}

// NewLRUCache returns a cache holding at most capacity entries, each valid
// for ttl after its last Set.
func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	if capacity <= 0 {
		capacity = 128
	}
	return &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		index:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the live value for key. Expired entries are removed on access.
func (c *LRUCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[key]
	if !ok {
		return nil, false
	}
	n := elem.Value.(*node)
	if time.Now().After(n.ent.ExpiresAt) {
		c.remove(elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return n.ent.Value, true
}

// Set stores value under key, refreshing its TTL and recency.
func (c *LRUCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent := Entry{Value: value, ExpiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.index[key]; ok {
		elem.Value.(*node).ent = ent
		c.order.MoveToFront(elem)
		return
	}
	c.index[key] = c.order.PushFront(&node{key: key, ent: ent})
	c.evictOverflow()
}

// Delete removes key if present.
func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.index[key]; ok {
		c.remove(elem)
	}
}

// Clear drops every entry.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// Len reports the number of stored entries, including not-yet-collected
// expired ones.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Dump snapshots the cache contents for persistence.
func (c *LRUCache) Dump() map[string]Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Entry, len(c.index))
	for key, elem := range c.index {
		out[key] = elem.Value.(*node).ent
	}
	return out
}

// Restore replaces the cache contents with a previous Dump, skipping entries
// that have expired in the meantime.
func (c *LRUCache) Restore(entries map[string]Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[string]*list.Element, c.capacity)
	c.order.Init()
	now := time.Now()
	for key, ent := range entries {
		if now.After(ent.ExpiresAt) {
			continue
		}
		c.index[key] = c.order.PushFront(&node{key: key, ent: ent})
	}
	c.evictOverflow()
}

func (c *LRUCache) evictOverflow() {
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			return
		}
		c.remove(oldest)
	}
}

func (c *LRUCache) remove(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.index, elem.Value.(*node).key)
}

// HashKey derives a stable cache key from arbitrary prompt text.
func HashKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
