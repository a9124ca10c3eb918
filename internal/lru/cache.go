// Package lru provides a bounded, concurrency-safe least-recently-used cache.
package lru

import (
	"container/list"
	"sync"
)

// Cache is an LRU cache holding at most a fixed number of entries.
// It is thread-safe and can be accessed concurrently.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	items   map[K]*list.Element
	lruList *list.List
	maxSize int
}

// entry represents a single cache entry.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// New creates a new LRU cache with the given maximum size.
// A maxSize below 1 is treated as 1.
func New[K comparable, V any](maxSize int) *Cache[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Cache[K, V]{
		items:   make(map[K]*list.Element, maxSize),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// Get returns the cached value for key and marks it as recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Add stores value under key, evicting the least recently used entry
// when the cache is full.
func (c *Cache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addLocked(key, value)
}

// GetOrAdd returns the cached value for key, or builds it with fn and
// caches the result. fn runs without the lock held, so concurrent callers
// may build the same value; the first one stored wins.
// Errors from fn are returned and nothing is cached.
func (c *Cache[K, V]) GetOrAdd(key K, fn func() (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err := fn()
	if err != nil {
		var zero V
		return zero, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check: another goroutine might have added it while we were building
	if elem, ok := c.items[key]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*entry[K, V]).value, false, nil
	}
	c.addLocked(key, v)
	return v, false, nil
}

func (c *Cache[K, V]) addLocked(key K, value V) {
	if elem, ok := c.items[key]; ok {
		elem.Value.(*entry[K, V]).value = value
		c.lruList.MoveToFront(elem)
		return
	}

	// Evict oldest entry if cache is full
	if c.lruList.Len() >= c.maxSize {
		if oldest := c.lruList.Back(); oldest != nil {
			c.lruList.Remove(oldest)
			delete(c.items, oldest.Value.(*entry[K, V]).key)
		}
	}

	c.items[key] = c.lruList.PushFront(&entry[K, V]{key: key, value: value})
}

// Len returns the current number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

// Cap returns the maximum number of entries the cache holds.
func (c *Cache[K, V]) Cap() int {
	return c.maxSize
}
