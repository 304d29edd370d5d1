package suggest

import (
	"container/list"
	"sync"
)

// LRU is a bounded least-recently-used cache. When full, the entry that
// was used longest ago is evicted. It is safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	items   map[K]*list.Element
	lru     *list.List
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

func NewLRU[K comparable, V any](maxSize int) *LRU[K, V] {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &LRU[K, V]{
		maxSize: maxSize,
		items:   make(map[K]*list.Element),
		lru:     list.New(),
	}
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*lruEntry[K, V]).value, true
}

func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*lruEntry[K, V]).value = value
		return
	}
	if c.lru.Len() >= c.maxSize {
		c.evictOldest()
	}
	c.items[key] = c.lru.PushFront(&lruEntry[K, V]{key: key, value: value})
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element)
	c.lru.Init()
}

// Must be called with lock held.
func (c *LRU[K, V]) evictOldest() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	c.lru.Remove(elem)
	delete(c.items, elem.Value.(*lruEntry[K, V]).key)
}
