// Package cache holds the in-process L1 caches shared by the assistant.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Cache is a typed L1 cache. Implementations are safe for concurrent use.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Len() int
	Purge()
}

// Key builds a fixed-length cache key from a namespace and parts. Parts are
// hashed verbatim; callers normalise them first when that is safe.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

type item[V any] struct {
	key     string
	value   V
	expires time.Time
}

// LRU evicts the least recently read or written key once it holds capacity
// entries. Expired entries are dropped lazily on Get.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	index    map[string]*list.Element
	recency  *list.List // front is most recent
	now      func() time.Time
}

// NewLRU creates an LRU with capacity entries (512 if not positive) and a
// default TTL (one minute if not positive).
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 512
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		index:    make(map[string]*list.Element, capacity),
		recency:  list.New(),
		now:      time.Now,
	}
}

func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.index[key]
	if !ok {
		return zero, false
	}
	it := el.Value.(*item[V])
	if !c.now().Before(it.expires) {
		c.unlink(el)
		return zero, false
	}
	c.recency.MoveToFront(el)
	return it.value, true
}

// Set stores value under key. A non-positive ttl uses the cache default.
func (c *LRU[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.ttl
	}
	expires := c.now().Add(ttl)

	if el, ok := c.index[key]; ok {
		it := el.Value.(*item[V])
		it.value, it.expires = value, expires
		c.recency.MoveToFront(el)
		return
	}
	for len(c.index) >= c.capacity {
		c.unlink(c.recency.Back())
	}
	c.index[key] = c.recency.PushFront(&item[V]{key: key, value: value, expires: expires})
}

func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.unlink(el)
	}
}

func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *LRU[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[string]*list.Element, c.capacity)
	c.recency.Init()
}

func (c *LRU[V]) unlink(el *list.Element) {
	if el == nil {
		return
	}
	c.recency.Remove(el)
	delete(c.index, el.Value.(*item[V]).key)
}
