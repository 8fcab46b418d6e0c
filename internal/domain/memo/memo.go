// Package memo caches solved angle results for repeated batch inputs.
package memo

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/okian/ergofit/internal/domain/model"
)

const defaultMaxSize = 4096

// Key identifies one solve by the exact bits of its inputs. Inputs that
// differ only in rounding are different keys.
type Key struct {
	bike  [model.BikeColumns]uint64
	body  [model.BodyColumns]uint64
	elbow uint64
	step  uint64
}

// KeyOf builds the key for a solve. Only the body fields the solver reads
// take part, so riders that differ in height share entries.
func KeyOf(bike model.BikeVector, body model.BodyVector, elbowDeg, stepDeg float64) Key {
	var k Key
	for i, v := range bike.Row() {
		k.bike[i] = math.Float64bits(v)
	}
	for i, v := range body.Row()[:model.BodyColumns] {
		k.body[i] = math.Float64bits(v)
	}
	k.elbow = math.Float64bits(elbowDeg)
	k.step = math.Float64bits(stepDeg)
	return k
}

// Cache stores solved results.
type Cache interface {
	// Get returns a cached result.
	Get(ctx context.Context, key Key) (model.AngleResult, bool)
	// Put stores a result, evicting the oldest entry when full.
	Put(ctx context.Context, key Key, r model.AngleResult)
	Size() int64
	// Stats returns hit and miss counts since creation.
	Stats() (hits, misses int64)
}

// node is one entry in insertion order, oldest first.
type node struct {
	key    Key
	result model.AngleResult
	next   *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryCache implements Cache with a map plus an insertion-ordered list.
// In unbounded mode the list is not kept.
type inMemoryCache struct {
	mu       sync.Mutex
	entries  map[Key]*node
	head     *node // oldest
	tail     *node // newest
	maxSize  int
	size     atomic.Int64
	hits     atomic.Int64
	misses   atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryCache creates a new in-memory cache with configuration options.
func NewInMemoryCache(opts ...Option) Cache {
	c := &inMemoryCache{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[Key]*node)
	c.nodePool = sync.Pool{
		New: func() any {
			return &node{}
		},
	}
	return c
}

func (c *inMemoryCache) Get(_ context.Context, key Key) (model.AngleResult, bool) {
	c.mu.Lock()
	n, ok := c.entries[key]
	var r model.AngleResult
	if ok {
		r = n.result
	}
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return r, ok
}

func (c *inMemoryCache) Put(_ context.Context, key Key, r model.AngleResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, exists := c.entries[key]; exists {
		n.result = r
		return
	}

	n := c.nodePool.Get().(*node)
	n.key = key
	n.result = r
	c.entries[key] = n
	c.size.Add(1)

	if c.maxSize <= 0 {
		return
	}
	if c.tail == nil {
		c.head, c.tail = n, n
	} else {
		c.tail.next = n
		c.tail = n
	}
	for len(c.entries) > c.maxSize {
		c.evictOldest()
	}
}

// evictOldest removes the head of the list. Must be called with c.mu held.
func (c *inMemoryCache) evictOldest() {
	old := c.head
	if old == nil {
		return
	}
	c.head = old.next
	if c.head == nil {
		c.tail = nil
	}
	delete(c.entries, old.key)
	old.reset()
	c.nodePool.Put(old)
	c.size.Add(-1)
}

func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}

func (c *inMemoryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
