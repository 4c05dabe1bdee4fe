package pattern

import (
	"container/list"
	"sync"
	"time"
)

// CachedPattern is one entry of a Cache.
type CachedPattern struct {
	Key          uint64
	Pattern      SearchPattern
	WordChars    WordChars
	Compiled     *CompiledPattern
	LastAccessed time.Time
	AccessCount  int64
}

// CacheStats tracks cache performance statistics
type CacheStats struct {
	Hits          int64
	Misses        int64
	Evictions     int64
	TotalRequests int64
}

// HitRatio returns hits over total lookups.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is an LRU of compiled patterns keyed by an xxhash of the pattern
// and word character policy.
type Cache struct {
	entries map[uint64]*list.Element
	lru     *list.List
	mu      sync.Mutex

	maxSize          int
	maxPatternLength int

	stats CacheStats
}

// NewCache creates a cache holding at most maxSize compiled patterns.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache{
		entries:          make(map[uint64]*list.Element),
		lru:              list.New(),
		maxSize:          maxSize,
		maxPatternLength: 4096, // longer expressions are compiled but not cached
	}
}

// Get returns the cached compiled form of p, or nil.
func (c *Cache) Get(p SearchPattern, wc WordChars) *CompiledPattern {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalRequests++
	key := p.cacheKey(wc)
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*CachedPattern)
		// hash collisions fall through to a miss
		if entry.Pattern == p && entry.WordChars == wc {
			entry.LastAccessed = time.Now()
			entry.AccessCount++
			c.lru.MoveToFront(elem)
			c.stats.Hits++
			return entry.Compiled
		}
	}
	c.stats.Misses++
	return nil
}

// Put stores a compiled pattern, evicting the least recently used entry
// when the cache is full.
func (c *Cache) Put(p SearchPattern, wc WordChars, compiled *CompiledPattern) {
	if len(p.Expr()) > c.maxPatternLength {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := p.cacheKey(wc)
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*CachedPattern)
		entry.Pattern = p
		entry.WordChars = wc
		entry.Compiled = compiled
		c.lru.MoveToFront(elem)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evict()
	}

	entry := &CachedPattern{
		Key:          key,
		Pattern:      p,
		WordChars:    wc,
		Compiled:     compiled,
		LastAccessed: time.Now(),
		AccessCount:  1,
	}
	c.entries[key] = c.lru.PushFront(entry)
}

// evict removes the least recently used pattern
func (c *Cache) evict() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*CachedPattern)
	delete(c.entries, entry.Key)
	c.lru.Remove(back)
	c.stats.Evictions++
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all entries and resets statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uint64]*list.Element)
	c.lru = list.New()
	c.stats = CacheStats{}
}

// CleanupExpired removes patterns that haven't been accessed within maxAge.
func (c *Cache) CleanupExpired(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for e := c.lru.Back(); e != nil; {
		prev := e.Prev()
		entry := e.Value.(*CachedPattern)
		if now.Sub(entry.LastAccessed) > maxAge {
			delete(c.entries, entry.Key)
			c.lru.Remove(e)
			removed++
		}
		e = prev
	}
	return removed
}
