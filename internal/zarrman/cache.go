package zarrman

import (
	"container/list"
	"sync"
	"time"
)

// cacheKey identifies one cached manifest.
type cacheKey struct {
	zarrID   string
	checksum string
}

type cacheEntry struct {
	key        cacheKey
	manifest   *Manifest
	size       int64
	lastAccess time.Time
}

// ManifestCache is the content-addressed zarr-manifest cache: an LRU
// (container/list + map, guarded by one mutex) bounded by both total
// byte footprint and per-entry idle TTL, keyed by (zarrID, checksum).
type ManifestCache struct {
	mu         sync.Mutex
	maxBytes   int64
	idleTTL    time.Duration
	items      map[cacheKey]*list.Element
	order      *list.List
	totalBytes int64

	hits      int64
	misses    int64
	evictions int64
}

// NewManifestCache builds a cache bounded at maxBytes total with the
// given idle eviction window.
func NewManifestCache(maxBytes int64, idleTTL time.Duration) *ManifestCache {
	return &ManifestCache{
		maxBytes: maxBytes,
		idleTTL:  idleTTL,
		items:    make(map[cacheKey]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached manifest for (zarrID, checksum) if present and
// not idle-expired, marking it most-recently-used.
func (c *ManifestCache) Get(zarrID, checksum string) (*Manifest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{zarrID, checksum}
	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if c.idleTTL > 0 && time.Since(entry.lastAccess) > c.idleTTL {
		c.removeElem(elem)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(elem)
	entry.lastAccess = time.Now()
	c.hits++
	return entry.manifest, true
}

// Put inserts a newly-fetched manifest, evicting LRU entries until the
// total-byte bound holds (testable property: the sum of cached sizes
// never exceeds the bound after any insertion returns).
func (c *ManifestCache) Put(m *Manifest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{m.ZarrID, m.Checksum}
	size := int64(m.RawSize)

	if elem, ok := c.items[key]; ok {
		c.removeElem(elem)
	}

	entry := &cacheEntry{key: key, manifest: m, size: size, lastAccess: time.Now()}
	elem := c.order.PushFront(entry)
	c.items[key] = elem
	c.totalBytes += size

	for c.totalBytes > c.maxBytes && c.order.Len() > 1 {
		oldest := c.order.Back()
		if oldest == elem {
			break
		}
		c.removeElem(oldest)
		c.evictions++
	}
	// A manifest larger than the whole bound is not kept at all.
	if c.totalBytes > c.maxBytes {
		c.removeElem(elem)
	}
}

// removeElem deletes elem from both the list and the map; caller must
// hold c.mu.
func (c *ManifestCache) removeElem(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.order.Remove(elem)
	delete(c.items, entry.key)
	c.totalBytes -= entry.size
}

// SweepIdle purges entries that have not been accessed within the idle
// TTL, returning the count evicted. Called from the hourly
// housekeeping tick.
func (c *ManifestCache) SweepIdle() int {
	if c.idleTTL <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		entry := elem.Value.(*cacheEntry)
		if time.Since(entry.lastAccess) > c.idleTTL {
			c.removeElem(elem)
			evicted++
		}
		elem = prev
	}
	c.evictions += int64(evicted)
	return evicted
}

// Stats is a point-in-time snapshot of the cache's size and cumulative
// hit/miss/eviction counters.
type Stats struct {
	Items      int
	TotalBytes int64
	Hits       int64
	Misses     int64
	Evictions  int64
}

func (c *ManifestCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Items:      c.order.Len(),
		TotalBytes: c.totalBytes,
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
	}
}
