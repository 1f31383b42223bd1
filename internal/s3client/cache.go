package s3client

import (
	"container/list"
	"sync"
)

// cacheEntry is the value stored per bucket in the LRU list.
type cacheEntry struct {
	bucket string
	client *regionedClient
}

// bucketCache is a bucket-keyed LRU of regioned S3 clients: a
// container/list eviction order plus a map lookup, guarded by one
// mutex, holding one *regionedClient per bucket.
type bucketCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List

	hits      int64
	misses    int64
	evictions int64
}

func newBucketCache(capacity int) *bucketCache {
	if capacity <= 0 {
		capacity = 8
	}
	return &bucketCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// get returns the cached client for bucket, if any, and marks it
// most-recently-used.
func (c *bucketCache) get(bucket string) (*regionedClient, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[bucket]
	if !ok {
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(elem)
	c.hits++
	return elem.Value.(*cacheEntry).client, true
}

// put inserts or refreshes the client for bucket, evicting the least
// recently used entry if the cache is over capacity.
func (c *bucketCache) put(bucket string, client *regionedClient) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[bucket]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).client = client
		return
	}

	elem := c.order.PushFront(&cacheEntry{bucket: bucket, client: client})
	c.items[bucket] = elem

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).bucket)
			c.evictions++
		}
	}
}

// stats is a point-in-time snapshot of the cache's size and cumulative
// hit/miss/eviction counters.
type stats struct {
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
	Capacity  int
}

func (c *bucketCache) stats() stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return stats{
		Items:     c.order.Len(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Capacity:  c.capacity,
	}
}
