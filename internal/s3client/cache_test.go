package s3client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketCache_PutGet(t *testing.T) {
	c := newBucketCache(2)
	rc := &regionedClient{region: "us-east-1"}
	c.put("bucket-a", rc)

	got, ok := c.get("bucket-a")
	assert.True(t, ok)
	assert.Same(t, rc, got)
}

func TestBucketCache_Miss(t *testing.T) {
	c := newBucketCache(2)
	_, ok := c.get("nope")
	assert.False(t, ok)
}

func TestBucketCache_EvictsLRU(t *testing.T) {
	c := newBucketCache(2)
	c.put("a", &regionedClient{region: "us-east-1"})
	c.put("b", &regionedClient{region: "us-east-1"})
	c.put("c", &regionedClient{region: "us-east-1"})

	_, hitA := c.get("a")
	_, hitB := c.get("b")
	_, hitC := c.get("c")

	assert.False(t, hitA, "a should have been evicted")
	assert.True(t, hitB)
	assert.True(t, hitC)
}

func TestBucketCache_Stats(t *testing.T) {
	c := newBucketCache(1)
	c.put("a", &regionedClient{})
	_, _ = c.get("a")
	_, _ = c.get("missing")

	s := c.stats()
	assert.Equal(t, 1, s.Items)
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, 1, s.Capacity)
}
