package zarrman

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manifestOfSize(zarrID, checksum string, size int) *Manifest {
	return &Manifest{
		ZarrID:   zarrID,
		Checksum: checksum,
		Root:     &DirObject{Dirs: map[string]*DirObject{}, Entries: map[string]*EntryLeaf{}},
		RawSize:  size,
	}
}

func TestManifestCache_PutGet(t *testing.T) {
	c := NewManifestCache(1024, time.Hour)
	m := manifestOfSize("z1", "abc", 100)
	c.Put(m)

	got, ok := c.Get("z1", "abc")
	require.True(t, ok)
	assert.Same(t, m, got)
	assert.Equal(t, int64(1), c.Stats().Hits)
}

func TestManifestCache_Miss(t *testing.T) {
	c := NewManifestCache(1024, time.Hour)
	_, ok := c.Get("nope", "nope")
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestManifestCache_EvictsByByteBound(t *testing.T) {
	c := NewManifestCache(150, time.Hour)
	c.Put(manifestOfSize("z1", "a", 100))
	c.Put(manifestOfSize("z2", "b", 100))

	stats := c.Stats()
	assert.LessOrEqual(t, stats.TotalBytes, int64(150))
	assert.Equal(t, int64(1), stats.Evictions)

	_, ok := c.Get("z1", "a")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get("z2", "b")
	assert.True(t, ok)
}

func TestManifestCache_IdleExpiry(t *testing.T) {
	c := NewManifestCache(1024, time.Millisecond)
	c.Put(manifestOfSize("z1", "a", 10))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("z1", "a")
	assert.False(t, ok)
}

func TestManifestCache_SweepIdle(t *testing.T) {
	c := NewManifestCache(1024, time.Millisecond)
	c.Put(manifestOfSize("z1", "a", 10))
	c.Put(manifestOfSize("z2", "b", 10))
	time.Sleep(5 * time.Millisecond)

	evicted := c.SweepIdle()
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 0, c.Stats().Items)
}

func TestManifestCache_SweepIdle_Disabled(t *testing.T) {
	c := NewManifestCache(1024, 0)
	c.Put(manifestOfSize("z1", "a", 10))
	assert.Equal(t, 0, c.SweepIdle())
}
