package datatree

import (
	"github.com/VictoriaMetrics/fastcache"
	"github.com/vmihailenco/msgpack/v5"
)

// CachedTree wraps a DataTree with a fastcache read-through layer over
// Node lookups: the first Node call for a path reads the underlying tree,
// and later calls serve the cached copy. Entries have no expiry and are
// not reset between reaper sweeps; one stays until Invalidate drops it or
// fastcache evicts it for space, so callers must Invalidate a path once
// they know it changed.
type CachedTree struct {
	underlying DataTree
	cache      *fastcache.Cache
}

// NewCachedTree wraps underlying with a cache of roughly maxBytes.
func NewCachedTree(underlying DataTree, maxBytes int) *CachedTree {
	return &CachedTree{underlying: underlying, cache: fastcache.New(maxBytes)}
}

func (c *CachedTree) ContainerPaths() []string {
	return c.underlying.ContainerPaths()
}

func (c *CachedTree) TTLPaths() []string {
	return c.underlying.TTLPaths()
}

func (c *CachedTree) Node(path string) (NodeView, bool) {
	if buf := c.cache.Get(nil, []byte(path)); buf != nil {
		var n NodeView
		if err := msgpack.Unmarshal(buf, &n); err == nil {
			return n, true
		}
	}

	n, ok := c.underlying.Node(path)
	if !ok {
		return NodeView{}, false
	}
	if buf, err := msgpack.Marshal(n); err == nil {
		c.cache.Set([]byte(path), buf)
	}
	return n, true
}

// Invalidate drops path from the cache. Call it after submitting a
// delete for path, or after any other mutation a caller knows about.
func (c *CachedTree) Invalidate(path string) {
	c.cache.Del([]byte(path))
}
