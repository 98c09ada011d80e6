package tessellate

import (
	"context"
	"math"
	"sync"

	"github.com/camber3d/camber/pkg/store"
)

// Key identifies one cached tessellation: the record, the version it was
// built from, and the zoom bucket of the requested tolerance. Any store
// replace bumps the version, invalidating stale entries by construction.
type Key struct {
	ID      store.ID
	Version uint64
	Bucket  int
}

// ZoomBucket quantizes a tolerance into power-of-two decades, so zoom must
// cross a doubling of the pixel budget before the cache retessellates.
func ZoomBucket(tolerance float64) int {
	if tolerance <= 0 {
		return math.MinInt32
	}
	return int(math.Floor(math.Log2(tolerance)))
}

// Cache memoizes tessellation results. Idempotent by key: a hit returns the
// identical mesh for identical inputs.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]store.Mesh
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]store.Mesh)}
}

// Mesh returns the tessellation of id at the given options, computing and
// caching it on a miss. The record and its version come from the snapshot,
// so a concurrent store write cannot tear the key.
func (c *Cache) Mesh(ctx context.Context, snap store.Snapshot, id store.ID, opts Options) (store.Mesh, error) {
	rec, ok := snap.Get(id)
	if !ok {
		return store.Mesh{}, &MissingRecordError{ID: id}
	}
	key := Key{ID: id, Version: snap.Version(id), Bucket: ZoomBucket(opts.tolerance())}

	c.mu.Lock()
	if m, hit := c.entries[key]; hit {
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	m, err := Tessellate(ctx, snap, id, rec, opts)
	if err != nil {
		return store.Mesh{}, err
	}

	c.mu.Lock()
	c.entries[key] = m
	c.mu.Unlock()
	return m, nil
}

// Invalidate drops every cached bucket for id. Version bumps already keep
// the cache correct; this reclaims memory after removals.
func (c *Cache) Invalidate(id store.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.ID == id {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of cached meshes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// MissingRecordError reports a tessellation request for an absent record.
type MissingRecordError struct {
	ID store.ID
}

func (e *MissingRecordError) Error() string {
	return "tessellate: no record " + e.ID.Short()
}
