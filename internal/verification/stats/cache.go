package stats

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"verifdesk/internal/verification/models"
	id "verifdesk/pkg/domain"
)

// Key identifies one cached snapshot.
type Key struct {
	Reviewer id.ReviewerID
	Day      string
}

// Cache stores computed snapshots under a generation token. Invalidate moves
// to a new generation, so a snapshot computed before an invalidation and
// stored after it is never served.
type Cache interface {
	// Lookup returns the snapshot for key in the current generation, if any,
	// together with that generation for a later Store.
	Lookup(ctx context.Context, key Key) (*models.ControllerStats, int64, error)
	Store(ctx context.Context, generation int64, key Key, snapshot models.ControllerStats) error
	Invalidate(ctx context.Context) error
}

// MemoryCache is a single-process Cache backed by go-cache. The generation is
// read and compared under mu so a Store cannot race past an Invalidate.
type MemoryCache struct {
	mu         sync.Mutex
	generation int64
	entries    *cache.Cache
}

// NewMemoryCache creates a cache whose entries expire after ttl. A zero ttl
// keeps entries until the next invalidation.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration, cleanup = ttl, 2*ttl
	}
	return &MemoryCache{entries: cache.New(expiration, cleanup)}
}

func (k Key) cacheKey() string {
	return k.Reviewer.String() + "|" + k.Day
}

func (c *MemoryCache) Lookup(_ context.Context, key Key) (*models.ControllerStats, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	x, found := c.entries.Get(key.cacheKey())
	if !found {
		return nil, c.generation, nil
	}
	snapshot := x.(models.ControllerStats)
	return &snapshot, c.generation, nil
}

func (c *MemoryCache) Store(_ context.Context, generation int64, key Key, snapshot models.ControllerStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.entries.Set(key.cacheKey(), snapshot, cache.DefaultExpiration)
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries.Flush()
	return nil
}
