package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kweissmann/hireview/backend/internal/storage"
	"github.com/kweissmann/hireview/backend/internal/types"
)

// DefaultRecruiterTTL is how long a resolved recruiter entry stays fresh.
// Display names change rarely; a short TTL keeps renames visible without
// hitting the store on every aggregation.
const DefaultRecruiterTTL = 5 * time.Minute

type recruiterEntry struct {
	recruiter types.Recruiter
	found     bool
	expiresAt time.Time
}

// RecruiterCache is a read-through TTL cache over Store.LookupRecruiter.
// Negative results are cached too, so repeated aggregations over records
// with an unknown creator don't re-query the store each time.
type RecruiterCache struct {
	store   storage.Store
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]recruiterEntry
	now     func() time.Time
}

// NewRecruiterCache creates a cache over the given store
func NewRecruiterCache(store storage.Store, ttl time.Duration) *RecruiterCache {
	if ttl <= 0 {
		ttl = DefaultRecruiterTTL
	}
	return &RecruiterCache{
		store:   store,
		ttl:     ttl,
		entries: make(map[string]recruiterEntry),
		now:     time.Now,
	}
}

// Lookup resolves recruiter metadata, hitting the store only on a miss or
// an expired entry
func (c *RecruiterCache) Lookup(ctx context.Context, recruiterID string) (types.Recruiter, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[recruiterID]
	c.mu.RUnlock()

	if ok && c.now().Before(entry.expiresAt) {
		return entry.recruiter, entry.found, nil
	}

	recruiter, found, err := c.store.LookupRecruiter(ctx, recruiterID)
	if err != nil {
		return types.Recruiter{}, false, err
	}

	c.mu.Lock()
	c.entries[recruiterID] = recruiterEntry{
		recruiter: recruiter,
		found:     found,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	return recruiter, found, nil
}

// Invalidate drops a cached entry, forcing the next lookup to hit the store
func (c *RecruiterCache) Invalidate(recruiterID string) {
	c.mu.Lock()
	delete(c.entries, recruiterID)
	c.mu.Unlock()
}

// Size returns the number of cached entries
func (c *RecruiterCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
