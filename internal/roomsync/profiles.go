package roomsync

import (
	"context"
	"fmt"
	"sync"

	"roomsync-service/internal/models"
)

// ProfileFetcher loads profiles for a set of author ids from the profile store.
type ProfileFetcher interface {
	FetchProfiles(ctx context.Context, ids []string) ([]models.Profile, error)
}

// ProfileCache maps author ids to display metadata for the lifetime of a room
// session. Entries grow monotonically and are never evicted or invalidated.
type ProfileCache struct {
	fetcher ProfileFetcher

	mu   sync.RWMutex
	byID map[string]models.Profile
}

// NewProfileCache returns an empty cache backed by the fetcher.
func NewProfileCache(fetcher ProfileFetcher) *ProfileCache {
	return &ProfileCache{fetcher: fetcher, byID: make(map[string]models.Profile)}
}

// Resolve ensures profiles for the given author ids are cached, fetching only
// ids not already present. Empty ids are ignored. When every requested id is
// cached, no fetch is issued. A failed fetch leaves the cache unchanged.
//
// Resolve may be called concurrently; overlapping fetches merge per id with
// last-writer-wins, which is acceptable because profile data is ancillary to
// message correctness.
func (c *ProfileCache) Resolve(ctx context.Context, ids []string) error {
	missing := c.missing(ids)
	if len(missing) == 0 {
		return nil
	}

	profiles, err := c.fetcher.FetchProfiles(ctx, missing)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}

	c.mu.Lock()
	for _, p := range profiles {
		c.byID[p.ID] = p
	}
	c.mu.Unlock()
	return nil
}

func (c *ProfileCache) missing(ids []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	var missing []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, cached := c.byID[id]; !cached {
			missing = append(missing, id)
		}
	}
	return missing
}

// Get returns the cached profile for the author id, if any.
func (c *ProfileCache) Get(id string) (models.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// Len returns the number of cached profiles.
func (c *ProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
