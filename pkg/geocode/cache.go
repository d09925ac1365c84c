package geocode

import "sync"

// resultCache memoizes lookups per address for the lifetime of the process.
// Negative results are cached too, so an address Nominatim already missed is
// never re-asked within one run.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]Result)}
}

func (c *resultCache) get(address string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[address]
	if !ok {
		return nil, false
	}
	hit := r
	hit.Source = "cache"
	return &hit, true
}

func (c *resultCache) put(address string, r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[address] = *r
}
