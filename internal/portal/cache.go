package portal

import (
	"sync"
	"time"

	"themeforge/internal/themestore"
)

type cacheEntry struct {
	rec     themestore.Record
	created time.Time
}

// themeCache keeps recently served records in memory so repeated variable
// and theme reads skip the store. Entries age out after the TTL.
type themeCache struct {
	mu   sync.RWMutex
	now  func() time.Time
	ttl  time.Duration
	data map[string]cacheEntry
}

func newThemeCache(now func() time.Time, ttl time.Duration) *themeCache {
	if now == nil {
		now = time.Now
	}
	return &themeCache{
		now:  now,
		ttl:  ttl,
		data: make(map[string]cacheEntry),
	}
}

func (c *themeCache) get(site string) (themestore.Record, bool) {
	c.mu.RLock()
	entry, ok := c.data[site]
	c.mu.RUnlock()
	if !ok {
		return themestore.Record{}, false
	}
	if c.ttl > 0 && c.now().Sub(entry.created) > c.ttl {
		c.mu.Lock()
		delete(c.data, site)
		c.mu.Unlock()
		return themestore.Record{}, false
	}
	return entry.rec, true
}

func (c *themeCache) put(site string, rec themestore.Record) {
	c.mu.Lock()
	c.data[site] = cacheEntry{rec: rec, created: c.now()}
	c.mu.Unlock()
}

// drop removes a site's entry and reports whether one was present.
func (c *themeCache) drop(site string) bool {
	c.mu.Lock()
	_, ok := c.data[site]
	delete(c.data, site)
	c.mu.Unlock()
	return ok
}
