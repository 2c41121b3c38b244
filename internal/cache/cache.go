package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Pages caches fetched page bodies keyed by URL
type Pages struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewPages creates a page cache. A zero ttl disables caching.
func NewPages(ttl time.Duration) *Pages {
	if ttl <= 0 {
		return &Pages{}
	}
	return &Pages{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Enabled reports whether the cache stores anything
func (p *Pages) Enabled() bool {
	return p != nil && p.cache != nil
}

// Get retrieves a body from the cache
func (p *Pages) Get(url string) ([]byte, bool) {
	if !p.Enabled() {
		return nil, false
	}
	if val, found := p.cache.Get(url); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a body with the default TTL
func (p *Pages) Set(url string, body []byte) {
	if !p.Enabled() {
		return
	}
	p.cache.Set(url, body, gocache.DefaultExpiration)
}

// Len returns the number of unexpired entries
func (p *Pages) Len() int {
	if !p.Enabled() {
		return 0
	}
	return p.cache.ItemCount()
}
