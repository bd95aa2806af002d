// Package store provides the resolved-URL cache: a Bloom-filter-fronted LRU
// keyed by video identifier. Upstream stream URLs expire, so entries carry a
// TTL and expired hits count as misses.
package store

import (
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

const bloomFalsePositiveRate = 0.001

type cachedURL struct {
	url     string
	expires time.Time
}

// ResolvedCache is safe for concurrent use. The Bloom filter short-circuits
// lookups for identifiers that were never cached; it cannot forget evicted
// keys, which only costs an occasional LRU miss.
type ResolvedCache struct {
	bloom    *bloom.BloomFilter
	lru      *lru.Cache[string, cachedURL]
	ttl      time.Duration
	mutex    sync.Mutex
	capacity int
}

// NewResolvedCache creates a cache holding up to capacity resolved URLs,
// each valid for ttl.
func NewResolvedCache(capacity int, ttl time.Duration) *ResolvedCache {
	if capacity <= 0 {
		capacity = 1
	}
	cache, _ := lru.New[string, cachedURL](capacity)

	return &ResolvedCache{
		bloom:    bloom.NewWithEstimates(uint(capacity), bloomFalsePositiveRate),
		lru:      cache,
		ttl:      ttl,
		capacity: capacity,
	}
}

// Get returns the cached URL for the video ID when present and unexpired.
func (c *ResolvedCache) Get(videoID string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.bloom.TestString(videoID) {
		return "", false
	}

	entry, ok := c.lru.Get(videoID)
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expires) {
		c.lru.Remove(videoID)
		return "", false
	}

	return entry.url, true
}

// Add stores a resolved URL for the video ID.
func (c *ResolvedCache) Add(videoID, url string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.bloom.AddString(videoID)
	c.lru.Add(videoID, cachedURL{
		url:     url,
		expires: time.Now().Add(c.ttl),
	})
}

// Len returns the number of entries currently held.
func (c *ResolvedCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lru.Len()
}
