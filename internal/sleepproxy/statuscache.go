package sleepproxy

import (
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// statusCacheKey identifies one distinct status response shape: whether the
// server is starting (vs. merely sleeping) and the max player count last
// advertised. Two connections asking the same question at the same moment
// share one JSON encode via singleflight.
type statusCacheKey struct {
	starting bool
	max      int32
}

type statusCacheItem struct {
	expiresAt time.Time
	data      []byte
}

// StatusCache caches encoded Status Response JSON payloads for a short TTL,
// deduping concurrent builds of the same response. Adapted from the
// teacher's per-route ping cache; keyed here on the proxy's own sleeping/
// starting state instead of per-upstream routing.
type StatusCache struct {
	mu    sync.Mutex
	items map[statusCacheKey]statusCacheItem
	sf    singleflight.Group
	ttl   time.Duration
}

func NewStatusCache(ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = time.Second
	}
	return &StatusCache{items: make(map[statusCacheKey]statusCacheItem), ttl: ttl}
}

func (c *StatusCache) get(key statusCacheKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok || time.Now().After(it.expiresAt) {
		return nil, false
	}
	return it.data, true
}

func (c *StatusCache) set(key statusCacheKey, data []byte) {
	c.mu.Lock()
	c.items[key] = statusCacheItem{expiresAt: time.Now().Add(c.ttl), data: data}
	c.mu.Unlock()
}

// GetOrBuild returns the cached payload for key, building it via build and
// caching the result if absent or expired.
func (c *StatusCache) GetOrBuild(key statusCacheKey, build func() ([]byte, error)) ([]byte, error) {
	if data, ok := c.get(key); ok {
		return data, nil
	}

	sfKey := keyString(key)
	v, err, _ := c.sf.Do(sfKey, func() (any, error) {
		if data, ok := c.get(key); ok {
			return data, nil
		}
		data, err := build()
		if err != nil {
			return nil, err
		}
		c.set(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func keyString(k statusCacheKey) string {
	prefix := "sleeping"
	if k.starting {
		prefix = "starting"
	}
	return prefix + "\x00" + strconv.FormatInt(int64(k.max), 10)
}
