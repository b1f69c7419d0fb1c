package kernel

import (
	"fmt"
	"sync"
	"time"

	"redactado/pkg/redactado"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	descriptorKeySlash   = "slash"
	descriptorKeyContext = "context"
	descriptorKeyAll     = "all"
)

// descriptorCache memoizes descriptor lists per key with write-time expiry.
//
// Concurrent misses on one key share a single build. invalidate bumps the
// generation so a build that started before a registry mutation never
// populates the cache after it.
type descriptorCache struct {
	mu         sync.Mutex
	entries    *expirable.LRU[string, []redactado.Descriptor]
	generation uint64
	flights    singleflight.Group
}

// newDescriptorCache creates one cache holding at most capacity keys for ttl each.
func newDescriptorCache(capacity int, ttl time.Duration) *descriptorCache {
	if capacity <= 0 {
		capacity = defaultDescriptorCapacity
	}
	if ttl <= 0 {
		ttl = defaultDescriptorTTL
	}

	return &descriptorCache{
		entries: expirable.NewLRU[string, []redactado.Descriptor](capacity, nil, ttl),
	}
}

// get returns the cached list for key, running build on a miss.
// A panicking build is returned as a *redactado.DescriptorBuildError and leaves key empty.
func (c *descriptorCache) get(key string, build func() ([]redactado.Descriptor, error)) ([]redactado.Descriptor, error) {
	c.mu.Lock()
	if cached, ok := c.entries.Get(key); ok {
		c.mu.Unlock()
		return redactado.CloneDescriptors(cached), nil
	}
	generation := c.generation
	c.mu.Unlock()

	value, err, _ := c.flights.Do(fmt.Sprintf("%s@%d", key, generation), func() (any, error) {
		var (
			built    []redactado.Descriptor
			buildErr error
		)
		if err := runSafely("build descriptors "+key, func() error {
			built, buildErr = build()
			return nil
		}); err != nil {
			return nil, &redactado.DescriptorBuildError{Namespace: redactado.Namespace(key), Err: err}
		}
		if buildErr != nil {
			return nil, buildErr
		}

		c.mu.Lock()
		if c.generation == generation {
			c.entries.Add(key, built)
		}
		c.mu.Unlock()

		return built, nil
	})
	if err != nil {
		return nil, err
	}

	return redactado.CloneDescriptors(value.([]redactado.Descriptor)), nil
}

// invalidate drops every key and fences in-flight builds.
func (c *descriptorCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.entries.Purge()
}

// len reports currently cached keys.
func (c *descriptorCache) len() int {
	return c.entries.Len()
}
