package geo

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-link-tracker/internal/domain"
	"github.com/tbourn/go-link-tracker/internal/observability"
)

// maxCacheEntries bounds memory use; expired entries are swept first and the
// whole cache is dropped if that is not enough.
const maxCacheEntries = 10_000

type cacheEntry struct {
	info    *domain.GeoInfo // nil caches a provider miss
	expires time.Time
}

// CachedResolver fronts another Resolver with:
//   - a TTL cache keyed by IP (misses reported as (nil, nil) are cached too),
//   - singleflight so concurrent lookups for one IP share a provider call,
//   - a token bucket limiting outbound provider calls.
//
// Errors are never cached.
type CachedResolver struct {
	next    Resolver
	ttl     time.Duration
	limiter *rate.Limiter // nil means unlimited
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCachedResolver wraps next. ttl <= 0 disables caching; rps <= 0 disables
// throttling.
func NewCachedResolver(next Resolver, ttl time.Duration, rps float64, burst int) *CachedResolver {
	c := &CachedResolver{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return c
}

// Lookup serves ip from cache or asks the wrapped resolver.
func (c *CachedResolver) Lookup(ctx context.Context, ip string) (*domain.GeoInfo, error) {
	if info, ok := c.cached(ip); ok {
		observability.GeoLookups.WithLabelValues(observability.GeoCacheHit).Inc()
		return clone(info), nil
	}

	v, err, _ := c.group.Do(ip, func() (any, error) {
		if c.limiter != nil && !c.limiter.Allow() {
			return nil, ErrThrottled
		}
		info, err := c.next.Lookup(ctx, ip)
		if err != nil {
			return nil, err
		}
		c.store(ip, info)
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	info, _ := v.(*domain.GeoInfo)
	return clone(info), nil
}

// Close releases the wrapped resolver.
func (c *CachedResolver) Close() error {
	return closeIfCloser(c.next)
}

func (c *CachedResolver) cached(ip string) (*domain.GeoInfo, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[ip]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, ip)
		return nil, false
	}
	return e.info, true
}

func (c *CachedResolver) store(ip string, info *domain.GeoInfo) {
	if c.ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= maxCacheEntries {
		for k, e := range c.entries {
			if !now.Before(e.expires) {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= maxCacheEntries {
			clear(c.entries)
		}
	}
	c.entries[ip] = cacheEntry{info: clone(info), expires: now.Add(c.ttl)}
}

func clone(info *domain.GeoInfo) *domain.GeoInfo {
	if info == nil {
		return nil
	}
	cp := *info
	return &cp
}
