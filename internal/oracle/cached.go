package oracle

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

type CacheStatistics struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// CachedOracle memoises answers of the wrapped oracle for ttl. Failures are
// never cached.
type CachedOracle struct {
	wrapped IActivityOracle
	cache   *cache.Cache
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewCachedOracle(wrapped IActivityOracle, ttl time.Duration) *CachedOracle {
	return &CachedOracle{
		wrapped: wrapped,
		cache:   cache.New(ttl, 2*ttl),
	}
}

func (o *CachedOracle) HasPriorActivity(ctx context.Context, address string) (bool, error) {
	key := strings.ToLower(address)
	if v, ok := o.cache.Get(key); ok {
		o.hits.Add(1)
		return v.(bool), nil
	}
	o.misses.Add(1)

	prior, err := o.wrapped.HasPriorActivity(ctx, address)
	if err != nil {
		return false, err
	}
	o.cache.SetDefault(key, prior)
	return prior, nil
}

func (o *CachedOracle) Statistics() CacheStatistics {
	return CacheStatistics{
		Hits:   o.hits.Load(),
		Misses: o.misses.Load(),
	}
}
