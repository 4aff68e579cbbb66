package ethos

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FeedCache stores activity feeds per profile for a fixed time-to-live.
// Entries are never evicted proactively; stale entries read as misses.
type FeedCache interface {
	Get(ctx context.Context, profileID int64) ([]Activity, bool)
	Set(ctx context.Context, profileID int64, activities []Activity)
}

type cachedFeed struct {
	activities []Activity
	cachedAt   time.Time
}

// MemoryCache is an in-process FeedCache
type MemoryCache struct {
	mu    sync.RWMutex
	feeds map[int64]*cachedFeed // profileId → feed
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryCache creates a new in-memory feed cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl == 0 {
		ttl = 5 * time.Minute // Default 5 minutes
	}

	return &MemoryCache{
		feeds: make(map[int64]*cachedFeed),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Set adds or replaces the feed for a profile
func (c *MemoryCache) Set(_ context.Context, profileID int64, activities []Activity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.feeds[profileID] = &cachedFeed{activities: activities, cachedAt: c.now()}
}

// Get returns the cached feed for a profile if it has not expired
func (c *MemoryCache) Get(_ context.Context, profileID int64) ([]Activity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	feed, exists := c.feeds[profileID]
	if !exists {
		return nil, false
	}

	// Check if expired
	if c.now().Sub(feed.cachedAt) >= c.ttl {
		return nil, false
	}

	return feed.activities, true
}

// CachedFetcher serves feeds from a FeedCache and coalesces concurrent
// misses for the same profile into one upstream request.
type CachedFetcher struct {
	upstream ActivityFetcher
	cache    FeedCache
	group    singleflight.Group
}

// NewCachedFetcher wraps upstream with cache
func NewCachedFetcher(upstream ActivityFetcher, cache FeedCache) *CachedFetcher {
	return &CachedFetcher{upstream: upstream, cache: cache}
}

// ProfileActivities implements ActivityFetcher. Failed fetches are not cached.
//
// The shared upstream request is detached from any single caller's
// cancellation and bounded by the client timeout instead. Each caller still
// stops waiting when its own ctx is done.
func (f *CachedFetcher) ProfileActivities(ctx context.Context, profileID int64, limit int) ([]Activity, error) {
	if activities, ok := f.cache.Get(ctx, profileID); ok {
		return activities, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(strconv.FormatInt(profileID, 10), func() (any, error) {
		activities, err := f.upstream.ProfileActivities(shared, profileID, limit)
		if err != nil {
			return nil, err
		}
		f.cache.Set(shared, profileID, activities)
		return activities, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Activity), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
