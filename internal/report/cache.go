package report

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultCacheTTL is used when NewDashboardCache is given a non-positive TTL.
const DefaultCacheTTL = time.Minute

const maxCleanupInterval = 5 * time.Minute

// DashboardLoader computes a fresh dashboard.
type DashboardLoader func(ctx context.Context) (*Dashboard, error)

type cacheKey struct {
	accountID int64
	kind      PeriodKind
}

type cachedDashboard struct {
	dashboard *Dashboard
	expiresAt time.Time
}

type inFlightCall struct {
	done      chan struct{}
	dashboard *Dashboard
	err       error
}

// DashboardCache keeps one dashboard snapshot per account and period kind
// for a TTL. Concurrent misses for the same key share a single load.
type DashboardCache struct {
	ttl time.Duration
	now func() time.Time

	mu          sync.Mutex
	entries     map[cacheKey]cachedDashboard
	inFlight    map[cacheKey]*inFlightCall
	generation  map[int64]uint64
	lastCleanup time.Time
}

// NewDashboardCache returns an empty cache.
func NewDashboardCache(ttl time.Duration) *DashboardCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &DashboardCache{
		ttl:        ttl,
		now:        time.Now,
		entries:    make(map[cacheKey]cachedDashboard),
		inFlight:   make(map[cacheKey]*inFlightCall),
		generation: make(map[int64]uint64),
	}
}

// Get returns the cached dashboard or calls load. The returned dashboard is
// shared and must not be modified.
func (c *DashboardCache) Get(ctx context.Context, accountID int64, kind PeriodKind, load DashboardLoader) (*Dashboard, error) {
	if load == nil {
		return nil, errors.New("dashboard loader is required")
	}
	key := cacheKey{accountID: accountID, kind: kind}
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		if now.Before(entry.expiresAt) {
			c.mu.Unlock()
			return entry.dashboard, nil
		}
		delete(c.entries, key)
	}
	if call, waiting := c.inFlight[key]; waiting {
		c.mu.Unlock()
		return waitForInFlight(ctx, call)
	}
	call := &inFlightCall{done: make(chan struct{})}
	c.inFlight[key] = call
	gen := c.generation[accountID]
	c.mu.Unlock()

	// The load is detached from the first caller so its deadline does not
	// fail the other waiters.
	go c.loadAndBroadcast(context.WithoutCancel(ctx), key, gen, load, call)
	return waitForInFlight(ctx, call)
}

// Invalidate drops every snapshot of the account. A load already running
// when Invalidate is called is returned to its waiters but not stored.
func (c *DashboardCache) Invalidate(accountID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation[accountID]++
	for key := range c.entries {
		if key.accountID == accountID {
			delete(c.entries, key)
		}
	}
}

func (c *DashboardCache) loadAndBroadcast(ctx context.Context, key cacheKey, gen uint64, load DashboardLoader, call *inFlightCall) {
	dashboard, err := load(ctx)

	loadedAt := c.now()
	c.mu.Lock()
	if err == nil && c.generation[key.accountID] == gen {
		c.entries[key] = cachedDashboard{dashboard: dashboard, expiresAt: loadedAt.Add(c.ttl)}
		c.cleanupExpiredLocked(loadedAt)
	}
	call.dashboard = dashboard
	call.err = err
	delete(c.inFlight, key)
	close(call.done)
	c.mu.Unlock()
}

func waitForInFlight(ctx context.Context, call *inFlightCall) (*Dashboard, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-call.done:
		return call.dashboard, call.err
	}
}

func (c *DashboardCache) cleanupExpiredLocked(now time.Time) {
	interval := min(c.ttl, maxCleanupInterval)
	if !c.lastCleanup.IsZero() && now.Sub(c.lastCleanup) < interval {
		return
	}
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.lastCleanup = now
}
