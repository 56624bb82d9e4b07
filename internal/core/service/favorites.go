package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/api/metrics"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// CacheState tracks how trustworthy the local favorite set currently is.
// The set moves Unknown → LocalGuess (KV snapshot applied) → Confirmed
// (remote read applied); the confirm step always wins over the guess.
type CacheState int

const (
	CacheUnknown CacheState = iota
	CacheLocalGuess
	CacheConfirmed
)

// FavoritesCache mirrors one principal's remote favorites table into a
// local set, serving synchronous membership reads while mutations are in
// flight. The local set is a hint; the remote table is truth, and the two
// converge after every settled mutation.
type FavoritesCache struct {
	repo        ports.FavoriteRepository
	kv          ports.KVStore
	principalID string
	log         zerolog.Logger

	mu    sync.RWMutex
	ids   map[string]struct{}
	state CacheState
	gen   int

	// One mutex per listing ID serializes concurrent toggles on the same
	// listing so the final state always matches the last user intent.
	locks sync.Map
}

func NewFavoritesCache(repo ports.FavoriteRepository, kv ports.KVStore, principalID string, log zerolog.Logger) *FavoritesCache {
	return &FavoritesCache{
		repo:        repo,
		kv:          kv,
		principalID: principalID,
		log:         log,
		ids:         make(map[string]struct{}),
	}
}

func (c *FavoritesCache) snapshotKey() string {
	return "favorites:" + c.principalID
}

// Bind performs the two-phase cold start: seed the set from the persisted
// snapshot for an instant (possibly stale) read path, then reconcile
// against the remote table. A snapshot failure is not fatal; the remote
// read still runs.
func (c *FavoritesCache) Bind(ctx context.Context) error {
	var snapshot []string
	found, err := c.kv.Get(ctx, c.snapshotKey(), &snapshot)
	if err != nil {
		c.log.Warn().Err(err).Msg("favorites snapshot read failed")
	} else if found {
		c.mu.Lock()
		c.ids = make(map[string]struct{}, len(snapshot))
		for _, id := range snapshot {
			c.ids[id] = struct{}{}
		}
		if c.state == CacheUnknown {
			c.state = CacheLocalGuess
		}
		c.mu.Unlock()
	}

	return c.Refresh(ctx)
}

// Refresh replaces the local set with the authoritative remote membership
// and rewrites the snapshot. Results arriving after Close are discarded.
func (c *FavoritesCache) Refresh(ctx context.Context) error {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	remote, err := c.repo.ListListingIDs(ctx, c.principalID)
	if err != nil {
		return fmt.Errorf("refresh favorites: %w", err)
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	c.ids = make(map[string]struct{}, len(remote))
	for _, id := range remote {
		c.ids[id] = struct{}{}
	}
	c.state = CacheConfirmed
	c.mu.Unlock()

	c.writeSnapshot(ctx)
	return nil
}

// IsFavorited reports local membership synchronously, without a network
// round-trip.
func (c *FavoritesCache) IsFavorited(listingID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.ids[listingID]
	return ok
}

// State reports the trust level of the current set.
func (c *FavoritesCache) State() CacheState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// ListingIDs returns the local set in stable order.
func (c *FavoritesCache) ListingIDs() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Toggle flips membership for one listing: decide from the local cache,
// mutate the remote table, and update the local set only after confirmed
// success. On remote failure the local set is left exactly as it was.
func (c *FavoritesCache) Toggle(ctx context.Context, listingID string) error {
	lock := c.listingLock(listingID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.RLock()
	_, present := c.ids[listingID]
	gen := c.gen
	c.mu.RUnlock()

	if present {
		if err := c.repo.Delete(ctx, c.principalID, listingID); err != nil {
			metrics.FavoriteTogglesTotal.WithLabelValues("remove", "error").Inc()
			return fmt.Errorf("unfavorite %s: %w", listingID, err)
		}
		metrics.FavoriteTogglesTotal.WithLabelValues("remove", "ok").Inc()
	} else {
		if err := c.repo.Insert(ctx, c.principalID, listingID); err != nil {
			metrics.FavoriteTogglesTotal.WithLabelValues("add", "error").Inc()
			return fmt.Errorf("favorite %s: %w", listingID, err)
		}
		metrics.FavoriteTogglesTotal.WithLabelValues("add", "ok").Inc()
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	if present {
		delete(c.ids, listingID)
	} else {
		c.ids[listingID] = struct{}{}
	}
	c.mu.Unlock()

	c.writeSnapshot(ctx)
	return nil
}

// Close invalidates the cache; late results from in-flight operations are
// discarded.
func (c *FavoritesCache) Close() {
	c.mu.Lock()
	c.gen++
	c.ids = make(map[string]struct{})
	c.state = CacheUnknown
	c.mu.Unlock()
}

// writeSnapshot persists the current set for the next cold start.
// Best-effort: a failed write costs one stale guess later, nothing more.
func (c *FavoritesCache) writeSnapshot(ctx context.Context) {
	ids := c.ListingIDs()
	if err := c.kv.Set(ctx, c.snapshotKey(), ids); err != nil {
		c.log.Warn().Err(err).Msg("favorites snapshot write failed")
	}
}

func (c *FavoritesCache) listingLock(listingID string) *sync.Mutex {
	v, _ := c.locks.LoadOrStore(listingID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
