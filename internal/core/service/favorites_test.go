package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestFavoritesCache_BindSeedsFromSnapshotThenConfirms(t *testing.T) {
	repo := newFakeFavoriteRepo()
	_ = repo.Insert(context.Background(), "user_1", "l1")
	_ = repo.Insert(context.Background(), "user_1", "l2")

	kv := newFakeKV()
	// Stale snapshot from a previous session: l3 was since unfavorited.
	_ = kv.Set(context.Background(), "favorites:user_1", []string{"l1", "l3"})

	cache := NewFavoritesCache(repo, kv, "user_1", zerolog.Nop())
	if err := cache.Bind(context.Background()); err != nil {
		t.Fatalf("bind: %v", err)
	}

	if cache.State() != CacheConfirmed {
		t.Fatalf("expected confirmed state after bind")
	}
	if !cache.IsFavorited("l1") || !cache.IsFavorited("l2") {
		t.Fatalf("remote membership missing")
	}
	if cache.IsFavorited("l3") {
		t.Fatalf("remote read must win over the stale snapshot")
	}
}

func TestFavoritesCache_SnapshotServesWhenRemoteDown(t *testing.T) {
	repo := newFakeFavoriteRepo()
	repo.failing = true

	kv := newFakeKV()
	_ = kv.Set(context.Background(), "favorites:user_1", []string{"l1"})

	cache := NewFavoritesCache(repo, kv, "user_1", zerolog.Nop())
	if err := cache.Bind(context.Background()); err == nil {
		t.Fatalf("expected bind to surface the remote failure")
	}

	// The snapshot guess still serves reads, flagged as unconfirmed.
	if cache.State() != CacheLocalGuess {
		t.Fatalf("expected local guess state, got %v", cache.State())
	}
	if !cache.IsFavorited("l1") {
		t.Fatalf("snapshot membership lost")
	}
}

func TestFavoritesCache_ToggleAddsAndRemoves(t *testing.T) {
	repo := newFakeFavoriteRepo()
	kv := newFakeKV()
	cache := NewFavoritesCache(repo, kv, "user_1", zerolog.Nop())
	if err := cache.Bind(context.Background()); err != nil {
		t.Fatalf("bind: %v", err)
	}

	if err := cache.Toggle(context.Background(), "l1"); err != nil {
		t.Fatalf("toggle add: %v", err)
	}
	if !cache.IsFavorited("l1") {
		t.Fatalf("expected l1 favorited")
	}
	if ok, _ := repo.Exists(context.Background(), "user_1", "l1"); !ok {
		t.Fatalf("remote row missing after add")
	}

	if err := cache.Toggle(context.Background(), "l1"); err != nil {
		t.Fatalf("toggle remove: %v", err)
	}
	if cache.IsFavorited("l1") {
		t.Fatalf("expected l1 unfavorited")
	}
	if ok, _ := repo.Exists(context.Background(), "user_1", "l1"); ok {
		t.Fatalf("remote row not removed")
	}
}

func TestFavoritesCache_FailedToggleLeavesStateUntouched(t *testing.T) {
	repo := newFakeFavoriteRepo()
	kv := newFakeKV()
	cache := NewFavoritesCache(repo, kv, "user_1", zerolog.Nop())
	if err := cache.Bind(context.Background()); err != nil {
		t.Fatalf("bind: %v", err)
	}

	repo.mu.Lock()
	repo.failing = true
	repo.mu.Unlock()

	if err := cache.Toggle(context.Background(), "l1"); err == nil {
		t.Fatalf("expected toggle to fail")
	}
	if cache.IsFavorited("l1") {
		t.Fatalf("local set mutated despite failed remote write")
	}

	// And the snapshot must not record the failed add either.
	var snapshot []string
	if found, _ := kv.Get(context.Background(), "favorites:user_1", &snapshot); found && len(snapshot) != 0 {
		t.Fatalf("snapshot recorded unconfirmed membership: %v", snapshot)
	}
}

func TestFavoritesCache_ConcurrentTogglesOnSameListingSerialize(t *testing.T) {
	repo := newFakeFavoriteRepo()
	kv := newFakeKV()
	cache := NewFavoritesCache(repo, kv, "user_1", zerolog.Nop())
	if err := cache.Bind(context.Background()); err != nil {
		t.Fatalf("bind: %v", err)
	}

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = cache.Toggle(context.Background(), "l1")
		}()
	}
	wg.Wait()

	// An even number of serialized toggles returns to the initial state,
	// locally and remotely.
	if cache.IsFavorited("l1") {
		t.Fatalf("expected l1 unfavorited after %d toggles", n)
	}
	if ok, _ := repo.Exists(context.Background(), "user_1", "l1"); ok {
		t.Fatalf("remote membership diverged from local set")
	}

	repo.mu.Lock()
	inserts, deletes := repo.inserts, repo.deletes
	repo.mu.Unlock()
	if inserts != n/2 || deletes != n/2 {
		t.Fatalf("toggles interleaved: %d inserts, %d deletes", inserts, deletes)
	}
}

func TestFavoritesCache_CloseResetsSet(t *testing.T) {
	repo := newFakeFavoriteRepo()
	_ = repo.Insert(context.Background(), "user_1", "l1")
	kv := newFakeKV()
	cache := NewFavoritesCache(repo, kv, "user_1", zerolog.Nop())
	if err := cache.Bind(context.Background()); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if !cache.IsFavorited("l1") {
		t.Fatalf("expected membership before close")
	}

	cache.Close()
	if cache.IsFavorited("l1") {
		t.Fatalf("closed cache retained membership")
	}
	if cache.State() != CacheUnknown {
		t.Fatalf("closed cache must report unknown state")
	}
}

func TestFavoritesCache_ListingIDsSorted(t *testing.T) {
	repo := newFakeFavoriteRepo()
	_ = repo.Insert(context.Background(), "user_1", "l3")
	_ = repo.Insert(context.Background(), "user_1", "l1")
	_ = repo.Insert(context.Background(), "user_1", "l2")

	kv := newFakeKV()
	cache := NewFavoritesCache(repo, kv, "user_1", zerolog.Nop())
	if err := cache.Bind(context.Background()); err != nil {
		t.Fatalf("bind: %v", err)
	}

	ids := cache.ListingIDs()
	want := []string{"l1", "l2", "l3"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}
