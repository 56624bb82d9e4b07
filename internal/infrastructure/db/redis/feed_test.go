package redis

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/core/ports"
)

func newTestFeed(t *testing.T) *ChangeFeed {
	t.Helper()
	return NewChangeFeed(newTestClient(t), "changes", zerolog.Nop())
}

func collectEvents(t *testing.T) (ports.ChangeHandler, chan ports.ChangeEvent) {
	t.Helper()
	ch := make(chan ports.ChangeEvent, 16)
	return func(ev ports.ChangeEvent) { ch <- ev }, ch
}

func waitEvent(t *testing.T, ch chan ports.ChangeEvent) ports.ChangeEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("no event delivered")
		return ports.ChangeEvent{}
	}
}

func assertNoEvent(t *testing.T, ch chan ports.ChangeEvent) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event delivered: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChangeFeed_PublishReachesSubscriber(t *testing.T) {
	feed := newTestFeed(t)
	ctx := context.Background()

	handler, events := collectEvents(t)
	sub, err := feed.Subscribe(ctx, ports.TableFavorites, nil, "", handler)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	want := ports.ChangeEvent{
		ID:          "ev1",
		Table:       ports.TableFavorites,
		Type:        ports.EventInsert,
		PrincipalID: "user_1",
		OccurredAt:  time.Now().UTC(),
	}
	if err := feed.Publish(ctx, want); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := waitEvent(t, events)
	if got.ID != want.ID || got.Table != want.Table || got.Type != want.Type {
		t.Fatalf("event mismatch: %+v", got)
	}
}

func TestChangeFeed_TablesAreIsolated(t *testing.T) {
	feed := newTestFeed(t)
	ctx := context.Background()

	handler, events := collectEvents(t)
	sub, err := feed.Subscribe(ctx, ports.TableNotifications, nil, "", handler)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	_ = feed.Publish(ctx, ports.ChangeEvent{ID: "ev1", Table: ports.TableFavorites, Type: ports.EventInsert})
	assertNoEvent(t, events)
}

func TestChangeFeed_TypeFilter(t *testing.T) {
	feed := newTestFeed(t)
	ctx := context.Background()

	handler, events := collectEvents(t)
	sub, err := feed.Subscribe(ctx, ports.TableNotifications, []ports.EventType{ports.EventInsert}, "", handler)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	_ = feed.Publish(ctx, ports.ChangeEvent{ID: "ev1", Table: ports.TableNotifications, Type: ports.EventDelete})
	_ = feed.Publish(ctx, ports.ChangeEvent{ID: "ev2", Table: ports.TableNotifications, Type: ports.EventInsert})

	got := waitEvent(t, events)
	if got.ID != "ev2" {
		t.Fatalf("filtered event leaked: %+v", got)
	}
	assertNoEvent(t, events)
}

func TestChangeFeed_PrincipalFilter(t *testing.T) {
	feed := newTestFeed(t)
	ctx := context.Background()

	handler, events := collectEvents(t)
	sub, err := feed.Subscribe(ctx, ports.TableUserRoles, nil, "user_1", handler)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	_ = feed.Publish(ctx, ports.ChangeEvent{ID: "ev1", Table: ports.TableUserRoles, Type: ports.EventInsert, PrincipalID: "user_2"})
	_ = feed.Publish(ctx, ports.ChangeEvent{ID: "ev2", Table: ports.TableUserRoles, Type: ports.EventInsert, PrincipalID: "user_1"})

	got := waitEvent(t, events)
	if got.ID != "ev2" {
		t.Fatalf("another principal's event leaked: %+v", got)
	}
	assertNoEvent(t, events)
}

func TestChangeFeed_EverySubscriberReceivesEachEvent(t *testing.T) {
	feed := newTestFeed(t)
	ctx := context.Background()

	handler1, events1 := collectEvents(t)
	sub1, err := feed.Subscribe(ctx, ports.TableUserRoles, nil, "user_1", handler1)
	if err != nil {
		t.Fatalf("subscribe 1: %v", err)
	}
	defer sub1.Close()

	handler2, events2 := collectEvents(t)
	sub2, err := feed.Subscribe(ctx, ports.TableUserRoles, nil, "user_1", handler2)
	if err != nil {
		t.Fatalf("subscribe 2: %v", err)
	}
	defer sub2.Close()

	ev := ports.ChangeEvent{ID: "ev1", Table: ports.TableUserRoles, Type: ports.EventInsert, PrincipalID: "user_1"}
	if err := feed.Publish(ctx, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Duplicate suppression is per subscription: neither subscriber's
	// delivery may consume the other's.
	if got := waitEvent(t, events1); got.ID != "ev1" {
		t.Fatalf("subscriber 1 got wrong event: %+v", got)
	}
	if got := waitEvent(t, events2); got.ID != "ev1" {
		t.Fatalf("subscriber 2 got wrong event: %+v", got)
	}
}

func TestChangeFeed_DeliveryOutlivesSubscribeContext(t *testing.T) {
	feed := newTestFeed(t)

	subCtx, cancel := context.WithCancel(context.Background())
	handler, events := collectEvents(t)
	sub, err := feed.Subscribe(subCtx, ports.TableFavorites, nil, "user_1", handler)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	// The caller's context ends, as a request-scoped one would.
	cancel()

	ctx := context.Background()
	ev := ports.ChangeEvent{ID: "ev1", Table: ports.TableFavorites, Type: ports.EventInsert, PrincipalID: "user_1"}
	_ = feed.Publish(ctx, ev)
	_ = feed.Publish(ctx, ev)

	// Delivery keeps flowing and the dedup check still works: exactly one
	// delivery for the repeated event ID.
	waitEvent(t, events)
	assertNoEvent(t, events)
}

func TestChangeFeed_DuplicateEventIDsDeduplicated(t *testing.T) {
	feed := newTestFeed(t)
	ctx := context.Background()

	handler, events := collectEvents(t)
	sub, err := feed.Subscribe(ctx, ports.TableFavorites, nil, "user_1", handler)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	ev := ports.ChangeEvent{ID: "ev1", Table: ports.TableFavorites, Type: ports.EventInsert, PrincipalID: "user_1"}
	_ = feed.Publish(ctx, ev)
	_ = feed.Publish(ctx, ev)

	waitEvent(t, events)
	assertNoEvent(t, events)
}

func TestChangeFeed_CloseStopsDelivery(t *testing.T) {
	feed := newTestFeed(t)
	ctx := context.Background()

	handler, events := collectEvents(t)
	sub, err := feed.Subscribe(ctx, ports.TableFavorites, nil, "", handler)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Give the delivery goroutine a beat to drain.
	time.Sleep(50 * time.Millisecond)

	_ = feed.Publish(ctx, ports.ChangeEvent{ID: "ev1", Table: ports.TableFavorites, Type: ports.EventInsert})
	assertNoEvent(t, events)
}
