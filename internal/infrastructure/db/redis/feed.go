package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/api/metrics"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// dedupTTL bounds how long a delivered event ID is remembered. Redis
// pub/sub can hand a subscriber the echo of its own mutation alongside the
// local confirmation; remembering recent IDs keeps duplicate deliveries
// from re-triggering handlers. The memory is per subscription, never
// shared: every subscriber to a table must see every event.
const dedupTTL = time.Hour

// dedupTimeout bounds each SetNX dedup check. The delivery loop outlives
// the context Subscribe was called with, so the check carries its own.
const dedupTimeout = 2 * time.Second

// ChangeFeed is the realtime change stream on Redis pub/sub. Each watched
// table maps to one channel; every subscription drains its own goroutine,
// so one table's events reach one subscriber in publish order.
type ChangeFeed struct {
	client *redis.Client
	prefix string
	log    zerolog.Logger
}

// NewChangeFeed wraps the given Redis client. prefix namespaces the feed's
// channels (e.g. "changes" -> "changes:favorites").
func NewChangeFeed(client *redis.Client, prefix string, log zerolog.Logger) *ChangeFeed {
	if prefix == "" {
		prefix = "changes"
	}
	return &ChangeFeed{client: client, prefix: prefix, log: log}
}

func (f *ChangeFeed) channel(table string) string {
	return f.prefix + ":" + table
}

// Publish emits one change event to the table's channel.
func (f *ChangeFeed) Publish(ctx context.Context, event ports.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel(event.Table), payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Subscribe registers a handler for the table's change events, narrowed by
// event types (nil = all) and owning principal ("" = all rows). The handler
// runs on the subscription's own goroutine, which outlives ctx; ctx only
// bounds the subscription handshake. Close the returned subscription to
// stop delivery.
func (f *ChangeFeed) Subscribe(ctx context.Context, table string, types []ports.EventType, principalID string, handler ports.ChangeHandler) (ports.Subscription, error) {
	pubsub := f.client.Subscribe(ctx, f.channel(table))

	// Force the subscription handshake so a dead connection fails here,
	// not silently in the delivery goroutine.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}

	sub := &subscription{pubsub: pubsub}
	go f.deliver(pubsub, table, uuid.NewString(), types, principalID, handler)
	return sub, nil
}

func (f *ChangeFeed) deliver(pubsub *redis.PubSub, table, subID string, types []ports.EventType, principalID string, handler ports.ChangeHandler) {
	ch := pubsub.Channel()
	for msg := range ch {
		var event ports.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			f.log.Error().Err(err).Str("table", table).Msg("malformed change event dropped")
			continue
		}
		if !matchesType(types, event.Type) {
			continue
		}
		if principalID != "" && event.PrincipalID != principalID {
			continue
		}
		if f.seen(subID, event.ID) {
			f.log.Debug().Str("event_id", event.ID).Msg("duplicate change event skipped")
			continue
		}

		metrics.ChangeEventsDeliveredTotal.WithLabelValues(table).Inc()
		handler(event)
	}
}

// seen marks the event ID delivered for this subscription and reports
// whether it had already been delivered. The key is scoped by subscription
// ID so concurrent subscribers never consume each other's deliveries. A
// redis failure fails open: better a duplicate refresh than a lost one.
func (f *ChangeFeed) seen(subID, eventID string) bool {
	if eventID == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), dedupTimeout)
	defer cancel()

	key := fmt.Sprintf("%s:seen:%s:%s", f.prefix, subID, eventID)
	ok, err := f.client.SetNX(ctx, key, "1", dedupTTL).Result()
	if err != nil {
		return false
	}
	return !ok
}

func matchesType(types []ports.EventType, t ports.EventType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

type subscription struct {
	pubsub *redis.PubSub
}

func (s *subscription) Close() error {
	return s.pubsub.Close()
}
