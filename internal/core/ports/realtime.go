package ports

import (
	"context"
	"encoding/json"
	"time"
)

// Watched table names. Change events are scoped per table; subscribers name
// the table they care about.
const (
	TableListings      = "listings"
	TableCategories    = "categories"
	TableFavorites     = "favorites"
	TableUserRoles     = "user_roles"
	TableNotifications = "notifications"
)

// EventType classifies a row-level change.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// ChangeEvent is one row-level change pushed over the realtime feed.
// Row carries the affected row as JSON for inserts and updates; it may be
// empty for deletes. PrincipalID is set when the row is owned by a single
// principal, enabling filtered subscriptions.
type ChangeEvent struct {
	ID          string          `json:"id"`
	Table       string          `json:"table"`
	Type        EventType       `json:"type"`
	PrincipalID string          `json:"principal_id,omitempty"`
	Row         json.RawMessage `json:"row,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// ChangeHandler consumes a single change event. Handlers run on the
// subscription's delivery goroutine and must be idempotent: the feed may
// deliver the echo of a subscriber's own mutation, and delivery order
// relative to the mutation's local confirmation is not guaranteed.
type ChangeHandler func(event ChangeEvent)

// Subscription is a live filtered slice of the change feed. Close releases
// it; events already in flight may still be delivered briefly after Close.
type Subscription interface {
	Close() error
}

// ChangePublisher is the mutation-side half of the feed. Repositories
// publish after each confirmed write.
type ChangePublisher interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// ChangeFeed is the realtime change stream. Subscribe registers a handler
// for the given table; types narrows to specific event kinds (nil = all) and
// principalID narrows to rows owned by one principal ("" = all rows).
// Events for one table are delivered to each subscriber in publish order.
type ChangeFeed interface {
	ChangePublisher
	Subscribe(ctx context.Context, table string, types []EventType, principalID string, handler ChangeHandler) (Subscription, error)
}
