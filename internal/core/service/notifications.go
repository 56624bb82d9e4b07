package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/api/metrics"
	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// notificationFetchLimit caps how many rows a full fetch pulls.
const notificationFetchLimit = 50

// NotificationCenter merges three notification sources for one principal:
// remote inserts observed over the realtime feed, local immediate-feedback
// notifications via the platform bridge, and native push registration.
// It maintains the read model (newest first, capped) and the unread count.
type NotificationCenter struct {
	repo        ports.NotificationRepository
	users       ports.UserRepository
	feed        ports.ChangeFeed
	bridge      ports.PlatformBridge
	principalID string
	log         zerolog.Logger

	mu     sync.RWMutex
	items  []domain.Notification
	unread int
	gen    int
	sub    ports.Subscription
}

func NewNotificationCenter(
	repo ports.NotificationRepository,
	users ports.UserRepository,
	feed ports.ChangeFeed,
	bridge ports.PlatformBridge,
	principalID string,
	log zerolog.Logger,
) *NotificationCenter {
	return &NotificationCenter{
		repo:        repo,
		users:       users,
		feed:        feed,
		bridge:      bridge,
		principalID: principalID,
		log:         log,
	}
}

// Start fetches the initial read model, registers for push on native
// platforms, and subscribes to insert events for this principal. Each
// insert event triggers a full re-fetch and, independently, an immediate
// local notification built from the inserted row. The redundancy is
// deliberate: the local notification lands before the re-fetch round-trip.
func (nc *NotificationCenter) Start(ctx context.Context) error {
	if err := nc.Fetch(ctx); err != nil {
		// Background read: degrade to an empty list, stay usable.
		nc.log.Warn().Err(err).Msg("initial notification fetch failed")
	}

	nc.registerPush(ctx)

	sub, err := nc.feed.Subscribe(ctx, ports.TableNotifications, []ports.EventType{ports.EventInsert}, nc.principalID, nc.onInsert)
	if err != nil {
		return fmt.Errorf("watch notifications: %w", err)
	}
	nc.mu.Lock()
	nc.sub = sub
	nc.mu.Unlock()
	return nil
}

// Close tears down the subscription; late fetch results are discarded.
func (nc *NotificationCenter) Close() {
	nc.mu.Lock()
	nc.gen++
	sub := nc.sub
	nc.sub = nil
	nc.items = nil
	nc.unread = 0
	nc.mu.Unlock()
	if sub != nil {
		_ = sub.Close()
	}
}

// Fetch reloads the read model from the remote table, newest first, capped
// at notificationFetchLimit, and recomputes the unread count from scratch.
func (nc *NotificationCenter) Fetch(ctx context.Context) error {
	nc.mu.RLock()
	gen := nc.gen
	nc.mu.RUnlock()

	items, err := nc.repo.List(ctx, nc.principalID, notificationFetchLimit)
	if err != nil {
		return fmt.Errorf("fetch notifications: %w", err)
	}

	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}

	nc.mu.Lock()
	if gen != nc.gen {
		nc.mu.Unlock()
		return nil
	}
	nc.items = items
	nc.unread = unread
	nc.mu.Unlock()

	metrics.NotificationFetchesTotal.Inc()
	return nil
}

// Notifications returns the current read model.
func (nc *NotificationCenter) Notifications() []domain.Notification {
	nc.mu.RLock()
	defer nc.mu.RUnlock()
	out := make([]domain.Notification, len(nc.items))
	copy(out, nc.items)
	return out
}

// UnreadCount returns the running unread tally.
func (nc *NotificationCenter) UnreadCount() int {
	nc.mu.RLock()
	defer nc.mu.RUnlock()
	return nc.unread
}

// MarkAsRead marks one notification read, decrementing the unread count
// optimistically (floored at zero) once the remote write succeeds.
func (nc *NotificationCenter) MarkAsRead(ctx context.Context, id string) error {
	if err := nc.repo.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	nc.mu.Lock()
	for i := range nc.items {
		if nc.items[i].ID == id {
			if !nc.items[i].Read && nc.unread > 0 {
				nc.unread--
			}
			nc.items[i].Read = true
			break
		}
	}
	nc.mu.Unlock()
	return nil
}

// MarkAllAsRead marks every notification read and zeroes the unread count.
func (nc *NotificationCenter) MarkAllAsRead(ctx context.Context) error {
	if err := nc.repo.MarkAllRead(ctx, nc.principalID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}

	nc.mu.Lock()
	for i := range nc.items {
		nc.items[i].Read = true
	}
	nc.unread = 0
	nc.mu.Unlock()
	return nil
}

// Delete removes a notification, decrementing the unread count only when
// the removed item was unread.
func (nc *NotificationCenter) Delete(ctx context.Context, id string) error {
	if err := nc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}

	nc.mu.Lock()
	for i := range nc.items {
		if nc.items[i].ID == id {
			if !nc.items[i].Read && nc.unread > 0 {
				nc.unread--
			}
			nc.items = append(nc.items[:i], nc.items[i+1:]...)
			break
		}
	}
	nc.mu.Unlock()
	return nil
}

// CreateInput is the payload for a locally created notification.
type CreateInput struct {
	Title     string
	Message   string
	Type      domain.NotificationType
	ActionURL string
}

// Create inserts a notification addressed to this principal and refetches
// the read model so the new row appears immediately.
func (nc *NotificationCenter) Create(ctx context.Context, in CreateInput) error {
	now := time.Now().UTC()
	n := &domain.Notification{
		PrincipalID: nc.principalID,
		Title:       in.Title,
		Message:     in.Message,
		Type:        in.Type,
		ActionURL:   in.ActionURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := nc.repo.Insert(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nc.Fetch(ctx)
}

// onInsert handles one realtime insert event. Consumers of the feed must be
// idempotent: this may fire for rows Create already inserted locally.
func (nc *NotificationCenter) onInsert(ev ports.ChangeEvent) {
	ctx := context.Background()
	if err := nc.Fetch(ctx); err != nil {
		nc.log.Warn().Err(err).Msg("refetch after notification insert failed")
	}

	var row domain.Notification
	if len(ev.Row) > 0 && json.Unmarshal(ev.Row, &row) == nil {
		if err := nc.bridge.ScheduleLocal(ctx, row.Title, row.Message); err != nil {
			nc.log.Warn().Err(err).Msg("local notification failed")
		}
	}
}

// registerPush stores the device push token on the user profile. Web
// platforms skip registration entirely.
func (nc *NotificationCenter) registerPush(ctx context.Context) {
	if !nc.bridge.IsNative() {
		return
	}
	token, err := nc.bridge.RegisterPush(ctx)
	if err != nil {
		nc.log.Warn().Err(err).Msg("push registration failed")
		return
	}
	if err := nc.users.UpdatePushToken(ctx, nc.principalID, token); err != nil {
		nc.log.Warn().Err(err).Msg("failed to store push token")
		return
	}
	nc.log.Info().Str("user_id", nc.principalID).Msg("push token registered")
}
