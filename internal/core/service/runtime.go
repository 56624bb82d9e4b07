package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// Runtime bundles the per-principal sync components: the favorites cache,
// the notification center, and the role watcher. One Runtime lives per
// signed-in principal and is torn down on sign-out.
type Runtime struct {
	PrincipalID   string
	Favorites     *FavoritesCache
	Notifications *NotificationCenter
	Roles         *RoleWatcher
}

// Close unsubscribes every component.
func (r *Runtime) Close() {
	r.Roles.Close()
	r.Notifications.Close()
	r.Favorites.Close()
}

// RuntimeManager lazily builds and caches Runtimes. It can additionally be
// bound to a SessionProvider so session transitions start and stop the
// matching runtime automatically.
type RuntimeManager struct {
	favorites     ports.FavoriteRepository
	notifications ports.NotificationRepository
	roles         *RoleResolver
	users         ports.UserRepository
	kv            ports.KVStore
	feed          ports.ChangeFeed
	bridge        ports.PlatformBridge
	debounce      time.Duration
	log           zerolog.Logger

	mu       sync.Mutex
	runtimes map[string]*Runtime
}

func NewRuntimeManager(
	favorites ports.FavoriteRepository,
	notifications ports.NotificationRepository,
	roles *RoleResolver,
	users ports.UserRepository,
	kv ports.KVStore,
	feed ports.ChangeFeed,
	bridge ports.PlatformBridge,
	debounce time.Duration,
	log zerolog.Logger,
) *RuntimeManager {
	return &RuntimeManager{
		favorites:     favorites,
		notifications: notifications,
		roles:         roles,
		users:         users,
		kv:            kv,
		feed:          feed,
		bridge:        bridge,
		debounce:      debounce,
		log:           log,
		runtimes:      make(map[string]*Runtime),
	}
}

// Get returns the principal's runtime, building and starting it on first
// use. Component start failures are logged, not fatal: a runtime with a
// dead subscription still serves local reads.
func (m *RuntimeManager) Get(ctx context.Context, principalID string) *Runtime {
	m.mu.Lock()
	if rt, ok := m.runtimes[principalID]; ok {
		m.mu.Unlock()
		return rt
	}

	rt := &Runtime{
		PrincipalID:   principalID,
		Favorites:     NewFavoritesCache(m.favorites, m.kv, principalID, m.log),
		Notifications: NewNotificationCenter(m.notifications, m.users, m.feed, m.bridge, principalID, m.log),
		Roles:         NewRoleWatcher(m.roles, m.feed, principalID, m.debounce, m.log),
	}
	m.runtimes[principalID] = rt
	m.mu.Unlock()

	if err := rt.Favorites.Bind(ctx); err != nil {
		m.log.Warn().Err(err).Str("user_id", principalID).Msg("favorites bind failed")
	}
	if err := rt.Notifications.Start(ctx); err != nil {
		m.log.Warn().Err(err).Str("user_id", principalID).Msg("notification center start failed")
	}
	if err := rt.Roles.Start(ctx); err != nil {
		m.log.Warn().Err(err).Str("user_id", principalID).Msg("role watcher start failed")
	}
	return rt
}

// Close tears down one principal's runtime, if any.
func (m *RuntimeManager) Close(principalID string) {
	m.mu.Lock()
	rt, ok := m.runtimes[principalID]
	delete(m.runtimes, principalID)
	m.mu.Unlock()
	if ok {
		rt.Close()
	}
}

// CloseAll tears down every runtime. Called at shutdown.
func (m *RuntimeManager) CloseAll() {
	m.mu.Lock()
	rts := make([]*Runtime, 0, len(m.runtimes))
	for _, rt := range m.runtimes {
		rts = append(rts, rt)
	}
	m.runtimes = make(map[string]*Runtime)
	m.mu.Unlock()

	for _, rt := range rts {
		rt.Close()
	}
}

// BindSession wires session transitions to runtime lifecycle: a sign-in
// warms that principal's runtime, a sign-out closes it. Runtimes are
// per principal, so one principal's sign-in never tears down another's
// live subscriptions; only the transition to signed-out closes the
// runtime of the principal whose session ended. Returns the unsubscribe
// function.
func (m *RuntimeManager) BindSession(provider *SessionProvider) func() {
	var mu sync.Mutex
	var last string

	return provider.OnChange(func(p *domain.Principal) {
		mu.Lock()
		prev := last
		if p != nil {
			last = p.ID
		} else {
			last = ""
		}
		mu.Unlock()

		if p == nil {
			if prev != "" {
				m.Close(prev)
			}
			return
		}
		m.Get(context.Background(), p.ID)
	})
}
