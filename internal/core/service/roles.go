package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/api/metrics"
	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// DefaultRoleDebounce is the quiet window between a role-table change event
// and the re-resolution query. The original client waited a fixed 500ms to
// avoid reading a half-applied multi-statement change.
const DefaultRoleDebounce = 500 * time.Millisecond

// RoleResolver answers "what roles does this principal hold" against the
// remote assignment table.
type RoleResolver struct {
	repo ports.RoleRepository
	log  zerolog.Logger
}

func NewRoleResolver(repo ports.RoleRepository, log zerolog.Logger) *RoleResolver {
	return &RoleResolver{repo: repo, log: log}
}

// Resolve returns the principal's roles in assignment order. Zero rows is
// not an error: it means the implicit default grant, so the result is
// exactly DefaultRoles. Query failures are returned explicitly; callers
// decide whether to fail open.
func (r *RoleResolver) Resolve(ctx context.Context, principalID string) ([]domain.Role, error) {
	assignments, err := r.repo.ListByPrincipal(ctx, principalID)
	if err != nil {
		metrics.RoleResolutionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	if len(assignments) == 0 {
		metrics.RoleResolutionsTotal.WithLabelValues("default").Inc()
		return domain.DefaultRoles(), nil
	}

	roles := make([]domain.Role, 0, len(assignments))
	for _, a := range assignments {
		roles = append(roles, a.Role)
	}
	metrics.RoleResolutionsTotal.WithLabelValues("ok").Inc()
	return roles, nil
}

// EffectivePermissions resolves and derives the capability set, mapping any
// resolution failure to the default user grant. The fail-open policy is
// deliberate: a broken background read must degrade to minimal privilege,
// never surface an error to the caller.
func (r *RoleResolver) EffectivePermissions(ctx context.Context, principalID string) domain.Permissions {
	roles, err := r.Resolve(ctx, principalID)
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", principalID).Msg("role resolution failed, defaulting to user")
		return domain.DefaultPermissions()
	}
	return domain.PermissionsFor(roles)
}

// RoleWatcher keeps a live, derived permission set for one principal,
// re-resolving on realtime role-table changes (debounced) and serving
// synchronous reads in between.
type RoleWatcher struct {
	resolver    *RoleResolver
	feed        ports.ChangeFeed
	principalID string
	log         zerolog.Logger

	mu        sync.RWMutex
	roles     []domain.Role
	perms     domain.Permissions
	listeners map[int]func(domain.Permissions)
	nextID    int

	debouncer *Debouncer
	sub       ports.Subscription
	gen       int
}

func NewRoleWatcher(resolver *RoleResolver, feed ports.ChangeFeed, principalID string, debounce time.Duration, log zerolog.Logger) *RoleWatcher {
	if debounce <= 0 {
		debounce = DefaultRoleDebounce
	}
	w := &RoleWatcher{
		resolver:    resolver,
		feed:        feed,
		principalID: principalID,
		log:         log,
		roles:       domain.DefaultRoles(),
		perms:       domain.DefaultPermissions(),
		listeners:   make(map[int]func(domain.Permissions)),
	}
	w.debouncer = NewDebouncer(debounce, func() {
		w.refresh(context.Background())
	})
	return w
}

// Start performs the initial resolution and subscribes to role-table
// changes for the watched principal.
func (w *RoleWatcher) Start(ctx context.Context) error {
	w.refresh(ctx)

	sub, err := w.feed.Subscribe(ctx, ports.TableUserRoles, nil, w.principalID, func(ports.ChangeEvent) {
		w.debouncer.Trigger()
	})
	if err != nil {
		return fmt.Errorf("watch roles: %w", err)
	}
	w.mu.Lock()
	w.sub = sub
	w.mu.Unlock()
	return nil
}

// Close tears down the subscription and cancels any pending re-resolution.
// In-flight refreshes that complete after Close are discarded.
func (w *RoleWatcher) Close() {
	w.debouncer.Stop()
	w.mu.Lock()
	w.gen++
	sub := w.sub
	w.sub = nil
	w.mu.Unlock()
	if sub != nil {
		_ = sub.Close()
	}
}

// Roles returns the last resolved role list.
func (w *RoleWatcher) Roles() []domain.Role {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]domain.Role, len(w.roles))
	copy(out, w.roles)
	return out
}

// Permissions returns the last derived capability set.
func (w *RoleWatcher) Permissions() domain.Permissions {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.perms
}

// OnChange registers a listener fired after each re-resolution. The
// returned function unregisters it.
func (w *RoleWatcher) OnChange(fn func(domain.Permissions)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.listeners, id)
		w.mu.Unlock()
	}
}

func (w *RoleWatcher) refresh(ctx context.Context) {
	w.mu.RLock()
	gen := w.gen
	w.mu.RUnlock()

	roles, err := w.resolver.Resolve(ctx, w.principalID)
	if err != nil {
		// Fail open: keep serving, downgrade to the default grant.
		w.log.Warn().Err(err).Str("user_id", w.principalID).Msg("role refresh failed, defaulting to user")
		roles = domain.DefaultRoles()
	}
	perms := domain.PermissionsFor(roles)

	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.roles = roles
	w.perms = perms
	fns := make([]func(domain.Permissions), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(perms)
	}
}

// RoleAdminService performs administrative grant and revoke operations and
// notifies the affected principal.
type RoleAdminService struct {
	roles         ports.RoleRepository
	notifications ports.NotificationRepository
	log           zerolog.Logger
}

func NewRoleAdminService(roles ports.RoleRepository, notifications ports.NotificationRepository, log zerolog.Logger) *RoleAdminService {
	return &RoleAdminService{roles: roles, notifications: notifications, log: log}
}

// Assign grants a role and notifies the principal. The notification is
// best-effort: its failure never fails the grant.
func (s *RoleAdminService) Assign(ctx context.Context, principalID string, role domain.Role) error {
	if err := s.roles.Assign(ctx, principalID, role); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	s.log.Info().Str("user_id", principalID).Str("role", string(role)).Msg("role assigned")

	s.notify(ctx, principalID, "Account updated", fmt.Sprintf("You have been granted the %s role.", role))
	return nil
}

// Revoke removes a grant and notifies the principal.
func (s *RoleAdminService) Revoke(ctx context.Context, principalID string, role domain.Role) error {
	if err := s.roles.Revoke(ctx, principalID, role); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	s.log.Info().Str("user_id", principalID).Str("role", string(role)).Msg("role revoked")

	s.notify(ctx, principalID, "Account updated", fmt.Sprintf("The %s role has been removed from your account.", role))
	return nil
}

func (s *RoleAdminService) notify(ctx context.Context, principalID, title, message string) {
	now := time.Now().UTC()
	n := &domain.Notification{
		PrincipalID: principalID,
		Title:       title,
		Message:     message,
		Type:        domain.NotificationInfo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.notifications.Insert(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("user_id", principalID).Msg("failed to insert role-change notification")
	}
}
