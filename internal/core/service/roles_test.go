package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

func TestRoleResolver_ZeroRowsIsDefaultGrant(t *testing.T) {
	repo := newFakeRoleRepo()
	resolver := NewRoleResolver(repo, zerolog.Nop())

	roles, err := resolver.Resolve(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(roles) != 1 || roles[0] != domain.RoleUser {
		t.Fatalf("expected implicit user role, got %v", roles)
	}
}

func TestRoleResolver_ReturnsAssignments(t *testing.T) {
	repo := newFakeRoleRepo()
	_ = repo.Assign(context.Background(), "user_1", domain.RoleModerator)
	_ = repo.Assign(context.Background(), "user_1", domain.RoleCategoriesAdmin)
	resolver := NewRoleResolver(repo, zerolog.Nop())

	roles, err := resolver.Resolve(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %v", roles)
	}
}

func TestRoleResolver_ErrorIsExplicit(t *testing.T) {
	repo := newFakeRoleRepo()
	repo.failing = true
	resolver := NewRoleResolver(repo, zerolog.Nop())

	if _, err := resolver.Resolve(context.Background(), "user_1"); err == nil {
		t.Fatalf("expected error from failing repository")
	}
}

func TestEffectivePermissions_FailsOpenToUser(t *testing.T) {
	repo := newFakeRoleRepo()
	repo.failing = true
	resolver := NewRoleResolver(repo, zerolog.Nop())

	perms := resolver.EffectivePermissions(context.Background(), "user_1")
	if perms.AnyAdmin {
		t.Fatalf("failed resolution must degrade to the plain user grant")
	}
	if perms != domain.DefaultPermissions() {
		t.Fatalf("expected default permissions, got %+v", perms)
	}
}

func TestRoleWatcher_InitialResolution(t *testing.T) {
	repo := newFakeRoleRepo()
	_ = repo.Assign(context.Background(), "user_1", domain.RolePropertiesAdmin)
	feed := newFakeFeed()
	w := NewRoleWatcher(NewRoleResolver(repo, zerolog.Nop()), feed, "user_1", 5*time.Millisecond, zerolog.Nop())
	defer w.Close()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	if !w.Permissions().PropertiesAdmin {
		t.Fatalf("expected properties admin after initial resolution")
	}
	if w.Permissions().Admin {
		t.Fatalf("unexpected admin grant")
	}
}

func TestRoleWatcher_RealtimeGrantAfterDebounce(t *testing.T) {
	repo := newFakeRoleRepo()
	feed := newFakeFeed()
	w := NewRoleWatcher(NewRoleResolver(repo, zerolog.Nop()), feed, "user_1", 5*time.Millisecond, zerolog.Nop())
	defer w.Close()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if w.Permissions().AnyAdmin {
		t.Fatalf("expected plain user before grant")
	}

	changed := make(chan domain.Permissions, 1)
	unsub := w.OnChange(func(p domain.Permissions) {
		select {
		case changed <- p:
		default:
		}
	})
	defer unsub()

	_ = repo.Assign(context.Background(), "user_1", domain.RoleAdmin)
	_ = feed.Publish(context.Background(), ports.ChangeEvent{
		ID:          "ev1",
		Table:       ports.TableUserRoles,
		Type:        ports.EventInsert,
		PrincipalID: "user_1",
	})

	select {
	case p := <-changed:
		if !p.Admin {
			t.Fatalf("expected admin after re-resolution, got %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatalf("re-resolution never fired")
	}
}

func TestRoleWatcher_DebounceCoalescesBursts(t *testing.T) {
	repo := newFakeRoleRepo()
	feed := newFakeFeed()
	w := NewRoleWatcher(NewRoleResolver(repo, zerolog.Nop()), feed, "user_1", 20*time.Millisecond, zerolog.Nop())
	defer w.Close()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	baseline := repo.callCount()

	for i := 0; i < 5; i++ {
		_ = feed.Publish(context.Background(), ports.ChangeEvent{
			ID:          "burst",
			Table:       ports.TableUserRoles,
			Type:        ports.EventUpdate,
			PrincipalID: "user_1",
		})
	}

	time.Sleep(100 * time.Millisecond)
	if got := repo.callCount() - baseline; got != 1 {
		t.Fatalf("expected one coalesced re-resolution, got %d", got)
	}
}

func TestRoleWatcher_IgnoresOtherPrincipals(t *testing.T) {
	repo := newFakeRoleRepo()
	feed := newFakeFeed()
	w := NewRoleWatcher(NewRoleResolver(repo, zerolog.Nop()), feed, "user_1", 5*time.Millisecond, zerolog.Nop())
	defer w.Close()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	baseline := repo.callCount()

	_ = feed.Publish(context.Background(), ports.ChangeEvent{
		ID:          "ev2",
		Table:       ports.TableUserRoles,
		Type:        ports.EventInsert,
		PrincipalID: "user_2",
	})

	time.Sleep(50 * time.Millisecond)
	if repo.callCount() != baseline {
		t.Fatalf("another principal's change must not trigger a re-resolution")
	}
}

func TestRoleWatcher_FailedRefreshDowngrades(t *testing.T) {
	repo := newFakeRoleRepo()
	_ = repo.Assign(context.Background(), "user_1", domain.RoleAdmin)
	feed := newFakeFeed()
	w := NewRoleWatcher(NewRoleResolver(repo, zerolog.Nop()), feed, "user_1", 5*time.Millisecond, zerolog.Nop())
	defer w.Close()

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !w.Permissions().Admin {
		t.Fatalf("expected admin initially")
	}

	changed := make(chan domain.Permissions, 1)
	unsub := w.OnChange(func(p domain.Permissions) {
		select {
		case changed <- p:
		default:
		}
	})
	defer unsub()

	repo.mu.Lock()
	repo.failing = true
	repo.mu.Unlock()

	_ = feed.Publish(context.Background(), ports.ChangeEvent{
		ID:          "ev3",
		Table:       ports.TableUserRoles,
		Type:        ports.EventDelete,
		PrincipalID: "user_1",
	})

	select {
	case p := <-changed:
		if p.AnyAdmin {
			t.Fatalf("failed refresh must fail open to plain user, got %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatalf("refresh never fired")
	}
}

func TestRoleAdminService_AssignNotifies(t *testing.T) {
	roles := newFakeRoleRepo()
	notifications := newFakeNotificationRepo()
	svc := NewRoleAdminService(roles, notifications, zerolog.Nop())

	if err := svc.Assign(context.Background(), "user_1", domain.RoleModerator); err != nil {
		t.Fatalf("assign: %v", err)
	}

	got, err := roles.ListByPrincipal(context.Background(), "user_1")
	if err != nil || len(got) != 1 || got[0].Role != domain.RoleModerator {
		t.Fatalf("assignment not stored: %v %v", got, err)
	}

	items, _ := notifications.List(context.Background(), "user_1", 10)
	if len(items) != 1 {
		t.Fatalf("expected a role-change notification, got %d", len(items))
	}
}
