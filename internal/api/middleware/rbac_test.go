package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/service"
)

type stubRoleRepo struct {
	assignments []domain.RoleAssignment
	err         error
}

func (s *stubRoleRepo) ListByPrincipal(ctx context.Context, principalID string) ([]domain.RoleAssignment, error) {
	return s.assignments, s.err
}

func (s *stubRoleRepo) Assign(ctx context.Context, principalID string, role domain.Role) error {
	return nil
}

func (s *stubRoleRepo) Revoke(ctx context.Context, principalID string, role domain.Role) error {
	return nil
}

func permMiddleware(repo *stubRoleRepo, allowed func(domain.Permissions) bool) echo.MiddlewareFunc {
	resolver := service.NewRoleResolver(repo, zerolog.Nop())
	return RequirePermission(resolver, allowed)
}

func TestRequirePermission_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("principal_id", "user_1")

	repo := &stubRoleRepo{assignments: []domain.RoleAssignment{
		{PrincipalID: "user_1", Role: domain.RoleCategoriesAdmin},
	}}

	called := false
	mw := permMiddleware(repo, func(p domain.Permissions) bool { return p.CategoriesAdmin })
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequirePermission_AdminSubsumes(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("principal_id", "user_1")

	repo := &stubRoleRepo{assignments: []domain.RoleAssignment{
		{PrincipalID: "user_1", Role: domain.RoleAdmin},
	}}

	called := false
	mw := permMiddleware(repo, func(p domain.Permissions) bool { return p.PropertiesAdmin })
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("admin should hold every domain capability")
	}
}

func TestRequirePermission_Forbids(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("principal_id", "user_1")

	repo := &stubRoleRepo{}

	mw := permMiddleware(repo, func(p domain.Permissions) bool { return p.CategoriesAdmin })
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	_ = handler(c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequirePermission_FailsOpenToUser(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("principal_id", "user_1")

	// A broken role read degrades to the default user grant: the request is
	// denied, not errored.
	repo := &stubRoleRepo{err: errors.New("connection reset")}

	mw := permMiddleware(repo, func(p domain.Permissions) bool { return p.AnyAdmin })
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	_ = handler(c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequirePermission_MissingPrincipal(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := permMiddleware(&stubRoleRepo{}, func(p domain.Permissions) bool { return true })
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
