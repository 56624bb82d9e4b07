package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
	"github.com/souqly/marketplace-system/internal/core/service"
)

// AdminHandler exposes user and role administration. The router gates every
// route behind the admin capability.
type AdminHandler struct {
	users     ports.UserRepository
	resolver  *service.RoleResolver
	roleAdmin *service.RoleAdminService
}

func NewAdminHandler(users ports.UserRepository, resolver *service.RoleResolver, roleAdmin *service.RoleAdminService) *AdminHandler {
	return &AdminHandler{users: users, resolver: resolver, roleAdmin: roleAdmin}
}

type adminUserResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name,omitempty"`
	Roles       []string `json:"roles"`
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// ListUsers handles GET /v1/admin/users: every account with its resolved
// roles. A principal with no assignment rows shows the implicit user role.
//
// @Summary      List users with roles
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  adminUserResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.users.List(ctx)
	if err != nil {
		return err
	}

	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		roles, err := h.resolver.Resolve(ctx, u.ID)
		if err != nil {
			roles = domain.DefaultRoles()
		}
		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, string(r))
		}
		out = append(out, adminUserResponse{
			ID:          u.ID,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			Roles:       names,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// AssignRole handles POST /v1/admin/users/:id/roles. The grant lands in the
// role table and a change event re-resolves the target's live permission set.
//
// @Summary      Grant a role
// @Tags         admin
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string             true  "User ID"
// @Param        body  body  assignRoleRequest  true  "Role to grant"
// @Success      204   "no content"
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/admin/users/{id}/roles [post]
func (h *AdminHandler) AssignRole(c echo.Context) error {
	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.roleAdmin.Assign(c.Request().Context(), c.Param("id"), domain.ParseRole(req.Role)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RevokeRole handles DELETE /v1/admin/users/:id/roles/:role.
//
// @Summary      Revoke a role
// @Tags         admin
// @Security     BearerAuth
// @Param        id    path  string  true  "User ID"
// @Param        role  path  string  true  "Role to revoke"
// @Success      204   "no content"
// @Failure      403   {object}  errorResponse
// @Router       /v1/admin/users/{id}/roles/{role} [delete]
func (h *AdminHandler) RevokeRole(c echo.Context) error {
	role := domain.ParseRole(c.Param("role"))
	if err := h.roleAdmin.Revoke(c.Request().Context(), c.Param("id"), role); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
