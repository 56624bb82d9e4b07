package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/service"
)

// AuthHandler exposes account registration and session endpoints on top of
// the session provider. Sign-in establishes the server-side session, which
// in turn warms the principal's runtime through the bound manager; sign-out
// tears both down.
type AuthHandler struct {
	sessions *service.SessionProvider
	runtimes *service.RuntimeManager
}

func NewAuthHandler(sessions *service.SessionProvider, runtimes *service.RuntimeManager) *AuthHandler {
	return &AuthHandler{sessions: sessions, runtimes: runtimes}
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	User  *userResponse `json:"user,omitempty"`
}

// Register creates a new account. No session is established; clients follow
// with Login.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.sessions.SignUp(c.Request().Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, authResponse{
		User: &userResponse{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	})
}

// Login authenticates and returns a session token. The established session
// warms the principal's runtime (favorites cache, notification center, role
// watcher) in the background.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.sessions.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Token: token,
		User:  &userResponse{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	})
}

type meResponse struct {
	ID          string             `json:"id"`
	Email       string             `json:"email"`
	Roles       []string           `json:"roles"`
	Permissions domain.Permissions `json:"permissions"`
}

// Me handles GET /v1/me: the authenticated principal with its live role
// and permission set. The values come from the runtime's role watcher, so
// they reflect realtime grant changes after the debounced re-resolution.
//
// @Summary      Current principal
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Router       /v1/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	email, _ := c.Get("email").(string)

	watcher := h.runtimes.Get(c.Request().Context(), principalID).Roles
	roles := watcher.Roles()
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}

	return c.JSON(http.StatusOK, meResponse{
		ID:          principalID,
		Email:       email,
		Roles:       names,
		Permissions: watcher.Permissions(),
	})
}

// Logout closes the principal's runtime and clears the session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      204  "no content"
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	h.runtimes.Close(principalID)
	h.sessions.SignOut()
	return c.NoContent(http.StatusNoContent)
}
