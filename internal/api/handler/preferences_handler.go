package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/souqly/marketplace-system/internal/core/service"
)

// PreferencesHandler reads and writes per-principal device preferences.
type PreferencesHandler struct {
	prefs *service.PreferencesService
}

func NewPreferencesHandler(prefs *service.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{prefs: prefs}
}

// Get handles GET /v1/preferences.
//
// @Summary      Get preferences
// @Tags         preferences
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.Preferences
// @Router       /v1/preferences [get]
func (h *PreferencesHandler) Get(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.prefs.Get(c.Request().Context(), principalID))
}

// Set handles PUT /v1/preferences. The document is a full overwrite.
//
// @Summary      Set preferences
// @Tags         preferences
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      service.Preferences  true  "Preferences"
// @Success      200   {object}  service.Preferences
// @Failure      400   {object}  errorResponse
// @Router       /v1/preferences [put]
func (h *PreferencesHandler) Set(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var p service.Preferences
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.prefs.Set(c.Request().Context(), principalID, p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
