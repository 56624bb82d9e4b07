package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/service"
)

// NotificationHandler exposes the principal's notification center read model
// and its bookkeeping operations.
type NotificationHandler struct {
	runtimes *service.RuntimeManager
}

func NewNotificationHandler(runtimes *service.RuntimeManager) *NotificationHandler {
	return &NotificationHandler{runtimes: runtimes}
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	ActionURL string    `json:"action_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type listNotificationsResponse struct {
	Data        []notificationResponse `json:"data"`
	UnreadCount int                    `json:"unread_count"`
}

type createNotificationRequest struct {
	Title     string `json:"title" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Type      string `json:"type"`
	ActionURL string `json:"action_url"`
}

func toNotificationResponse(n domain.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Read:      n.Read,
		ActionURL: n.ActionURL,
		CreatedAt: n.CreatedAt,
	}
}

// List handles GET /v1/notifications: the read model, newest first, with
// the running unread count.
//
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listNotificationsResponse
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	center := h.runtimes.Get(c.Request().Context(), principalID).Notifications
	items := center.Notifications()
	data := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		data = append(data, toNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, listNotificationsResponse{
		Data:        data,
		UnreadCount: center.UnreadCount(),
	})
}

// Create handles POST /v1/notifications: a notification addressed to the
// calling principal, typically immediate feedback for a local action.
//
// @Summary      Create a notification
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createNotificationRequest  true  "Notification details"
// @Success      201   {object}  listNotificationsResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/notifications [post]
func (h *NotificationHandler) Create(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	center := h.runtimes.Get(c.Request().Context(), principalID).Notifications
	err = center.Create(c.Request().Context(), service.CreateInput{
		Title:     req.Title,
		Message:   req.Message,
		Type:      domain.ParseNotificationType(req.Type),
		ActionURL: req.ActionURL,
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

// MarkRead handles POST /v1/notifications/:id/read.
//
// @Summary      Mark a notification read
// @Tags         notifications
// @Security     BearerAuth
// @Param        id   path  string  true  "Notification ID"
// @Success      204  "no content"
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	center := h.runtimes.Get(c.Request().Context(), principalID).Notifications
	if err := center.MarkAsRead(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles POST /v1/notifications/read-all.
//
// @Summary      Mark every notification read
// @Tags         notifications
// @Security     BearerAuth
// @Success      204  "no content"
// @Router       /v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	center := h.runtimes.Get(c.Request().Context(), principalID).Notifications
	if err := center.MarkAllAsRead(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/notifications/:id.
//
// @Summary      Delete a notification
// @Tags         notifications
// @Security     BearerAuth
// @Param        id   path  string  true  "Notification ID"
// @Success      204  "no content"
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id} [delete]
func (h *NotificationHandler) Delete(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	center := h.runtimes.Get(c.Request().Context(), principalID).Notifications
	if err := center.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
