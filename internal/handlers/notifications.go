package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/shesafe/internal/middleware"
	"github.com/yourorg/shesafe/internal/store"
)

type NotificationsHandler struct {
	store *store.Notifications
}

func NewNotificationsHandler(s *store.Notifications) *NotificationsHandler {
	return &NotificationsHandler{store: s}
}

// ListNotifications devuelve las notificaciones del actor, más reciente
// primero. ?unread=true filtra solo las no leídas.
func (h *NotificationsHandler) ListNotifications(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	unreadOnly := c.QueryBool("unread", false)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	notifications, err := h.store.ListFor(actor.ID, unreadOnly, limit)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// MarkRead marca una notificación como leída (idempotente)
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   "validation_error",
			"message": "invalid notification id",
		})
	}

	if err := h.store.MarkRead(int64(id), actor.ID, time.Now()); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Notification marked as read",
	})
}
