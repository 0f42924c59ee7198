package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/shesafe/internal/middleware"
	"github.com/yourorg/shesafe/internal/models"
	"github.com/yourorg/shesafe/internal/tracking"
)

type TrackingHandler struct {
	engine *tracking.Engine
}

func NewTrackingHandler(engine *tracking.Engine) *TrackingHandler {
	return &TrackingHandler{engine: engine}
}

// StartTracking inicia una sesión de broadcast para el actor autenticado
func (h *TrackingHandler) StartTracking(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.StartTrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "validation_error",
			"message": "Invalid request body",
		})
	}

	// El teléfono del body sobreescribe el del perfil para esta sesión
	if req.Phone != "" {
		actor.Phone = req.Phone
	}

	resp, err := h.engine.StartTracking(actor, req.DurationMinutes)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// UpdateLocation recibe un fix del dispositivo emisor. El token es la
// credencial: el dispositivo que lo tiene es el dueño de la sesión.
func (h *TrackingHandler) UpdateLocation(c *fiber.Ctx) error {
	var req models.UpdateTrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "validation_error",
			"message": "Invalid request body",
		})
	}

	if err := h.engine.UpdateLocation(req.SessionToken, req.Lat, req.Lng, req.Address); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Location updated successfully",
	})
}

// GetLocation devuelve la posición actual a cualquier portador del token
func (h *TrackingHandler) GetLocation(c *fiber.Ctx) error {
	token := c.Params("token")

	view, err := h.engine.GetLocation(token)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"location":    view.Location,
		"address":     view.Address,
		"owner_name":  view.OwnerName,
		"owner_phone": view.OwnerPhone,
		"owner_email": view.OwnerEmail,
		"last_update": view.LastUpdate,
	})
}

// StopTracking termina la sesión de broadcast (idempotente)
func (h *TrackingHandler) StopTracking(c *fiber.Ctx) error {
	var req models.StopTrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "validation_error",
			"message": "Invalid request body",
		})
	}
	if req.SessionToken == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"error":   "validation_error",
			"message": "session_token required",
		})
	}

	if err := h.engine.StopTracking(req.SessionToken); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Tracking stopped successfully",
	})
}
