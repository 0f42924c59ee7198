package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/shesafe/internal/middleware"
	"github.com/yourorg/shesafe/internal/models"
	"github.com/yourorg/shesafe/internal/sharing"
)

type SharingHandler struct {
	requests *sharing.RequestEngine
	sessions *sharing.SessionEngine
}

func NewSharingHandler(requests *sharing.RequestEngine, sessions *sharing.SessionEngine) *SharingHandler {
	return &SharingHandler{requests: requests, sessions: sessions}
}

// ============================================================================
// SOLICITUDES (handshake)
// ============================================================================

// CreateRequest crea una solicitud de ubicación en vivo hacia otro usuario
func (h *SharingHandler) CreateRequest(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.CreateSharingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "validation_error",
			"message": "Invalid request body",
		})
	}

	request, err := h.requests.CreateRequest(actor, req.RecipientEmail, req.Location, req.Address)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"request": request,
	})
}

// ListPending lista las solicitudes pendientes dirigidas al actor
func (h *SharingHandler) ListPending(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	requests, err := h.requests.ListPending(actor)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"requests": requests,
		"count":    len(requests),
	})
}

// Accept acepta una solicitud y crea la sesión mutua
func (h *SharingHandler) Accept(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.AcceptSharingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "validation_error",
			"message": "Invalid request body",
		})
	}

	sessionID, err := h.requests.Accept(c.Params("id"), actor, req.Location, req.Address)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"session_id": sessionID,
	})
}

// Decline rechaza una solicitud pendiente
func (h *SharingHandler) Decline(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.requests.Decline(c.Params("id"), actor); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Request declined",
	})
}

// ============================================================================
// SESIONES MUTUAS
// ============================================================================

// ListActiveSessions lista las sesiones activas del actor, orientadas
// desde su perspectiva
func (h *SharingHandler) ListActiveSessions(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	sessions, err := h.sessions.ListActiveFor(actor)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// PushLocation propaga un fix del actor a todas sus sesiones activas
func (h *SharingHandler) PushLocation(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	var req models.PushLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "validation_error",
			"message": "Invalid request body",
		})
	}

	updated, err := h.sessions.PushLocation(actor, models.GeoFix{
		Lat:      req.Lat,
		Lng:      req.Lng,
		Accuracy: req.Accuracy,
	})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"sessions_updated": updated,
	})
}

// GetCounterpartyLocation devuelve la última ubicación del otro participante
func (h *SharingHandler) GetCounterpartyLocation(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	view, err := h.sessions.CounterpartyLocation(c.Params("id"), actor)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"location":    view.Location,
		"address":     view.Address,
		"last_update": view.LastUpdate,
	})
}

// EndSession termina una sesión mutua
func (h *SharingHandler) EndSession(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	if err := h.sessions.EndSession(c.Params("id"), actor); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Session ended",
	})
}
