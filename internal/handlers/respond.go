package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/shesafe/internal/apperrors"
)

// unauthenticated es la respuesta estándar cuando no hay actor en el contexto
// (middleware ausente o token que no resolvió cuenta).
func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   "unauthenticated",
		"message": "Authentication required",
	})
}

// fail traduce un error de dominio a la respuesta estándar de la API:
// siempre un flag success explícito más la categoría legible por máquina.
// Los transitorios se loguean completos pero el cliente solo ve la categoría.
func fail(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	message := err.Error()
	if kind == apperrors.KindTransient {
		log.Printf("❌ Error transitorio en %s: %v", c.Path(), err)
		message = "temporary failure, please retry"
	}
	return c.Status(apperrors.StatusCode(err)).JSON(fiber.Map{
		"success": false,
		"error":   string(kind),
		"message": message,
	})
}
