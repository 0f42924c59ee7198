package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/shesafe/internal/auth"
	"github.com/yourorg/shesafe/internal/cache"
	"github.com/yourorg/shesafe/internal/models"
)

// UserLoader resuelve la cuenta detrás de un token verificado.
type UserLoader interface {
	GetByID(id int64) (*models.User, error)
}

const actorCacheTTL = time.Minute

// RequireAuth valida el bearer token, resuelve el actor {id, name, email,
// phone} y lo deja en c.Locals("actor"). El lookup de usuario se cachea un
// minuto para no golpear la DB en cada request.
func RequireAuth(tokens *auth.TokenManager, users UserLoader, actorCache *cache.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "unauthenticated",
				"message": "Authentication required",
			})
		}

		userID, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "unauthenticated",
				"message": "Invalid or expired token",
			})
		}

		cacheKey := fmt.Sprintf("actor:%d", userID)
		if cached, found := actorCache.Get(cacheKey); found {
			if actor, ok := cached.(models.Actor); ok {
				c.Locals("actor", actor)
				return c.Next()
			}
		}

		user, err := users.GetByID(userID)
		if err != nil {
			// Token válido pero cuenta inexistente (borrada): tratar como no autenticado
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "unauthenticated",
				"message": "Account not found",
			})
		}

		actor := user.Actor()
		actorCache.SetWithTTL(cacheKey, actor, actorCacheTTL)
		c.Locals("actor", actor)
		return c.Next()
	}
}

// ActorFromContext recupera el actor seteado por RequireAuth.
func ActorFromContext(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals("actor").(models.Actor)
	return actor, ok
}
