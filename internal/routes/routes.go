package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/shesafe/internal/events"
	"github.com/yourorg/shesafe/internal/handlers"
	"github.com/yourorg/shesafe/internal/middleware"
)

// Deps agrupa los handlers ya construidos y el middleware de auth.
// main.go los cablea; acá solo se montan rutas.
type Deps struct {
	Auth          *handlers.AuthHandler
	Tracking      *handlers.TrackingHandler
	Sharing       *handlers.SharingHandler
	Notifications *handlers.NotificationsHandler
	Health        *handlers.HealthHandler
	RequireAuth   fiber.Handler
}

func Register(app *fiber.App, d Deps) {
	api := app.Group("/api")

	// Health check (sin rate limiting)
	api.Get("/health", d.Health.Health)

	// ============================================================================
	// AUTENTICACIÓN (con rate limiting estricto)
	// ============================================================================
	api.Post("/register", middleware.StrictRateLimiter(), d.Auth.Register)
	api.Post("/login", middleware.StrictRateLimiter(), d.Auth.Login)

	// ============================================================================
	// LOCATION TRACKING (broadcast: un emisor, lectores con link)
	// ============================================================================
	location := api.Group("/location")

	// Solo un usuario autenticado puede abrir una sesión
	location.Post("/start-tracking", d.RequireAuth, d.Tracking.StartTracking)

	// Del lado del emisor el token ES la credencial: el dispositivo que lo
	// tiene actualiza y detiene sin JWT (el link se genera tras autenticarse)
	location.Post("/update-tracking", middleware.LocationUpdateRateLimiter(), d.Tracking.UpdateLocation)
	location.Post("/stop-tracking", d.Tracking.StopTracking)

	// Lectores anónimos: cualquiera con el link
	location.Get("/get-location/:token", d.Tracking.GetLocation)
	location.Get("/track/:token", d.Tracking.TrackPage)

	// ============================================================================
	// LIVE LOCATION SHARING (mutuo: solicitud → aceptación → sesión de dos)
	// ============================================================================
	live := api.Group("/live", d.RequireAuth)

	// Crear solicitudes es barato de abusar (spam hacia otros usuarios);
	// se limita aparte del rate general
	live.Post("/requests", middleware.StrictRateLimiter(), d.Sharing.CreateRequest)
	live.Get("/requests/pending", d.Sharing.ListPending)
	live.Post("/requests/:id/accept", d.Sharing.Accept)
	live.Post("/requests/:id/decline", d.Sharing.Decline)

	live.Get("/sessions", d.Sharing.ListActiveSessions)
	live.Post("/sessions/location", middleware.LocationUpdateRateLimiter(), d.Sharing.PushLocation)
	live.Get("/sessions/:id/location", d.Sharing.GetCounterpartyLocation)
	live.Post("/sessions/:id/end", d.Sharing.EndSession)

	// ============================================================================
	// NOTIFICATIONS
	// ============================================================================
	notifications := api.Group("/notifications", d.RequireAuth)
	notifications.Get("/", d.Notifications.ListNotifications)
	notifications.Put("/:id/read", d.Notifications.MarkRead)

	// ============================================================================
	// EVENTS WEBSOCKET (feed de eventos de sesión para dashboards)
	// ============================================================================
	app.Use("/ws/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/events", websocket.New(func(c *websocket.Conn) {
		events.HandleWebSocket(c)
	}))
}
