package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/yourorg/shesafe/internal/auth"
	"github.com/yourorg/shesafe/internal/cache"
	appdb "github.com/yourorg/shesafe/internal/db"
	"github.com/yourorg/shesafe/internal/handlers"
	"github.com/yourorg/shesafe/internal/middleware"
	"github.com/yourorg/shesafe/internal/notify"
	"github.com/yourorg/shesafe/internal/routes"
	"github.com/yourorg/shesafe/internal/sharing"
	"github.com/yourorg/shesafe/internal/store"
	"github.com/yourorg/shesafe/internal/tracking"
)

func main() {
	_ = godotenv.Load()

	app := fiber.New()
	app.Use(logger.New())
	app.Use(middleware.RateLimiter())

	// ============================================================================
	// DB CONNECTION (con reintentos: la DB puede tardar en levantar)
	// ============================================================================
	db, err := appdb.Connect()
	for err != nil {
		log.Printf("db connect error: %v (retrying in 5s)", err)
		time.Sleep(5 * time.Second)
		db, err = appdb.Connect()
	}
	if err := appdb.EnsureSchema(db); err != nil {
		log.Fatalf("❌ ensure schema error: %v", err)
	}
	log.Println("✅ Base de datos lista")

	// ============================================================================
	// WIRING: stores → engines → handlers
	// ============================================================================
	users := store.NewUsers(db)
	trackingStore := store.NewTracking(db)
	sharingStore := store.NewSharing(db)
	notificationStore := store.NewNotifications(db)

	notifier := notify.NewRecordEmitter(notificationStore)

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	trackingEngine := tracking.NewEngine(trackingStore, baseURL)
	requestEngine := sharing.NewRequestEngine(sharingStore, users, notifier)
	sessionEngine := sharing.NewSessionEngine(sharingStore, notifier)

	tokens := auth.TokenManagerFromEnv()
	actorCache := cache.New(time.Minute, 5*time.Minute)
	defer actorCache.Stop()

	routes.Register(app, routes.Deps{
		Auth:          handlers.NewAuthHandler(users, tokens),
		Tracking:      handlers.NewTrackingHandler(trackingEngine),
		Sharing:       handlers.NewSharingHandler(requestEngine, sessionEngine),
		Notifications: handlers.NewNotificationsHandler(notificationStore),
		Health:        handlers.NewHealthHandler(db, trackingStore, sharingStore),
		RequireAuth:   middleware.RequireAuth(tokens, users, actorCache),
	})

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("\n🛑 Señal de terminación recibida, cerrando servidor...")
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Error cerrando servidor: %v", err)
		}
		if err := db.Close(); err != nil {
			log.Printf("⚠️  Error cerrando DB: %v", err)
		}
		log.Println("✅ Servidor cerrado correctamente")
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Servidor escuchando en :%s", port)
	log.Println("📍 Endpoints disponibles:")
	log.Println("   POST /api/register                      - Crear cuenta")
	log.Println("   POST /api/login                         - Iniciar sesión")
	log.Println("   POST /api/location/start-tracking       - Iniciar broadcast de ubicación")
	log.Println("   POST /api/location/update-tracking      - Actualizar posición (token)")
	log.Println("   GET  /api/location/track/:token         - Página pública de seguimiento")
	log.Println("   POST /api/live/requests                 - Solicitar compartir ubicación")
	log.Println("   GET  /api/live/sessions                 - Sesiones mutuas activas")
	log.Println("💡 Presiona Ctrl+C para detener")

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
