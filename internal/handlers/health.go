package handlers

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/shesafe/internal/store"
)

// HealthResponse representa el estado de salud del sistema
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Counts    map[string]int    `json:"counts,omitempty"`
	Version   string            `json:"version,omitempty"`
}

type HealthHandler struct {
	db       *sql.DB
	tracking *store.Tracking
	sharing  *store.Sharing
}

func NewHealthHandler(db *sql.DB, tracking *store.Tracking, sharing *store.Sharing) *HealthHandler {
	return &HealthHandler{db: db, tracking: tracking, sharing: sharing}
}

// Health proporciona un health check completo del sistema
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	services := make(map[string]string)
	counts := make(map[string]int)
	overall := "healthy"

	// ============================================================================
	// CHECK: Base de Datos
	// ============================================================================
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		services["database"] = "unhealthy: " + err.Error()
		overall = "degraded"
	} else {
		services["database"] = "healthy"
	}

	// ============================================================================
	// CHECK: Sesiones activas (solo si la DB responde)
	// ============================================================================
	if services["database"] == "healthy" {
		if n, err := h.tracking.CountActive(); err == nil {
			counts["tracking_sessions"] = n
		}
		if n, err := h.sharing.CountActiveSessions(); err == nil {
			counts["mutual_sessions"] = n
		}
	}

	statusCode := fiber.StatusOK
	if overall == "degraded" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
		Counts:    counts,
		Version:   os.Getenv("APP_VERSION"),
	})
}
