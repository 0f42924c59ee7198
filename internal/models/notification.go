package models

import "time"

// Categorías de notificación con su ícono por defecto.
const (
	NotificationCategoryLocation = "location"
	NotificationCategoryGeneral  = "general"
)

// Notification es un registro de notificación in-app. La entrega push/email
// queda fuera de este servicio; aquí solo persistimos el evento.
type Notification struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Title     string     `json:"title" db:"title"`
	Message   string     `json:"message" db:"message"`
	Category  string     `json:"category" db:"category"`
	Icon      string     `json:"icon" db:"icon"`
	Data      *string    `json:"data,omitempty" db:"data"` // JSON extra, opcional
	Read      bool       `json:"read" db:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
