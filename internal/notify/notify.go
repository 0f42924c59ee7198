package notify

import (
	"encoding/json"
	"log"

	"github.com/yourorg/shesafe/internal/models"
	"github.com/yourorg/shesafe/internal/store"
)

// Emitter es el colaborador de notificaciones que consumen los engines.
// Emit es best-effort: un fallo jamás debe revertir la mutación que lo originó.
type Emitter interface {
	Emit(userID int64, title, message, category, icon string, data map[string]any) error
}

// Preset asocia categoría e ícono, como los NotificationTypes del cliente.
type Preset struct {
	Category string
	Icon     string
}

var (
	PresetLocation = Preset{Category: models.NotificationCategoryLocation, Icon: "📍"}
	PresetGeneral  = Preset{Category: models.NotificationCategoryGeneral, Icon: "🔔"}
)

// RecordEmitter escribe notificaciones como registros en DB. El cliente las
// lee por polling; push/email quedan fuera de este servicio.
type RecordEmitter struct {
	store *store.Notifications
}

func NewRecordEmitter(s *store.Notifications) *RecordEmitter {
	return &RecordEmitter{store: s}
}

func (e *RecordEmitter) Emit(userID int64, title, message, category, icon string, data map[string]any) error {
	n := &models.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Category: category,
		Icon:     icon,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err == nil {
			s := string(raw)
			n.Data = &s
		}
	}
	if _, err := e.store.Insert(n); err != nil {
		log.Printf("⚠️ No se pudo crear la notificación para user %d: %v", userID, err)
		return err
	}
	return nil
}

// Discard es un emitter nulo para tests y arranques parciales.
type Discard struct{}

func (Discard) Emit(int64, string, string, string, string, map[string]any) error { return nil }
