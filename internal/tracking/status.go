package tracking

import (
	"time"

	"github.com/yourorg/shesafe/internal/models"
)

// Estado derivado de una sesión de broadcast. No se cachea: se recalcula en
// cada acceso contra el reloj, y el flip terminal se persiste de forma
// oportunista. Así el flag en DB nunca puede quedar desincronizado del tiempo.
type sessionState int

const (
	stateActive sessionState = iota
	stateEnded               // is_active=false por stop explícito
	stateExpired             // venció duration_minutes (aunque DB aún diga activa)
)

// deriveState es una función pura: registro + reloj → estado.
// duration_minutes == -1 nunca expira.
func deriveState(s *models.TrackingSession, now time.Time) sessionState {
	if s.DurationMinutes != -1 {
		expiry := s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
		if now.After(expiry) || now.Equal(expiry) {
			// Expirada gana sobre ended: si venció el plazo reportamos
			// session_expired aunque también haya un stop posterior.
			if s.IsActive {
				return stateExpired
			}
			// Ya estaba inactiva: distinguir stop explícito (end_time seteado)
			// de un flip de expiración previo.
			if s.EndTime != nil && s.EndTime.Before(expiry) {
				return stateEnded
			}
			return stateExpired
		}
	}

	if !s.IsActive {
		return stateEnded
	}
	return stateActive
}
