package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/yourorg/shesafe/internal/apperrors"
	"github.com/yourorg/shesafe/internal/models"
)

// Tracking persiste sesiones de broadcast indexadas por token.
// La evaluación de expiración vive en el engine; aquí solo hay registros.
type Tracking struct {
	db *sql.DB
}

func NewTracking(db *sql.DB) *Tracking {
	return &Tracking{db: db}
}

// Create inserta una nueva sesión de tracking.
func (s *Tracking) Create(t *models.TrackingSession) error {
	_, err := s.db.Exec(`
		INSERT INTO tracking_sessions (
			session_token, owner_id, owner_name, owner_phone, owner_email,
			current_lat, current_lng, current_address, duration_minutes,
			start_time, is_active, last_update
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?)
	`, t.SessionToken, t.OwnerID, t.OwnerName, t.OwnerPhone, t.OwnerEmail,
		t.CurrentLocation.Lat, t.CurrentLocation.Lng, t.CurrentAddress,
		t.DurationMinutes, t.StartTime, t.LastUpdate)
	if err != nil {
		return apperrors.Transient(err)
	}
	return nil
}

// GetByToken carga una sesión por su token.
func (s *Tracking) GetByToken(token string) (*models.TrackingSession, error) {
	var t models.TrackingSession
	var endTime sql.NullTime
	err := s.db.QueryRow(`
		SELECT session_token, owner_id, owner_name, owner_phone, owner_email,
			current_lat, current_lng, current_address, duration_minutes,
			start_time, end_time, is_active, last_update
		FROM tracking_sessions WHERE session_token = ?
	`, token).Scan(
		&t.SessionToken, &t.OwnerID, &t.OwnerName, &t.OwnerPhone, &t.OwnerEmail,
		&t.CurrentLocation.Lat, &t.CurrentLocation.Lng, &t.CurrentAddress,
		&t.DurationMinutes, &t.StartTime, &endTime, &t.IsActive, &t.LastUpdate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("tracking session", token)
	}
	if err != nil {
		return nil, apperrors.Transient(err)
	}
	if endTime.Valid {
		t.EndTime = &endTime.Time
	}
	return &t, nil
}

// UpdateLocation actualiza posición, dirección y last_update. El guard
// is_active evita avanzar un registro ya terminado por otra petición.
func (s *Tracking) UpdateLocation(token string, lat, lng float64, address string, now time.Time) error {
	res, err := s.db.Exec(`
		UPDATE tracking_sessions
		SET current_lat = ?, current_lng = ?,
			current_address = IF(? = '', current_address, ?),
			last_update = ?
		WHERE session_token = ? AND is_active = TRUE
	`, lat, lng, address, address, now, token)
	if err != nil {
		return apperrors.Transient(err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return apperrors.SessionEnded()
	}
	return nil
}

// MarkExpired persiste el flip de expiración detectado por el engine.
// No toca end_time: esa marca pertenece al stop explícito.
func (s *Tracking) MarkExpired(token string) error {
	_, err := s.db.Exec(`
		UPDATE tracking_sessions SET is_active = FALSE
		WHERE session_token = ? AND is_active = TRUE
	`, token)
	if err != nil {
		return apperrors.Transient(err)
	}
	return nil
}

// Stop termina la sesión. IFNULL preserva el end_time del primer stop,
// así la operación es idempotente.
func (s *Tracking) Stop(token string, now time.Time) error {
	_, err := s.db.Exec(`
		UPDATE tracking_sessions
		SET is_active = FALSE, end_time = IFNULL(end_time, ?)
		WHERE session_token = ?
	`, now, token)
	if err != nil {
		return apperrors.Transient(err)
	}
	return nil
}

// CountActive devuelve la cantidad de sesiones con is_active=TRUE (health check).
func (s *Tracking) CountActive() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tracking_sessions WHERE is_active = TRUE`).Scan(&n); err != nil {
		return 0, apperrors.Transient(err)
	}
	return n, nil
}
