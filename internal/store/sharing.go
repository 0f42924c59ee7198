package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/yourorg/shesafe/internal/apperrors"
	"github.com/yourorg/shesafe/internal/models"
)

// Sharing persiste solicitudes y sesiones mutuas. Las dos entidades viven en
// el mismo store porque Accept las cruza en una sola transacción.
type Sharing struct {
	db *sql.DB
}

func NewSharing(db *sql.DB) *Sharing {
	return &Sharing{db: db}
}

// ============================================================================
// SHARING REQUESTS
// ============================================================================

// CreateRequest inserta una solicitud nueva (siempre pending).
func (s *Sharing) CreateRequest(r *models.SharingRequest) error {
	_, err := s.db.Exec(`
		INSERT INTO sharing_requests (
			id, sender_id, sender_name, sender_email,
			recipient_id, recipient_name, recipient_email,
			sender_lat, sender_lng, sender_accuracy, sender_address,
			status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.SenderID, r.SenderName, r.SenderEmail,
		r.RecipientID, r.RecipientName, r.RecipientEmail,
		r.SenderLocation.Lat, r.SenderLocation.Lng, r.SenderLocation.Accuracy,
		r.SenderAddress, r.Status, r.CreatedAt)
	if err != nil {
		return apperrors.Transient(err)
	}
	return nil
}

// GetRequest carga una solicitud por id.
func (s *Sharing) GetRequest(id string) (*models.SharingRequest, error) {
	row := s.db.QueryRow(`
		SELECT id, sender_id, sender_name, sender_email,
			recipient_id, recipient_name, recipient_email,
			sender_lat, sender_lng, sender_accuracy, sender_address,
			status, created_at
		FROM sharing_requests WHERE id = ?
	`, id)
	return scanRequest(row, id)
}

// ListPendingFor devuelve las solicitudes pendientes dirigidas al usuario,
// más reciente primero.
func (s *Sharing) ListPendingFor(recipientID int64) ([]models.SharingRequest, error) {
	rows, err := s.db.Query(`
		SELECT id, sender_id, sender_name, sender_email,
			recipient_id, recipient_name, recipient_email,
			sender_lat, sender_lng, sender_accuracy, sender_address,
			status, created_at
		FROM sharing_requests
		WHERE recipient_id = ? AND status = 'pending'
		ORDER BY created_at DESC
	`, recipientID)
	if err != nil {
		return nil, apperrors.Transient(err)
	}
	defer rows.Close()

	requests := []models.SharingRequest{}
	for rows.Next() {
		var r models.SharingRequest
		if err := rows.Scan(
			&r.ID, &r.SenderID, &r.SenderName, &r.SenderEmail,
			&r.RecipientID, &r.RecipientName, &r.RecipientEmail,
			&r.SenderLocation.Lat, &r.SenderLocation.Lng, &r.SenderLocation.Accuracy,
			&r.SenderAddress, &r.Status, &r.CreatedAt,
		); err != nil {
			continue
		}
		requests = append(requests, r)
	}
	return requests, nil
}

// Accept resuelve la solicitud y crea la sesión mutua en UNA transacción:
// una solicitud nunca queda 'accepted' sin sesión, ni al revés. El UPDATE
// condicional sobre status='pending' es el que detecta la doble resolución.
func (s *Sharing) Accept(requestID string, recipientID int64, session *models.MutualSession) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.Transient(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE sharing_requests SET status = 'accepted'
		WHERE id = ? AND recipient_id = ? AND status = 'pending'
	`, requestID, recipientID)
	if err != nil {
		return apperrors.Transient(err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		// Perdimos la carrera o la solicitud ya estaba resuelta.
		return apperrors.AlreadyResolved(requestID)
	}

	if _, err := tx.Exec(`
		INSERT INTO mutual_sessions (
			id,
			party_a_id, party_a_name, party_a_email,
			party_a_lat, party_a_lng, party_a_accuracy, party_a_address,
			party_b_id, party_b_name, party_b_email,
			party_b_lat, party_b_lng, party_b_accuracy, party_b_address,
			status, created_at, last_update
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID,
		session.PartyA.ID, session.PartyA.Name, session.PartyA.Email,
		session.PartyA.Location.Lat, session.PartyA.Location.Lng,
		session.PartyA.Location.Accuracy, session.PartyA.Address,
		session.PartyB.ID, session.PartyB.Name, session.PartyB.Email,
		session.PartyB.Location.Lat, session.PartyB.Location.Lng,
		session.PartyB.Location.Accuracy, session.PartyB.Address,
		session.Status, session.CreatedAt, session.LastUpdate); err != nil {
		return apperrors.Transient(err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Transient(err)
	}
	return nil
}

// Decline marca la solicitud como rechazada. UPDATE condicional: si otra
// petición la resolvió primero devolvemos AlreadyResolved.
func (s *Sharing) Decline(requestID string, recipientID int64) error {
	res, err := s.db.Exec(`
		UPDATE sharing_requests SET status = 'declined'
		WHERE id = ? AND recipient_id = ? AND status = 'pending'
	`, requestID, recipientID)
	if err != nil {
		return apperrors.Transient(err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return apperrors.AlreadyResolved(requestID)
	}
	return nil
}

// ============================================================================
// MUTUAL SESSIONS
// ============================================================================

// GetSession carga una sesión mutua por id.
func (s *Sharing) GetSession(id string) (*models.MutualSession, error) {
	row := s.db.QueryRow(sessionSelect+` WHERE id = ?`, id)
	sess, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("session", id)
	}
	if err != nil {
		return nil, apperrors.Transient(err)
	}
	return sess, nil
}

// ListActiveFor devuelve todas las sesiones activas donde el usuario es
// party A o party B, más reciente primero.
func (s *Sharing) ListActiveFor(userID int64) ([]models.MutualSession, error) {
	rows, err := s.db.Query(sessionSelect+`
		WHERE status = 'active' AND (party_a_id = ? OR party_b_id = ?)
		ORDER BY created_at DESC
	`, userID, userID)
	if err != nil {
		return nil, apperrors.Transient(err)
	}
	defer rows.Close()

	sessions := []models.MutualSession{}
	for rows.Next() {
		sess, err := scanSession(rows.Scan)
		if err != nil {
			continue
		}
		sessions = append(sessions, *sess)
	}
	return sessions, nil
}

// UpdatePartyALocation escribe SOLO las columnas del lado A. El guard por
// party_a_id y status hace que la actualización sea un no-op seguro si la
// sesión terminó o el usuario no es ese lado. Devuelve si tocó la fila.
func (s *Sharing) UpdatePartyALocation(sessionID string, userID int64, fix models.GeoFix, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE mutual_sessions
		SET party_a_lat = ?, party_a_lng = ?, party_a_accuracy = ?, last_update = ?
		WHERE id = ? AND party_a_id = ? AND status = 'active'
	`, fix.Lat, fix.Lng, fix.Accuracy, now, sessionID, userID)
	if err != nil {
		return false, apperrors.Transient(err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// UpdatePartyBLocation es el espejo para el lado B.
func (s *Sharing) UpdatePartyBLocation(sessionID string, userID int64, fix models.GeoFix, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE mutual_sessions
		SET party_b_lat = ?, party_b_lng = ?, party_b_accuracy = ?, last_update = ?
		WHERE id = ? AND party_b_id = ? AND status = 'active'
	`, fix.Lat, fix.Lng, fix.Accuracy, now, sessionID, userID)
	if err != nil {
		return false, apperrors.Transient(err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// EndSession marca la sesión como terminada. Condicional sobre status:
// un segundo end no mueve ended_at.
func (s *Sharing) EndSession(sessionID string, now time.Time) error {
	_, err := s.db.Exec(`
		UPDATE mutual_sessions
		SET status = 'ended', ended_at = ?
		WHERE id = ? AND status = 'active'
	`, now, sessionID)
	if err != nil {
		return apperrors.Transient(err)
	}
	return nil
}

// CountActiveSessions cuenta sesiones mutuas activas (health check).
func (s *Sharing) CountActiveSessions() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM mutual_sessions WHERE status = 'active'`).Scan(&n); err != nil {
		return 0, apperrors.Transient(err)
	}
	return n, nil
}

const sessionSelect = `
	SELECT id,
		party_a_id, party_a_name, party_a_email,
		party_a_lat, party_a_lng, party_a_accuracy, party_a_address,
		party_b_id, party_b_name, party_b_email,
		party_b_lat, party_b_lng, party_b_accuracy, party_b_address,
		status, created_at, ended_at, last_update
	FROM mutual_sessions`

func scanSession(scan func(dest ...any) error) (*models.MutualSession, error) {
	var sess models.MutualSession
	var endedAt sql.NullTime
	err := scan(
		&sess.ID,
		&sess.PartyA.ID, &sess.PartyA.Name, &sess.PartyA.Email,
		&sess.PartyA.Location.Lat, &sess.PartyA.Location.Lng,
		&sess.PartyA.Location.Accuracy, &sess.PartyA.Address,
		&sess.PartyB.ID, &sess.PartyB.Name, &sess.PartyB.Email,
		&sess.PartyB.Location.Lat, &sess.PartyB.Location.Lng,
		&sess.PartyB.Location.Accuracy, &sess.PartyB.Address,
		&sess.Status, &sess.CreatedAt, &endedAt, &sess.LastUpdate,
	)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}

func scanRequest(row *sql.Row, ref string) (*models.SharingRequest, error) {
	var r models.SharingRequest
	err := row.Scan(
		&r.ID, &r.SenderID, &r.SenderName, &r.SenderEmail,
		&r.RecipientID, &r.RecipientName, &r.RecipientEmail,
		&r.SenderLocation.Lat, &r.SenderLocation.Lng, &r.SenderLocation.Accuracy,
		&r.SenderAddress, &r.Status, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("sharing request", ref)
	}
	if err != nil {
		return nil, apperrors.Transient(err)
	}
	return &r, nil
}
