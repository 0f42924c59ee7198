package store

import (
	"database/sql"
	"time"

	"github.com/yourorg/shesafe/internal/apperrors"
	"github.com/yourorg/shesafe/internal/models"
)

// Notifications persiste los registros que escribe el emitter.
type Notifications struct {
	db *sql.DB
}

func NewNotifications(db *sql.DB) *Notifications {
	return &Notifications{db: db}
}

// Insert guarda una notificación nueva.
func (s *Notifications) Insert(n *models.Notification) (int64, error) {
	var data any
	if n.Data != nil {
		data = *n.Data
	}
	res, err := s.db.Exec(`
		INSERT INTO notifications (user_id, title, message, category, icon, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.UserID, n.Title, n.Message, n.Category, n.Icon, data)
	if err != nil {
		return 0, apperrors.Transient(err)
	}
	return res.LastInsertId()
}

// ListFor devuelve las notificaciones del usuario, más reciente primero.
func (s *Notifications) ListFor(userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, title, message, category, icon, data, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.Query(query, userID, limit)
	if err != nil {
		return nil, apperrors.Transient(err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var data sql.NullString
		var readAt sql.NullTime
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Message, &n.Category, &n.Icon,
			&data, &n.Read, &readAt, &n.CreatedAt,
		); err != nil {
			continue
		}
		if data.Valid {
			n.Data = &data.String
		}
		if readAt.Valid {
			n.ReadAt = &readAt.Time
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// MarkRead marca una notificación del usuario como leída.
// IFNULL preserva read_at de la primera lectura.
func (s *Notifications) MarkRead(id, userID int64, now time.Time) error {
	res, err := s.db.Exec(`
		UPDATE notifications
		SET is_read = TRUE, read_at = IFNULL(read_at, ?)
		WHERE id = ? AND user_id = ?
	`, now, id, userID)
	if err != nil {
		return apperrors.Transient(err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		// Puede ser re-lectura idempotente: verificar existencia real.
		var exists int
		if err := s.db.QueryRow(`SELECT 1 FROM notifications WHERE id = ? AND user_id = ?`, id, userID).Scan(&exists); err != nil {
			return apperrors.NotFound("notification", "")
		}
	}
	return nil
}
