package store

import (
	"database/sql"
	"errors"
	"strconv"

	"github.com/yourorg/shesafe/internal/apperrors"
	"github.com/yourorg/shesafe/internal/models"
)

// Users persiste cuentas de usuario. Sin lógica de negocio: los handlers de
// auth deciden hashing y validaciones.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

// Create inserta un usuario y devuelve su id asignado.
func (s *Users) Create(u *models.User) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO users (username, email, name, phone, password_hash)
		VALUES (?, ?, ?, ?, ?)
	`, u.Username, u.Email, u.Name, u.Phone, u.PasswordHash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Users) GetByID(id int64) (*models.User, error) {
	return s.scanOne(s.db.QueryRow(`
		SELECT id, username, email, name, phone, password_hash, created_at
		FROM users WHERE id = ?
	`, id), strconv.FormatInt(id, 10))
}

func (s *Users) GetByUsername(username string) (*models.User, error) {
	return s.scanOne(s.db.QueryRow(`
		SELECT id, username, email, name, phone, password_hash, created_at
		FROM users WHERE username = ?
	`, username), username)
}

func (s *Users) GetByEmail(email string) (*models.User, error) {
	return s.scanOne(s.db.QueryRow(`
		SELECT id, username, email, name, phone, password_hash, created_at
		FROM users WHERE email = ?
	`, email), email)
}

func (s *Users) scanOne(row *sql.Row, ref string) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Phone, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user", ref)
	}
	if err != nil {
		return nil, apperrors.Transient(err)
	}
	return &u, nil
}
