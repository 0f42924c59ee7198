package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// Connect returns a MariaDB connection using env vars.
func Connect() (*sql.DB, error) {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3306"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4,utf8", user, pass, host, port, name)
	return sql.Open("mysql", dsn)
}

// EnsureSchema creates required tables if not exist.
func EnsureSchema(db *sql.DB) error {
	if skip := strings.TrimSpace(os.Getenv("DB_SKIP_SCHEMA")); strings.EqualFold(skip, "true") || skip == "1" {
		log.Printf("EnsureSchema: skipped (DB_SKIP_SCHEMA=%q)", skip)
		return nil
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(100) NOT NULL,
			phone VARCHAR(30) NOT NULL DEFAULT '',
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	// El token es la clave primaria: se comparte como URL y funciona como
	// credencial de lectura, por eso debe ser impredecible (128 bits random).
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tracking_sessions (
			session_token VARCHAR(64) PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			owner_name VARCHAR(100) NOT NULL,
			owner_phone VARCHAR(30) NOT NULL,
			owner_email VARCHAR(255) NOT NULL,
			current_lat DOUBLE NOT NULL DEFAULT 0,
			current_lng DOUBLE NOT NULL DEFAULT 0,
			current_address VARCHAR(500) NOT NULL DEFAULT '',
			duration_minutes INT NOT NULL DEFAULT -1,
			start_time TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			end_time TIMESTAMP NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_update TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sharing_requests (
			id VARCHAR(36) PRIMARY KEY,
			sender_id BIGINT NOT NULL,
			sender_name VARCHAR(100) NOT NULL,
			sender_email VARCHAR(255) NOT NULL,
			recipient_id BIGINT NOT NULL,
			recipient_name VARCHAR(100) NOT NULL,
			recipient_email VARCHAR(255) NOT NULL,
			sender_lat DOUBLE NOT NULL,
			sender_lng DOUBLE NOT NULL,
			sender_accuracy DOUBLE NOT NULL DEFAULT 0,
			sender_address VARCHAR(500) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (sender_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (recipient_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	// Las ubicaciones de cada lado viven en columnas separadas para que dos
	// pushLocation simultáneos (uno por lado) nunca se pisen entre sí.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS mutual_sessions (
			id VARCHAR(36) PRIMARY KEY,
			party_a_id BIGINT NOT NULL,
			party_a_name VARCHAR(100) NOT NULL,
			party_a_email VARCHAR(255) NOT NULL,
			party_a_lat DOUBLE NOT NULL DEFAULT 0,
			party_a_lng DOUBLE NOT NULL DEFAULT 0,
			party_a_accuracy DOUBLE NOT NULL DEFAULT 0,
			party_a_address VARCHAR(500) NOT NULL DEFAULT '',
			party_b_id BIGINT NOT NULL,
			party_b_name VARCHAR(100) NOT NULL,
			party_b_email VARCHAR(255) NOT NULL,
			party_b_lat DOUBLE NOT NULL DEFAULT 0,
			party_b_lng DOUBLE NOT NULL DEFAULT 0,
			party_b_accuracy DOUBLE NOT NULL DEFAULT 0,
			party_b_address VARCHAR(500) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at TIMESTAMP NULL,
			last_update TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (party_a_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (party_b_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS notifications (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			title VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			category VARCHAR(32) NOT NULL DEFAULT 'general',
			icon VARCHAR(16) NOT NULL DEFAULT '🔔',
			data TEXT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			read_at TIMESTAMP NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`); err != nil {
		return err
	}

	for _, idx := range []string{
		`CREATE INDEX idx_sharing_requests_recipient ON sharing_requests(recipient_id, status, created_at)`,
		`CREATE INDEX idx_mutual_sessions_party_a ON mutual_sessions(party_a_id, status)`,
		`CREATE INDEX idx_mutual_sessions_party_b ON mutual_sessions(party_b_id, status)`,
		`CREATE INDEX idx_notifications_user ON notifications(user_id, created_at)`,
		`CREATE INDEX idx_notifications_unread ON notifications(user_id, is_read)`,
	} {
		if _, err := db.Exec(idx); err != nil {
			errMsg := strings.ToLower(err.Error())
			if strings.Contains(errMsg, "duplicate") {
				// index already exists, nothing to do
			} else if strings.Contains(errMsg, "permission denied") {
				log.Printf("EnsureSchema: unable to create index (permission denied): %v", err)
			} else {
				return err
			}
		}
	}

	return nil
}
