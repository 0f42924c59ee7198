package models

import "time"

// TrackingSession representa una sesión de broadcast: un emisor, N lectores
// que conocen el token. El token es la credencial de acceso (no hay handshake).
type TrackingSession struct {
	SessionToken    string     `json:"session_token" db:"session_token"`
	OwnerID         int64      `json:"owner_id" db:"owner_id"`
	OwnerName       string     `json:"owner_name" db:"owner_name"`
	OwnerPhone      string     `json:"owner_phone" db:"owner_phone"`
	OwnerEmail      string     `json:"owner_email" db:"owner_email"`
	CurrentLocation GeoPoint   `json:"current_location"`
	CurrentAddress  string     `json:"current_address" db:"current_address"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"` // -1 = ilimitado
	StartTime       time.Time  `json:"start_time" db:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty" db:"end_time"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	LastUpdate      time.Time  `json:"last_update" db:"last_update"`
}

// StartTrackingRequest es el body de POST /api/location/start-tracking
// Phone permite sobreescribir el teléfono del perfil para esta sesión.
type StartTrackingRequest struct {
	DurationMinutes int    `json:"duration_minutes"`
	Phone           string `json:"phone,omitempty"`
}

// StartTrackingResponse devuelve el token y la URL compartible.
type StartTrackingResponse struct {
	Success      bool   `json:"success"`
	SessionToken string `json:"session_token"`
	TrackingURL  string `json:"tracking_url"`
	Message      string `json:"message,omitempty"`
}

// UpdateTrackingRequest es el body de POST /api/location/update-tracking
type UpdateTrackingRequest struct {
	SessionToken string  `json:"session_token"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Address      string  `json:"address,omitempty"`
}

// StopTrackingRequest es el body de POST /api/location/stop-tracking
type StopTrackingRequest struct {
	SessionToken string `json:"session_token"`
}

// TrackingLocationView es la vista pública de una sesión de broadcast
// para cualquier portador del token.
type TrackingLocationView struct {
	Location   GeoPoint  `json:"location"`
	Address    string    `json:"address"`
	OwnerName  string    `json:"owner_name"`
	OwnerPhone string    `json:"owner_phone"`
	OwnerEmail string    `json:"owner_email"`
	LastUpdate time.Time `json:"last_update"`
}
