package models

import "time"

// Estados de una solicitud de ubicación en vivo.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusDeclined = "declined"
)

// Estados de una sesión mutua.
const (
	SessionStatusActive = "active"
	SessionStatusEnded  = "ended"
)

// SharingRequest es el handshake previo a una sesión mutua: A lo crea,
// B lo acepta o rechaza. Una vez resuelto es inmutable.
type SharingRequest struct {
	ID             string    `json:"id" db:"id"`
	SenderID       int64     `json:"sender_id" db:"sender_id"`
	SenderName     string    `json:"sender_name" db:"sender_name"`
	SenderEmail    string    `json:"sender_email" db:"sender_email"`
	RecipientID    int64     `json:"recipient_id" db:"recipient_id"`
	RecipientName  string    `json:"recipient_name" db:"recipient_name"`
	RecipientEmail string    `json:"recipient_email" db:"recipient_email"`
	SenderLocation GeoFix    `json:"sender_location"`
	SenderAddress  string    `json:"sender_address" db:"sender_address"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// SessionParty es uno de los dos lados de una sesión mutua.
type SessionParty struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location GeoFix `json:"location"`
	Address  string `json:"address"`
}

// MutualSession es una sesión bidireccional entre dos usuarios conocidos.
// Cada lado solo puede escribir su propia ubicación.
type MutualSession struct {
	ID         string       `json:"id" db:"id"`
	PartyA     SessionParty `json:"party_a"`
	PartyB     SessionParty `json:"party_b"`
	Status     string       `json:"status" db:"status"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	EndedAt    *time.Time   `json:"ended_at,omitempty" db:"ended_at"`
	LastUpdate time.Time    `json:"last_update" db:"last_update"`
}

// OtherParty devuelve el lado contrario al usuario dado.
// El bool indica si el usuario participa en la sesión.
func (s *MutualSession) OtherParty(userID int64) (SessionParty, bool) {
	switch userID {
	case s.PartyA.ID:
		return s.PartyB, true
	case s.PartyB.ID:
		return s.PartyA, true
	default:
		return SessionParty{}, false
	}
}

// OwnParty devuelve el lado del usuario dado.
func (s *MutualSession) OwnParty(userID int64) (SessionParty, bool) {
	switch userID {
	case s.PartyA.ID:
		return s.PartyA, true
	case s.PartyB.ID:
		return s.PartyB, true
	default:
		return SessionParty{}, false
	}
}

// CreateSharingRequest es el body de POST /api/live/requests
type CreateSharingRequest struct {
	RecipientEmail string  `json:"recipient_email"`
	Location       *GeoFix `json:"location"`
	Address        string  `json:"address,omitempty"`
}

// AcceptSharingRequest es el body de POST /api/live/requests/:id/accept
type AcceptSharingRequest struct {
	Location *GeoFix `json:"location"`
	Address  string  `json:"address,omitempty"`
}

// PushLocationRequest es el body de POST /api/live/sessions/location
type PushLocationRequest struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
}

// ActiveSessionView es una sesión mutua orientada desde la perspectiva
// del usuario que consulta: "counterparty" siempre es el otro lado.
type ActiveSessionView struct {
	SessionID            string    `json:"session_id"`
	CounterpartyID       int64     `json:"counterparty_id"`
	CounterpartyName     string    `json:"counterparty_name"`
	CounterpartyEmail    string    `json:"counterparty_email"`
	CounterpartyLocation GeoFix    `json:"counterparty_location"`
	CounterpartyAddress  string    `json:"counterparty_address"`
	MyLocation           GeoFix    `json:"my_location"`
	MyAddress            string    `json:"my_address"`
	CreatedAt            time.Time `json:"created_at"`
	LastUpdate           time.Time `json:"last_update"`
}

// CounterpartyLocationView es la respuesta de GET /api/live/sessions/:id/location
type CounterpartyLocationView struct {
	Location   GeoFix    `json:"location"`
	Address    string    `json:"address"`
	LastUpdate time.Time `json:"last_update"`
}
