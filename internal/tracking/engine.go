package tracking

import (
	"fmt"
	"log"
	"time"

	"github.com/yourorg/shesafe/internal/apperrors"
	"github.com/yourorg/shesafe/internal/events"
	"github.com/yourorg/shesafe/internal/models"
	"github.com/yourorg/shesafe/internal/validation"
)

// Store es lo que el engine necesita de la capa de persistencia.
// internal/store.Tracking lo implementa sobre MySQL.
type Store interface {
	Create(t *models.TrackingSession) error
	GetByToken(token string) (*models.TrackingSession, error)
	UpdateLocation(token string, lat, lng float64, address string, now time.Time) error
	MarkExpired(token string) error
	Stop(token string, now time.Time) error
}

// Engine implementa las sesiones de broadcast: un emisor, un token opaco,
// lectores anónimos y expiración perezosa evaluada en cada acceso.
type Engine struct {
	store   Store
	baseURL string
	now     func() time.Time
}

func NewEngine(store Store, baseURL string) *Engine {
	return &Engine{
		store:   store,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// StartTracking crea una sesión nueva con ubicación en cero (el frontend
// envía el primer fix inmediatamente) y devuelve token + URL compartible.
func (e *Engine) StartTracking(owner models.Actor, durationMinutes int) (*models.StartTrackingResponse, error) {
	if owner.ID == 0 || owner.Name == "" || owner.Phone == "" || owner.Email == "" {
		return nil, apperrors.Validation("owner name, phone and email are required to start tracking")
	}
	if durationMinutes == 0 {
		durationMinutes = -1 // sin duración explícita = ilimitado
	}
	if durationMinutes < -1 {
		return nil, apperrors.Validation("duration_minutes must be positive or -1 for unlimited")
	}

	now := e.now()
	session := &models.TrackingSession{
		SessionToken:    NewSessionToken(),
		OwnerID:         owner.ID,
		OwnerName:       owner.Name,
		OwnerPhone:      owner.Phone,
		OwnerEmail:      owner.Email,
		CurrentLocation: models.GeoPoint{Lat: 0, Lng: 0},
		CurrentAddress:  "",
		DurationMinutes: durationMinutes,
		StartTime:       now,
		IsActive:        true,
		LastUpdate:      now,
	}

	if err := e.store.Create(session); err != nil {
		return nil, err
	}

	log.Printf("✅ Sesión de tracking creada: %s (owner=%d, duración=%dm)",
		session.SessionToken, owner.ID, durationMinutes)
	events.Publish(events.EventTrackingStarted, "broadcast", session.SessionToken, owner.Name)

	return &models.StartTrackingResponse{
		Success:      true,
		SessionToken: session.SessionToken,
		TrackingURL:  fmt.Sprintf("%s/api/location/track/%s", e.baseURL, session.SessionToken),
		Message:      "Live tracking started successfully",
	}, nil
}

// UpdateLocation avanza la posición de la sesión. La expiración se evalúa
// ANTES de aplicar: si el reloj ya la venció, persistimos el flip y la
// actualización se rechaza sin tocar la ubicación.
func (e *Engine) UpdateLocation(token string, lat, lng float64, address string) error {
	if token == "" {
		return apperrors.Validation("session_token is required")
	}
	if err := validation.ValidateCoordinatePair(lat, lng, "location"); err != nil {
		return apperrors.Validation(err.Error())
	}

	session, err := e.store.GetByToken(token)
	if err != nil {
		return err
	}

	now := e.now()
	switch deriveState(session, now) {
	case stateExpired:
		if err := e.store.MarkExpired(token); err != nil {
			log.Printf("⚠️ No se pudo persistir expiración de %s: %v", token, err)
		}
		events.Publish(events.EventTrackingExpired, "broadcast", token, session.OwnerName)
		return apperrors.SessionExpired()
	case stateEnded:
		return apperrors.SessionEnded()
	}

	return e.store.UpdateLocation(token, lat, lng, address, now)
}

// GetLocation devuelve la vista pública para cualquier portador del token.
// Mismo chequeo de expiración que la escritura: ningún lector puede observar
// una sesión vencida como activa.
func (e *Engine) GetLocation(token string) (*models.TrackingLocationView, error) {
	session, err := e.store.GetByToken(token)
	if err != nil {
		return nil, err
	}

	switch deriveState(session, e.now()) {
	case stateExpired:
		if err := e.store.MarkExpired(token); err != nil {
			log.Printf("⚠️ No se pudo persistir expiración de %s: %v", token, err)
		}
		events.Publish(events.EventTrackingExpired, "broadcast", token, session.OwnerName)
		return nil, apperrors.SessionExpired()
	case stateEnded:
		return nil, apperrors.SessionEnded()
	}

	return &models.TrackingLocationView{
		Location:   session.CurrentLocation,
		Address:    session.CurrentAddress,
		OwnerName:  session.OwnerName,
		OwnerPhone: session.OwnerPhone,
		OwnerEmail: session.OwnerEmail,
		LastUpdate: session.LastUpdate,
	}, nil
}

// StopTracking termina la sesión sin importar su estado actual. Idempotente:
// el segundo stop no falla ni mueve end_time (NotFound solo si el token no existe).
func (e *Engine) StopTracking(token string) error {
	session, err := e.store.GetByToken(token)
	if err != nil {
		return err
	}

	if err := e.store.Stop(token, e.now()); err != nil {
		return err
	}

	log.Printf("🛑 Tracking detenido: %s", token)
	events.Publish(events.EventTrackingStopped, "broadcast", token, session.OwnerName)
	return nil
}

// GetSession expone el registro completo al dueño (página de tracking).
func (e *Engine) GetSession(token string) (*models.TrackingSession, error) {
	return e.store.GetByToken(token)
}
