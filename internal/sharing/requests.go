package sharing

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/shesafe/internal/apperrors"
	"github.com/yourorg/shesafe/internal/events"
	"github.com/yourorg/shesafe/internal/models"
	"github.com/yourorg/shesafe/internal/notify"
	"github.com/yourorg/shesafe/internal/validation"
)

// Store es lo que los engines de sharing necesitan de la persistencia.
// internal/store.Sharing lo implementa sobre MySQL.
type Store interface {
	CreateRequest(r *models.SharingRequest) error
	GetRequest(id string) (*models.SharingRequest, error)
	ListPendingFor(recipientID int64) ([]models.SharingRequest, error)
	Accept(requestID string, recipientID int64, session *models.MutualSession) error
	Decline(requestID string, recipientID int64) error

	GetSession(id string) (*models.MutualSession, error)
	ListActiveFor(userID int64) ([]models.MutualSession, error)
	UpdatePartyALocation(sessionID string, userID int64, fix models.GeoFix, now time.Time) (bool, error)
	UpdatePartyBLocation(sessionID string, userID int64, fix models.GeoFix, now time.Time) (bool, error)
	EndSession(sessionID string, now time.Time) error
}

// Directory resuelve destinatarios por email (colaborador de identidad).
type Directory interface {
	GetByEmail(email string) (*models.User, error)
}

// RequestEngine maneja el handshake solicitud → aceptar/rechazar.
type RequestEngine struct {
	store    Store
	users    Directory
	notifier notify.Emitter
	now      func() time.Time
}

func NewRequestEngine(store Store, users Directory, notifier notify.Emitter) *RequestEngine {
	return &RequestEngine{
		store:    store,
		users:    users,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateRequest crea una solicitud pending de A hacia B. La notificación al
// destinatario es best-effort: si falla, la solicitud ya quedó creada.
func (e *RequestEngine) CreateRequest(sender models.Actor, recipientEmail string, location *models.GeoFix, address string) (*models.SharingRequest, error) {
	if recipientEmail == "" {
		return nil, apperrors.Validation("recipient_email is required")
	}
	if location == nil {
		return nil, apperrors.Validation("sender location is required")
	}
	if err := validation.ValidateCoordinatePair(location.Lat, location.Lng, "location"); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	recipient, err := e.users.GetByEmail(recipientEmail)
	if err != nil {
		return nil, err // NotFound("user") o Transient
	}
	if recipient.ID == sender.ID {
		return nil, apperrors.Validation("cannot request live location sharing with yourself")
	}

	request := &models.SharingRequest{
		ID:             uuid.New().String(),
		SenderID:       sender.ID,
		SenderName:     sender.Name,
		SenderEmail:    sender.Email,
		RecipientID:    recipient.ID,
		RecipientName:  recipient.Name,
		RecipientEmail: recipient.Email,
		SenderLocation: *location,
		SenderAddress:  address,
		Status:         models.RequestStatusPending,
		CreatedAt:      e.now(),
	}

	if err := e.store.CreateRequest(request); err != nil {
		return nil, err
	}

	log.Printf("✅ Solicitud de ubicación creada: %s (%s → %s)", request.ID, sender.Email, recipient.Email)

	if err := e.notifier.Emit(recipient.ID,
		"Live Location Request",
		fmt.Sprintf("%s wants to share live location with you", sender.Name),
		notify.PresetLocation.Category, notify.PresetLocation.Icon,
		map[string]any{"request_id": request.ID, "sender_id": sender.ID},
	); err != nil {
		log.Printf("⚠️ Notificación share_requested falló (solicitud %s): %v", request.ID, err)
	}

	return request, nil
}

// ListPending devuelve las solicitudes pendientes dirigidas al actor,
// más reciente primero.
func (e *RequestEngine) ListPending(actor models.Actor) ([]models.SharingRequest, error) {
	return e.store.ListPendingFor(actor.ID)
}

// Accept resuelve la solicitud y crea la sesión mutua de forma atómica.
// PartyA se siembra con la ubicación del sender guardada en la solicitud;
// PartyB con la que envía quien acepta.
func (e *RequestEngine) Accept(requestID string, acceptor models.Actor, location *models.GeoFix, address string) (string, error) {
	if location == nil {
		return "", apperrors.Validation("acceptor location is required")
	}
	if err := validation.ValidateCoordinatePair(location.Lat, location.Lng, "location"); err != nil {
		return "", apperrors.Validation(err.Error())
	}

	request, err := e.store.GetRequest(requestID)
	if err != nil {
		return "", err
	}
	// Un no-destinatario no debe poder distinguir solicitudes ajenas de inexistentes.
	if request.RecipientID != acceptor.ID {
		return "", apperrors.NotFound("sharing request", requestID)
	}
	if request.Status != models.RequestStatusPending {
		return "", apperrors.AlreadyResolved(requestID)
	}

	now := e.now()
	session := &models.MutualSession{
		ID: uuid.New().String(),
		PartyA: models.SessionParty{
			ID:       request.SenderID,
			Name:     request.SenderName,
			Email:    request.SenderEmail,
			Location: request.SenderLocation,
			Address:  request.SenderAddress,
		},
		PartyB: models.SessionParty{
			ID:       acceptor.ID,
			Name:     acceptor.Name,
			Email:    acceptor.Email,
			Location: *location,
			Address:  address,
		},
		Status:     models.SessionStatusActive,
		CreatedAt:  now,
		LastUpdate: now,
	}

	if err := e.store.Accept(requestID, acceptor.ID, session); err != nil {
		return "", err
	}

	log.Printf("✅ Solicitud %s aceptada → sesión mutua %s", requestID, session.ID)
	events.Publish(events.EventSessionCreated, "mutual", session.ID, acceptor.Name)

	if err := e.notifier.Emit(request.SenderID,
		"Live Location Accepted",
		fmt.Sprintf("%s accepted your live location request", acceptor.Name),
		notify.PresetLocation.Category, notify.PresetLocation.Icon,
		map[string]any{"session_id": session.ID},
	); err != nil {
		log.Printf("⚠️ Notificación share_accepted falló (sesión %s): %v", session.ID, err)
	}

	return session.ID, nil
}

// Decline rechaza la solicitud. Terminal: no crea sesión y un segundo
// accept/decline devuelve AlreadyResolved.
func (e *RequestEngine) Decline(requestID string, acceptor models.Actor) error {
	request, err := e.store.GetRequest(requestID)
	if err != nil {
		return err
	}
	if request.RecipientID != acceptor.ID {
		return apperrors.NotFound("sharing request", requestID)
	}
	if request.Status != models.RequestStatusPending {
		return apperrors.AlreadyResolved(requestID)
	}

	if err := e.store.Decline(requestID, acceptor.ID); err != nil {
		return err
	}

	log.Printf("🚫 Solicitud %s rechazada por user %d", requestID, acceptor.ID)
	return nil
}
