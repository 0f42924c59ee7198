package sharing

import (
	"fmt"
	"log"
	"time"

	"github.com/yourorg/shesafe/internal/apperrors"
	"github.com/yourorg/shesafe/internal/events"
	"github.com/yourorg/shesafe/internal/models"
	"github.com/yourorg/shesafe/internal/notify"
	"github.com/yourorg/shesafe/internal/validation"
)

// SessionEngine maneja las sesiones mutuas activas: listado orientado al
// consultante, fan-out de posición y terminación.
type SessionEngine struct {
	store    Store
	notifier notify.Emitter
	now      func() time.Time
}

func NewSessionEngine(store Store, notifier notify.Emitter) *SessionEngine {
	return &SessionEngine{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// ListActiveFor devuelve las sesiones activas del actor, cada una orientada
// desde su perspectiva: counterparty siempre es el otro lado.
func (e *SessionEngine) ListActiveFor(actor models.Actor) ([]models.ActiveSessionView, error) {
	sessions, err := e.store.ListActiveFor(actor.ID)
	if err != nil {
		return nil, err
	}

	views := []models.ActiveSessionView{}
	for i := range sessions {
		other, ok := sessions[i].OtherParty(actor.ID)
		if !ok {
			continue
		}
		own, _ := sessions[i].OwnParty(actor.ID)
		views = append(views, models.ActiveSessionView{
			SessionID:            sessions[i].ID,
			CounterpartyID:       other.ID,
			CounterpartyName:     other.Name,
			CounterpartyEmail:    other.Email,
			CounterpartyLocation: other.Location,
			CounterpartyAddress:  other.Address,
			MyLocation:           own.Location,
			MyAddress:            own.Address,
			CreatedAt:            sessions[i].CreatedAt,
			LastUpdate:           sessions[i].LastUpdate,
		})
	}
	return views, nil
}

// PushLocation propaga un fix del actor a TODAS sus sesiones activas.
// Cada sesión se actualiza de forma independiente (solo el lado del actor);
// el fallo de una no bloquea a las demás. Devuelve cuántas se actualizaron:
// cero es un resultado válido, no un error.
func (e *SessionEngine) PushLocation(actor models.Actor, fix models.GeoFix) (int, error) {
	if err := validation.ValidateCoordinatePair(fix.Lat, fix.Lng, "location"); err != nil {
		return 0, apperrors.Validation(err.Error())
	}
	if err := validation.ValidateAccuracy(fix.Accuracy); err != nil {
		return 0, apperrors.Validation(err.Error())
	}

	sessions, err := e.store.ListActiveFor(actor.ID)
	if err != nil {
		return 0, err
	}

	now := e.now()
	updated := 0
	for i := range sessions {
		var ok bool
		var err error
		switch actor.ID {
		case sessions[i].PartyA.ID:
			ok, err = e.store.UpdatePartyALocation(sessions[i].ID, actor.ID, fix, now)
		case sessions[i].PartyB.ID:
			ok, err = e.store.UpdatePartyBLocation(sessions[i].ID, actor.ID, fix, now)
		default:
			continue
		}
		if err != nil {
			log.Printf("⚠️ pushLocation: sesión %s no actualizada: %v", sessions[i].ID, err)
			continue
		}
		if ok {
			updated++
		}
	}
	return updated, nil
}

// CounterpartyLocation devuelve la última ubicación del otro participante.
func (e *SessionEngine) CounterpartyLocation(sessionID string, actor models.Actor) (*models.CounterpartyLocationView, error) {
	session, err := e.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	other, ok := session.OtherParty(actor.ID)
	if !ok {
		return nil, apperrors.Forbidden("you are not a participant of this session")
	}

	return &models.CounterpartyLocationView{
		Location:   other.Location,
		Address:    other.Address,
		LastUpdate: session.LastUpdate,
	}, nil
}

// EndSession termina la sesión. Terminal: pushLocation posteriores ya no la
// encuentran entre las activas. Repetir el end de una sesión ya terminada
// es un no-op exitoso (mismo criterio que stopTracking).
func (e *SessionEngine) EndSession(sessionID string, actor models.Actor) error {
	session, err := e.store.GetSession(sessionID)
	if err != nil {
		return err
	}

	other, ok := session.OtherParty(actor.ID)
	if !ok {
		return apperrors.Forbidden("you are not a participant of this session")
	}

	if err := e.store.EndSession(sessionID, e.now()); err != nil {
		return err
	}

	log.Printf("🛑 Sesión mutua %s terminada por user %d", sessionID, actor.ID)
	events.Publish(events.EventSessionEnded, "mutual", sessionID, actor.Name)

	if session.Status == models.SessionStatusActive {
		if err := e.notifier.Emit(other.ID,
			"Live Location Ended",
			fmt.Sprintf("%s stopped sharing live location", actor.Name),
			notify.PresetLocation.Category, notify.PresetLocation.Icon,
			map[string]any{"session_id": sessionID},
		); err != nil {
			log.Printf("⚠️ Notificación share_ended falló (sesión %s): %v", sessionID, err)
		}
	}
	return nil
}
