package sharing

import (
	"errors"
	"testing"
	"time"

	"github.com/yourorg/shesafe/internal/apperrors"
	"github.com/yourorg/shesafe/internal/models"
	"github.com/yourorg/shesafe/internal/notify"
)

// fakeSharingStore replica la semántica condicional del store MySQL:
// accept/decline solo resuelven solicitudes pending, y los updates de
// ubicación solo tocan el lado indicado de sesiones activas.
type fakeSharingStore struct {
	requests map[string]*models.SharingRequest
	sessions map[string]*models.MutualSession

	// forzar fallos por sesión para probar aislamiento del fan-out
	failUpdates map[string]bool
}

func newFakeSharingStore() *fakeSharingStore {
	return &fakeSharingStore{
		requests:    make(map[string]*models.SharingRequest),
		sessions:    make(map[string]*models.MutualSession),
		failUpdates: make(map[string]bool),
	}
}

func (f *fakeSharingStore) CreateRequest(r *models.SharingRequest) error {
	cp := *r
	f.requests[r.ID] = &cp
	return nil
}

func (f *fakeSharingStore) GetRequest(id string) (*models.SharingRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, apperrors.NotFound("sharing request", id)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeSharingStore) ListPendingFor(recipientID int64) ([]models.SharingRequest, error) {
	out := []models.SharingRequest{}
	for _, r := range f.requests {
		if r.RecipientID == recipientID && r.Status == models.RequestStatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeSharingStore) Accept(requestID string, recipientID int64, session *models.MutualSession) error {
	r, ok := f.requests[requestID]
	if !ok || r.RecipientID != recipientID || r.Status != models.RequestStatusPending {
		return apperrors.AlreadyResolved(requestID)
	}
	r.Status = models.RequestStatusAccepted
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *fakeSharingStore) Decline(requestID string, recipientID int64) error {
	r, ok := f.requests[requestID]
	if !ok || r.RecipientID != recipientID || r.Status != models.RequestStatusPending {
		return apperrors.AlreadyResolved(requestID)
	}
	r.Status = models.RequestStatusDeclined
	return nil
}

func (f *fakeSharingStore) GetSession(id string) (*models.MutualSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperrors.NotFound("session", id)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSharingStore) ListActiveFor(userID int64) ([]models.MutualSession, error) {
	out := []models.MutualSession{}
	for _, s := range f.sessions {
		if s.Status != models.SessionStatusActive {
			continue
		}
		if s.PartyA.ID == userID || s.PartyB.ID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSharingStore) UpdatePartyALocation(sessionID string, userID int64, fix models.GeoFix, now time.Time) (bool, error) {
	if f.failUpdates[sessionID] {
		return false, errors.New("simulated db failure")
	}
	s, ok := f.sessions[sessionID]
	if !ok || s.Status != models.SessionStatusActive || s.PartyA.ID != userID {
		return false, nil
	}
	s.PartyA.Location = fix
	s.LastUpdate = now
	return true, nil
}

func (f *fakeSharingStore) UpdatePartyBLocation(sessionID string, userID int64, fix models.GeoFix, now time.Time) (bool, error) {
	if f.failUpdates[sessionID] {
		return false, errors.New("simulated db failure")
	}
	s, ok := f.sessions[sessionID]
	if !ok || s.Status != models.SessionStatusActive || s.PartyB.ID != userID {
		return false, nil
	}
	s.PartyB.Location = fix
	s.LastUpdate = now
	return true, nil
}

func (f *fakeSharingStore) EndSession(sessionID string, now time.Time) error {
	s, ok := f.sessions[sessionID]
	if !ok {
		return apperrors.NotFound("session", sessionID)
	}
	if s.Status == models.SessionStatusActive {
		s.Status = models.SessionStatusEnded
		end := now
		s.EndedAt = &end
	}
	return nil
}

// fakeDirectory resuelve usuarios por email.
type fakeDirectory struct {
	byEmail map[string]*models.User
}

func (f *fakeDirectory) GetByEmail(email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperrors.NotFound("user", email)
	}
	return u, nil
}

// captureEmitter registra las notificaciones emitidas.
type captureEmitter struct {
	emitted []int64 // user ids notificados, en orden
	fail    bool
}

func (c *captureEmitter) Emit(userID int64, title, message, category, icon string, data map[string]any) error {
	if c.fail {
		return errors.New("notification backend down")
	}
	c.emitted = append(c.emitted, userID)
	return nil
}

var (
	ana  = models.Actor{ID: 1, Name: "Ana", Email: "ana@example.com"}
	bea  = models.Actor{ID: 2, Name: "Bea", Email: "bea@example.com"}
	cris = models.Actor{ID: 3, Name: "Cris", Email: "cris@example.com"}

	santiagoFix = models.GeoFix{Lat: -33.4489, Lng: -70.6693, Accuracy: 10}
)

func directoryWithUsers() *fakeDirectory {
	return &fakeDirectory{byEmail: map[string]*models.User{
		"ana@example.com": {ID: 1, Name: "Ana", Email: "ana@example.com"},
		"bea@example.com": {ID: 2, Name: "Bea", Email: "bea@example.com"},
	}}
}

func TestCreateRequestNotifiesRecipient(t *testing.T) {
	store := newFakeSharingStore()
	emitter := &captureEmitter{}
	engine := NewRequestEngine(store, directoryWithUsers(), emitter)

	req, err := engine.CreateRequest(ana, "bea@example.com", &santiagoFix, "Plaza de Armas")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.Status != models.RequestStatusPending {
		t.Errorf("new request should be pending, got %q", req.Status)
	}
	if req.SenderID != ana.ID || req.RecipientID != bea.ID {
		t.Errorf("wrong parties: %+v", req)
	}
	if len(emitter.emitted) != 1 || emitter.emitted[0] != bea.ID {
		t.Errorf("expected one notification to recipient, got %v", emitter.emitted)
	}
}

func TestCreateRequestSurvivesNotificationFailure(t *testing.T) {
	store := newFakeSharingStore()
	engine := NewRequestEngine(store, directoryWithUsers(), &captureEmitter{fail: true})

	req, err := engine.CreateRequest(ana, "bea@example.com", &santiagoFix, "")
	if err != nil {
		t.Fatalf("notification failure must not fail the request: %v", err)
	}
	if _, ok := store.requests[req.ID]; !ok {
		t.Error("request should be persisted despite notification failure")
	}
}

func TestCreateRequestValidations(t *testing.T) {
	engine := NewRequestEngine(newFakeSharingStore(), directoryWithUsers(), notify.Discard{})

	if _, err := engine.CreateRequest(ana, "", &santiagoFix, ""); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("empty email: expected validation error, got %v", err)
	}
	if _, err := engine.CreateRequest(ana, "bea@example.com", nil, ""); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("nil location: expected validation error, got %v", err)
	}
	if _, err := engine.CreateRequest(ana, "ana@example.com", &santiagoFix, ""); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("self-share: expected validation error, got %v", err)
	}
	if _, err := engine.CreateRequest(ana, "nadie@example.com", &santiagoFix, ""); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("unknown recipient: expected not_found, got %v", err)
	}
	bad := models.GeoFix{Lat: 99, Lng: 0}
	if _, err := engine.CreateRequest(ana, "bea@example.com", &bad, ""); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("bad coords: expected validation error, got %v", err)
	}
}

func TestAcceptCreatesSeededSession(t *testing.T) {
	store := newFakeSharingStore()
	emitter := &captureEmitter{}
	engine := NewRequestEngine(store, directoryWithUsers(), emitter)

	req, _ := engine.CreateRequest(ana, "bea@example.com", &santiagoFix, "Plaza de Armas")

	beaFix := models.GeoFix{Lat: -33.42, Lng: -70.61, Accuracy: 5}
	sessionID, err := engine.Accept(req.ID, bea, &beaFix, "Costanera Center")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	session, ok := store.sessions[sessionID]
	if !ok {
		t.Fatal("session not created")
	}
	if session.Status != models.SessionStatusActive {
		t.Errorf("new session should be active, got %q", session.Status)
	}
	// PartyA arranca con la ubicación que el sender dejó en la solicitud
	if session.PartyA.ID != ana.ID || session.PartyA.Location != santiagoFix {
		t.Errorf("party A not seeded from request: %+v", session.PartyA)
	}
	if session.PartyB.ID != bea.ID || session.PartyB.Location != beaFix {
		t.Errorf("party B not seeded from acceptor: %+v", session.PartyB)
	}
	if store.requests[req.ID].Status != models.RequestStatusAccepted {
		t.Error("request should be marked accepted")
	}
	// Notificación de creación (a Bea) + de aceptación (a Ana)
	if len(emitter.emitted) != 2 || emitter.emitted[1] != ana.ID {
		t.Errorf("expected acceptance notification to sender, got %v", emitter.emitted)
	}
}

func TestAcceptIsSingleShot(t *testing.T) {
	store := newFakeSharingStore()
	engine := NewRequestEngine(store, directoryWithUsers(), notify.Discard{})

	req, _ := engine.CreateRequest(ana, "bea@example.com", &santiagoFix, "")
	if _, err := engine.Accept(req.ID, bea, &santiagoFix, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := engine.Accept(req.ID, bea, &santiagoFix, ""); apperrors.KindOf(err) != apperrors.KindAlreadyResolved {
		t.Errorf("second accept: expected already_resolved, got %v", err)
	}
	if err := engine.Decline(req.ID, bea); apperrors.KindOf(err) != apperrors.KindAlreadyResolved {
		t.Errorf("decline after accept: expected already_resolved, got %v", err)
	}
	if len(store.sessions) != 1 {
		t.Errorf("expected exactly one session, got %d", len(store.sessions))
	}
}

func TestAcceptByWrongRecipientLooksLikeNotFound(t *testing.T) {
	engine := NewRequestEngine(newFakeSharingStore(), directoryWithUsers(), notify.Discard{})

	req, _ := engine.CreateRequest(ana, "bea@example.com", &santiagoFix, "")

	if _, err := engine.Accept(req.ID, cris, &santiagoFix, ""); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("expected not_found for non-recipient, got %v", err)
	}
	if err := engine.Decline(req.ID, cris); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("expected not_found for non-recipient decline, got %v", err)
	}
}

func TestDeclineIsTerminal(t *testing.T) {
	store := newFakeSharingStore()
	engine := NewRequestEngine(store, directoryWithUsers(), notify.Discard{})

	req, _ := engine.CreateRequest(ana, "bea@example.com", &santiagoFix, "")
	if err := engine.Decline(req.ID, bea); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	if _, err := engine.Accept(req.ID, bea, &santiagoFix, ""); apperrors.KindOf(err) != apperrors.KindAlreadyResolved {
		t.Errorf("accept after decline: expected already_resolved, got %v", err)
	}
	if len(store.sessions) != 0 {
		t.Error("declined request must not create a session")
	}
}

// createSession arma una sesión activa directamente en el fake store.
func createSession(store *fakeSharingStore, id string, a, b models.Actor) {
	store.sessions[id] = &models.MutualSession{
		ID:         id,
		PartyA:     models.SessionParty{ID: a.ID, Name: a.Name, Email: a.Email},
		PartyB:     models.SessionParty{ID: b.ID, Name: b.Name, Email: b.Email},
		Status:     models.SessionStatusActive,
		CreatedAt:  time.Now(),
		LastUpdate: time.Now(),
	}
}

func TestPushLocationFansOutToAllSessions(t *testing.T) {
	store := newFakeSharingStore()
	engine := NewSessionEngine(store, notify.Discard{})

	createSession(store, "s1", ana, bea)
	createSession(store, "s2", cris, ana) // Ana es party B acá

	updated, err := engine.PushLocation(ana, santiagoFix)
	if err != nil {
		t.Fatalf("PushLocation: %v", err)
	}
	if updated != 2 {
		t.Errorf("expected 2 sessions updated, got %d", updated)
	}
	if store.sessions["s1"].PartyA.Location != santiagoFix {
		t.Error("s1: Ana's side not updated")
	}
	if store.sessions["s2"].PartyB.Location != santiagoFix {
		t.Error("s2: Ana's side not updated")
	}
	// El otro lado nunca se toca
	if store.sessions["s1"].PartyB.Location != (models.GeoFix{}) {
		t.Error("s1: counterparty side must not change")
	}
}

func TestPushLocationFailureDoesNotBlockOtherSessions(t *testing.T) {
	store := newFakeSharingStore()
	engine := NewSessionEngine(store, notify.Discard{})

	createSession(store, "s1", ana, bea)
	createSession(store, "s2", ana, cris)
	store.failUpdates["s1"] = true

	updated, err := engine.PushLocation(ana, santiagoFix)
	if err != nil {
		t.Fatalf("partial failure must not fail the push: %v", err)
	}
	if updated != 1 {
		t.Errorf("expected 1 session updated, got %d", updated)
	}
	if store.sessions["s2"].PartyA.Location != santiagoFix {
		t.Error("s2 should have been updated despite s1 failing")
	}
}

func TestPushLocationWithNoSessionsIsZero(t *testing.T) {
	engine := NewSessionEngine(newFakeSharingStore(), notify.Discard{})

	updated, err := engine.PushLocation(ana, santiagoFix)
	if err != nil {
		t.Fatalf("zero sessions is a valid result: %v", err)
	}
	if updated != 0 {
		t.Errorf("expected 0, got %d", updated)
	}
}

func TestPushLocationValidatesFix(t *testing.T) {
	engine := NewSessionEngine(newFakeSharingStore(), notify.Discard{})

	if _, err := engine.PushLocation(ana, models.GeoFix{Lat: 91}); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := engine.PushLocation(ana, models.GeoFix{Lat: 0, Lng: 0, Accuracy: -1}); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("negative accuracy: expected validation error, got %v", err)
	}
}

func TestCounterpartyLocationOrientation(t *testing.T) {
	store := newFakeSharingStore()
	engine := NewSessionEngine(store, notify.Discard{})

	createSession(store, "s1", ana, bea)
	store.sessions["s1"].PartyB.Location = models.GeoFix{Lat: -33.42, Lng: -70.61}
	store.sessions["s1"].PartyB.Address = "Costanera Center"

	view, err := engine.CounterpartyLocation("s1", ana)
	if err != nil {
		t.Fatalf("CounterpartyLocation: %v", err)
	}
	if view.Location.Lat != -33.42 || view.Address != "Costanera Center" {
		t.Errorf("Ana should see Bea's side, got %+v", view)
	}

	// Un tercero no participa: forbidden
	if _, err := engine.CounterpartyLocation("s1", cris); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("expected forbidden for outsider, got %v", err)
	}
}

func TestEndSessionNotifiesOtherPartyOnce(t *testing.T) {
	store := newFakeSharingStore()
	emitter := &captureEmitter{}
	engine := NewSessionEngine(store, emitter)

	createSession(store, "s1", ana, bea)

	if err := engine.EndSession("s1", ana); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if store.sessions["s1"].Status != models.SessionStatusEnded {
		t.Error("session should be ended")
	}
	if len(emitter.emitted) != 1 || emitter.emitted[0] != bea.ID {
		t.Errorf("expected one notification to counterparty, got %v", emitter.emitted)
	}

	// Repetir el end es no-op exitoso y no re-notifica
	if err := engine.EndSession("s1", bea); err != nil {
		t.Fatalf("repeat end should succeed: %v", err)
	}
	if len(emitter.emitted) != 1 {
		t.Errorf("repeat end must not notify again, got %v", emitter.emitted)
	}
}

func TestEndSessionForbiddenForOutsider(t *testing.T) {
	store := newFakeSharingStore()
	engine := NewSessionEngine(store, notify.Discard{})

	createSession(store, "s1", ana, bea)

	if err := engine.EndSession("s1", cris); apperrors.KindOf(err) != apperrors.KindForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
	if store.sessions["s1"].Status != models.SessionStatusActive {
		t.Error("outsider must not be able to end the session")
	}
}

func TestEndedSessionLeavesFanOut(t *testing.T) {
	store := newFakeSharingStore()
	engine := NewSessionEngine(store, notify.Discard{})

	createSession(store, "s1", ana, bea)
	createSession(store, "s2", ana, cris)

	if err := engine.EndSession("s1", ana); err != nil {
		t.Fatal(err)
	}

	updated, err := engine.PushLocation(ana, santiagoFix)
	if err != nil {
		t.Fatal(err)
	}
	if updated != 1 {
		t.Errorf("ended session must leave the fan-out set, got %d updates", updated)
	}
}

func TestListActiveForOrientsViews(t *testing.T) {
	store := newFakeSharingStore()
	engine := NewSessionEngine(store, notify.Discard{})

	createSession(store, "s1", ana, bea)
	store.sessions["s1"].PartyA.Location = santiagoFix

	views, err := engine.ListActiveFor(bea)
	if err != nil {
		t.Fatalf("ListActiveFor: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].CounterpartyID != ana.ID || views[0].CounterpartyName != "Ana" {
		t.Errorf("view should be oriented from Bea's perspective: %+v", views[0])
	}
	if views[0].CounterpartyLocation != santiagoFix {
		t.Errorf("counterparty location should be Ana's: %+v", views[0].CounterpartyLocation)
	}
}
