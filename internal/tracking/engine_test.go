package tracking

import (
	"testing"
	"time"

	"github.com/yourorg/shesafe/internal/apperrors"
	"github.com/yourorg/shesafe/internal/models"
)

// fakeStore guarda sesiones en memoria y cuenta los flips persistidos.
type fakeStore struct {
	sessions    map[string]*models.TrackingSession
	markExpired int
	stops       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*models.TrackingSession)}
}

func (f *fakeStore) Create(t *models.TrackingSession) error {
	cp := *t
	f.sessions[t.SessionToken] = &cp
	return nil
}

func (f *fakeStore) GetByToken(token string) (*models.TrackingSession, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, apperrors.NotFound("tracking session", token)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) UpdateLocation(token string, lat, lng float64, address string, now time.Time) error {
	s, ok := f.sessions[token]
	if !ok || !s.IsActive {
		return apperrors.SessionEnded()
	}
	s.CurrentLocation = models.GeoPoint{Lat: lat, Lng: lng}
	if address != "" {
		s.CurrentAddress = address
	}
	s.LastUpdate = now
	return nil
}

func (f *fakeStore) MarkExpired(token string) error {
	f.markExpired++
	if s, ok := f.sessions[token]; ok {
		s.IsActive = false
	}
	return nil
}

func (f *fakeStore) Stop(token string, now time.Time) error {
	f.stops++
	s, ok := f.sessions[token]
	if !ok {
		return apperrors.NotFound("tracking session", token)
	}
	s.IsActive = false
	if s.EndTime == nil {
		end := now
		s.EndTime = &end
	}
	return nil
}

func newTestEngine(store Store) *Engine {
	return NewEngine(store, "http://localhost:8080")
}

func testOwner() models.Actor {
	return models.Actor{ID: 7, Name: "Carla", Email: "carla@example.com", Phone: "+56911111111"}
}

func TestStartTrackingGeneratesTokenAndURL(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	resp, err := engine.StartTracking(testOwner(), 60)
	if err != nil {
		t.Fatalf("StartTracking: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if len(resp.SessionToken) != 32 {
		t.Errorf("expected 32-char hex token, got %q", resp.SessionToken)
	}
	if resp.TrackingURL != "http://localhost:8080/api/location/track/"+resp.SessionToken {
		t.Errorf("unexpected tracking URL: %s", resp.TrackingURL)
	}

	session, ok := store.sessions[resp.SessionToken]
	if !ok {
		t.Fatal("session not persisted")
	}
	if !session.IsActive {
		t.Error("new session should be active")
	}
	if session.CurrentLocation.Lat != 0 || session.CurrentLocation.Lng != 0 {
		t.Error("new session should start at (0,0)")
	}
}

func TestStartTrackingDefaultsToUnlimited(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	resp, err := engine.StartTracking(testOwner(), 0)
	if err != nil {
		t.Fatalf("StartTracking: %v", err)
	}
	if got := store.sessions[resp.SessionToken].DurationMinutes; got != -1 {
		t.Errorf("duration 0 should become -1, got %d", got)
	}
}

func TestStartTrackingRejectsIncompleteOwner(t *testing.T) {
	engine := newTestEngine(newFakeStore())

	owner := testOwner()
	owner.Phone = ""
	if _, err := engine.StartTracking(owner, 60); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}

	if _, err := engine.StartTracking(testOwner(), -5); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("expected validation error for negative duration, got %v", err)
	}
}

func TestUpdateLocationRoundTrip(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	resp, _ := engine.StartTracking(testOwner(), 60)

	if err := engine.UpdateLocation(resp.SessionToken, -33.45, -70.66, "Av. Providencia 123"); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}

	view, err := engine.GetLocation(resp.SessionToken)
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if view.Location.Lat != -33.45 || view.Location.Lng != -70.66 {
		t.Errorf("unexpected location: %+v", view.Location)
	}
	if view.Address != "Av. Providencia 123" {
		t.Errorf("unexpected address: %q", view.Address)
	}
	if view.OwnerName != "Carla" {
		t.Errorf("unexpected owner: %q", view.OwnerName)
	}
}

func TestUpdateLocationRejectsBadCoordinates(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)
	resp, _ := engine.StartTracking(testOwner(), 60)

	cases := []struct{ lat, lng float64 }{
		{91, 0},
		{-91, 0},
		{0, 181},
		{0, -181},
	}
	for _, tc := range cases {
		err := engine.UpdateLocation(resp.SessionToken, tc.lat, tc.lng, "")
		if apperrors.KindOf(err) != apperrors.KindValidation {
			t.Errorf("(%v,%v): expected validation error, got %v", tc.lat, tc.lng, err)
		}
	}
}

func TestUpdateLocationUnknownToken(t *testing.T) {
	engine := newTestEngine(newFakeStore())
	err := engine.UpdateLocation("deadbeefdeadbeefdeadbeefdeadbeef", -33.45, -70.66, "")
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestLazyExpiryOnUpdate(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	resp, _ := engine.StartTracking(testOwner(), 30)

	// Avanzar el reloj más allá de la duración
	engine.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	err := engine.UpdateLocation(resp.SessionToken, -33.45, -70.66, "")
	if apperrors.KindOf(err) != apperrors.KindSessionExpired {
		t.Fatalf("expected session_expired, got %v", err)
	}
	if store.markExpired != 1 {
		t.Errorf("expected expiry flip persisted once, got %d", store.markExpired)
	}
	// La ubicación no debe haberse movido
	if got := store.sessions[resp.SessionToken].CurrentLocation; got.Lat != 0 || got.Lng != 0 {
		t.Errorf("expired update must not touch location, got %+v", got)
	}
}

func TestLazyExpiryOnRead(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	resp, _ := engine.StartTracking(testOwner(), 30)
	engine.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	if _, err := engine.GetLocation(resp.SessionToken); apperrors.KindOf(err) != apperrors.KindSessionExpired {
		t.Errorf("expected session_expired, got %v", err)
	}
	if store.markExpired != 1 {
		t.Errorf("expected expiry flip persisted once, got %d", store.markExpired)
	}
}

func TestUnlimitedSessionNeverExpires(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	resp, _ := engine.StartTracking(testOwner(), -1)
	engine.now = func() time.Time { return time.Now().Add(365 * 24 * time.Hour) }

	if err := engine.UpdateLocation(resp.SessionToken, -33.45, -70.66, ""); err != nil {
		t.Fatalf("unlimited session should accept updates: %v", err)
	}
	if store.markExpired != 0 {
		t.Errorf("unlimited session must never flip to expired, got %d flips", store.markExpired)
	}
}

func TestStopTrackingIsIdempotent(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	resp, _ := engine.StartTracking(testOwner(), 60)

	if err := engine.StopTracking(resp.SessionToken); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	firstEnd := *store.sessions[resp.SessionToken].EndTime

	if err := engine.StopTracking(resp.SessionToken); err != nil {
		t.Fatalf("second stop should succeed: %v", err)
	}
	if got := *store.sessions[resp.SessionToken].EndTime; !got.Equal(firstEnd) {
		t.Error("second stop must not move end_time")
	}
}

func TestStopTrackingUnknownToken(t *testing.T) {
	engine := newTestEngine(newFakeStore())
	if err := engine.StopTracking("nope"); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestUpdateAfterStopReportsEnded(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store)

	resp, _ := engine.StartTracking(testOwner(), 60)
	if err := engine.StopTracking(resp.SessionToken); err != nil {
		t.Fatal(err)
	}

	err := engine.UpdateLocation(resp.SessionToken, -33.45, -70.66, "")
	if apperrors.KindOf(err) != apperrors.KindSessionEnded {
		t.Errorf("expected session_ended, got %v", err)
	}

	if _, err := engine.GetLocation(resp.SessionToken); apperrors.KindOf(err) != apperrors.KindSessionEnded {
		t.Errorf("expected session_ended on read, got %v", err)
	}
}
