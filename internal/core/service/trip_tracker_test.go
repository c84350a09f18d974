package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agrolink/logistics-engine/internal/core/domain"
	"github.com/agrolink/logistics-engine/internal/core/geo"
	"github.com/agrolink/logistics-engine/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubTripStore struct {
	mu    sync.Mutex
	trips map[string]*domain.TripState
}

func newStubTripStore() *stubTripStore {
	return &stubTripStore{trips: make(map[string]*domain.TripState)}
}

func (s *stubTripStore) Get(_ context.Context, tripID string) (*domain.TripState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.trips[tripID]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	return state.Clone(), nil
}

func (s *stubTripStore) Put(_ context.Context, state *domain.TripState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[state.TripID] = state.Clone()
	return nil
}

func (s *stubTripStore) Delete(_ context.Context, tripID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trips, tripID)
	return nil
}

func (s *stubTripStore) Active(_ context.Context) ([]*domain.TripState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []*domain.TripState
	for _, state := range s.trips {
		if state.Status == domain.TripCompleted || state.Status == domain.TripCancelled {
			continue
		}
		active = append(active, state.Clone())
	}
	return active, nil
}

type captureGateway struct {
	mu        sync.Mutex
	alerts    []domain.AlertTrigger
	notifyErr error
}

func (g *captureGateway) Notify(_ context.Context, alert domain.AlertTrigger) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.notifyErr != nil {
		return g.notifyErr
	}
	g.alerts = append(g.alerts, alert)
	return nil
}

func (g *captureGateway) countKind(kind domain.AlertKind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, a := range g.alerts {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var trackStart = time.Date(2026, time.September, 5, 10, 0, 0, 0, time.UTC)

// testTracker builds a tracker with a frozen clock and an hour-long tick so
// the background goroutine never interferes with the assertions.
func testTracker(store ports.TripStore, gw ports.AlertGateway) *TripTracker {
	return NewTripTracker(store, gw, geo.DefaultParams(), TrackerConfig{
		TickInterval: time.Hour,
		Clock:        func() time.Time { return trackStart },
	}, discardLogger)
}

// twoStopRoute plans a pickup at (-2.0, 30.0) and a delivery at (-2.2, 30.0),
// each leg budgeted at 30 minutes.
func twoStopRoute() domain.Route {
	pickup := domain.Location{Coordinate: domain.Coordinate{Latitude: -2.0, Longitude: 30.0}}
	delivery := domain.Location{Coordinate: domain.Coordinate{Latitude: -2.2, Longitude: 30.0}}
	return domain.Route{
		Waypoints: []domain.Waypoint{
			{Location: pickup, Type: domain.WaypointPickup, Sequence: 1, LoadID: "load_1"},
			{Location: delivery, Type: domain.WaypointDelivery, Sequence: 2, LoadID: "load_1"},
		},
		Segments: []domain.RouteSegment{
			{To: pickup, DistanceKm: 25, DurationMinutes: 30},
			{From: pickup, To: delivery, DistanceKm: 22, DurationMinutes: 30},
		},
	}
}

func startTestTrip(t *testing.T, tracker *TripTracker, tripID string) {
	t.Helper()
	_, err := tracker.StartTrip(context.Background(), ports.StartTripInput{
		TripID:        tripID,
		TransporterID: "transporter_1",
		Recipient:     "+250780000000",
		Route:         twoStopRoute(),
	})
	if err != nil {
		t.Fatalf("StartTrip failed: %v", err)
	}
	t.Cleanup(func() { tracker.stopTicks(tripID) })
}

func sampleAt(tracker *TripTracker, t *testing.T, tripID string, lat, lon float64, at time.Time) *domain.TripState {
	t.Helper()
	state, err := tracker.UpdatePosition(context.Background(), ports.PositionSample{
		TripID:   tripID,
		Position: domain.Coordinate{Latitude: lat, Longitude: lon},
		At:       at,
	})
	if err != nil {
		t.Fatalf("UpdatePosition failed: %v", err)
	}
	return state
}

// ---------------------------------------------------------------------------
// StartTrip tests
// ---------------------------------------------------------------------------

func TestTripTracker_StartTrip_CreatesPendingState(t *testing.T) {
	store := newStubTripStore()
	tracker := testTracker(store, &captureGateway{})
	startTestTrip(t, tracker, "trip_1")

	state, err := tracker.GetTrip(context.Background(), "trip_1")
	if err != nil {
		t.Fatalf("GetTrip failed: %v", err)
	}
	if state.Status != domain.TripPending {
		t.Errorf("expected pending, got %s", state.Status)
	}
	if state.CurrentStopIndex != 0 || state.CompletedStops != 0 {
		t.Errorf("fresh trip must start at stop 0 with nothing completed")
	}
	if !state.StartedAt.Equal(trackStart) {
		t.Errorf("StartedAt: want %v, got %v", trackStart, state.StartedAt)
	}
}

func TestTripTracker_StartTrip_DuplicateRejected(t *testing.T) {
	store := newStubTripStore()
	tracker := testTracker(store, &captureGateway{})
	startTestTrip(t, tracker, "trip_1")

	_, err := tracker.StartTrip(context.Background(), ports.StartTripInput{
		TripID: "trip_1",
		Route:  twoStopRoute(),
	})
	if !errors.Is(err, domain.ErrDuplicateTrip) {
		t.Fatalf("expected ErrDuplicateTrip, got %v", err)
	}
}

func TestTripTracker_StartTrip_EmptyRouteRejected(t *testing.T) {
	tracker := testTracker(newStubTripStore(), &captureGateway{})

	_, err := tracker.StartTrip(context.Background(), ports.StartTripInput{
		TripID: "trip_1",
	})
	if !errors.Is(err, domain.ErrEmptyRoute) {
		t.Fatalf("expected ErrEmptyRoute, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Position evaluation tests
// ---------------------------------------------------------------------------

func TestTripTracker_FirstSampleGoesEnRoute(t *testing.T) {
	store := newStubTripStore()
	gw := &captureGateway{}
	tracker := testTracker(store, gw)
	startTestTrip(t, tracker, "trip_1")

	state := sampleAt(tracker, t, "trip_1", -1.90, 30.0, trackStart.Add(time.Minute))
	if state.Status != domain.TripEnRoute {
		t.Errorf("expected en_route after first sample, got %s", state.Status)
	}
	if gw.countKind(domain.AlertEnRoute) != 1 {
		t.Errorf("expected exactly one en_route alert, got %d", gw.countKind(domain.AlertEnRoute))
	}
}

func TestTripTracker_ArrivingSoonFiresOnce(t *testing.T) {
	store := newStubTripStore()
	gw := &captureGateway{}
	tracker := testTracker(store, gw)
	startTestTrip(t, tracker, "trip_1")

	sampleAt(tracker, t, "trip_1", -1.90, 30.0, trackStart.Add(time.Minute))

	// About 2.2 km from the pickup: inside the 5 km arriving band.
	state := sampleAt(tracker, t, "trip_1", -1.98, 30.0, trackStart.Add(2*time.Minute))
	if state.Status != domain.TripArrivingSoon {
		t.Errorf("expected arriving_soon, got %s", state.Status)
	}
	if gw.countKind(domain.AlertArrivingSoon) != 1 {
		t.Fatalf("expected one arriving_soon alert, got %d", gw.countKind(domain.AlertArrivingSoon))
	}

	// Still inside the band: the one-shot must not repeat.
	sampleAt(tracker, t, "trip_1", -1.981, 30.0, trackStart.Add(3*time.Minute))
	if gw.countKind(domain.AlertArrivingSoon) != 1 {
		t.Errorf("arriving_soon alert repeated, got %d", gw.countKind(domain.AlertArrivingSoon))
	}
}

func TestTripTracker_IntermediateArrivalAdvancesStop(t *testing.T) {
	store := newStubTripStore()
	gw := &captureGateway{}
	tracker := testTracker(store, gw)
	startTestTrip(t, tracker, "trip_1")

	sampleAt(tracker, t, "trip_1", -1.90, 30.0, trackStart.Add(time.Minute))

	// Within 100 m of the pickup: the stop completes.
	state := sampleAt(tracker, t, "trip_1", -2.0003, 30.0, trackStart.Add(10*time.Minute))
	if state.Status != domain.TripArrived {
		t.Errorf("expected arrived at intermediate stop, got %s", state.Status)
	}
	if state.CurrentStopIndex != 1 {
		t.Errorf("expected current stop index 1, got %d", state.CurrentStopIndex)
	}
	if state.CompletedStops != 1 {
		t.Errorf("expected 1 completed stop, got %d", state.CompletedStops)
	}
	if len(state.AlertsSent) != 0 {
		t.Errorf("one-shot alert set must reset on stop advance, got %v", state.AlertsSent)
	}

	// Moving again heads to the delivery.
	state = sampleAt(tracker, t, "trip_1", -2.05, 30.0, trackStart.Add(12*time.Minute))
	if state.Status != domain.TripEnRoute {
		t.Errorf("expected en_route toward next stop, got %s", state.Status)
	}
}

func TestTripTracker_FinalArrivalCompletesTrip(t *testing.T) {
	store := newStubTripStore()
	gw := &captureGateway{}
	tracker := testTracker(store, gw)
	startTestTrip(t, tracker, "trip_1")

	sampleAt(tracker, t, "trip_1", -1.90, 30.0, trackStart.Add(time.Minute))
	sampleAt(tracker, t, "trip_1", -2.0003, 30.0, trackStart.Add(25*time.Minute))
	state := sampleAt(tracker, t, "trip_1", -2.2001, 30.0, trackStart.Add(55*time.Minute))

	if state.Status != domain.TripCompleted {
		t.Fatalf("expected completed, got %s", state.Status)
	}
	if state.CompletedStops != 2 {
		t.Errorf("expected all 2 stops completed, got %d", state.CompletedStops)
	}
	if gw.countKind(domain.AlertDelivered) != 1 {
		t.Errorf("expected one delivered alert, got %d", gw.countKind(domain.AlertDelivered))
	}

	// Further samples against a finished trip change nothing.
	after := sampleAt(tracker, t, "trip_1", -2.3, 30.0, trackStart.Add(60*time.Minute))
	if after.Status != domain.TripCompleted {
		t.Errorf("completed trip must stay completed, got %s", after.Status)
	}
}

func TestTripTracker_AddressConfirmationForDeliveryStop(t *testing.T) {
	store := newStubTripStore()
	gw := &captureGateway{}
	tracker := testTracker(store, gw)
	startTestTrip(t, tracker, "trip_1")

	sampleAt(tracker, t, "trip_1", -1.90, 30.0, trackStart.Add(time.Minute))
	// Complete the pickup, then close in on the delivery stop.
	sampleAt(tracker, t, "trip_1", -2.0003, 30.0, trackStart.Add(25*time.Minute))
	sampleAt(tracker, t, "trip_1", -2.18, 30.0, trackStart.Add(50*time.Minute))

	if gw.countKind(domain.AlertAddressConfirmation) != 1 {
		t.Errorf("expected one address_confirmation near the delivery stop, got %d",
			gw.countKind(domain.AlertAddressConfirmation))
	}
}

func TestTripTracker_DelayDetectedOnce(t *testing.T) {
	store := newStubTripStore()
	gw := &captureGateway{}
	tracker := testTracker(store, gw)
	startTestTrip(t, tracker, "trip_1")

	sampleAt(tracker, t, "trip_1", -1.90, 30.0, trackStart.Add(time.Minute))

	// The first leg is planned at 30 minutes; 50 minutes in and still far
	// away means 20 minutes late, past the 15 minute threshold.
	state := sampleAt(tracker, t, "trip_1", -1.92, 30.0, trackStart.Add(50*time.Minute))
	if !state.IsDelayed {
		t.Fatal("expected trip flagged delayed")
	}
	if state.DelayMinutes < 15 {
		t.Errorf("expected at least 15 delay minutes, got %d", state.DelayMinutes)
	}
	if gw.countKind(domain.AlertDelayed) != 1 {
		t.Fatalf("expected one delayed alert, got %d", gw.countKind(domain.AlertDelayed))
	}

	// Still delayed on the next sample, but the alert already fired.
	sampleAt(tracker, t, "trip_1", -1.93, 30.0, trackStart.Add(55*time.Minute))
	if gw.countKind(domain.AlertDelayed) != 1 {
		t.Errorf("delayed alert repeated, got %d", gw.countKind(domain.AlertDelayed))
	}
}

func TestTripTracker_HeartbeatCadence(t *testing.T) {
	store := newStubTripStore()
	gw := &captureGateway{}
	tracker := testTracker(store, gw)
	startTestTrip(t, tracker, "trip_1")

	sampleAt(tracker, t, "trip_1", -1.90, 30.0, trackStart.Add(time.Minute))
	if gw.countKind(domain.AlertEtaUpdate) != 0 {
		t.Fatalf("heartbeat too early, got %d", gw.countKind(domain.AlertEtaUpdate))
	}

	sampleAt(tracker, t, "trip_1", -1.91, 30.0, trackStart.Add(6*time.Minute))
	if gw.countKind(domain.AlertEtaUpdate) != 1 {
		t.Fatalf("expected one heartbeat after the interval, got %d", gw.countKind(domain.AlertEtaUpdate))
	}

	// One minute later the interval has not elapsed again.
	sampleAt(tracker, t, "trip_1", -1.915, 30.0, trackStart.Add(7*time.Minute))
	if gw.countKind(domain.AlertEtaUpdate) != 1 {
		t.Errorf("heartbeat fired inside the interval, got %d", gw.countKind(domain.AlertEtaUpdate))
	}
}

func TestTripTracker_UnknownTripSampleIsNoOp(t *testing.T) {
	tracker := testTracker(newStubTripStore(), &captureGateway{})

	state, err := tracker.UpdatePosition(context.Background(), ports.PositionSample{
		TripID:   "ghost",
		Position: domain.Coordinate{Latitude: -1.9, Longitude: 30.0},
		At:       trackStart,
	})
	if err != nil {
		t.Fatalf("unknown trip must be a silent drop, got %v", err)
	}
	if state != nil {
		t.Errorf("expected nil state for unknown trip, got %+v", state)
	}
}

func TestTripTracker_GatewayFailureDoesNotBlockTransition(t *testing.T) {
	store := newStubTripStore()
	gw := &captureGateway{notifyErr: errors.New("gateway down")}
	tracker := testTracker(store, gw)
	startTestTrip(t, tracker, "trip_1")

	state := sampleAt(tracker, t, "trip_1", -1.90, 30.0, trackStart.Add(time.Minute))
	if state.Status != domain.TripEnRoute {
		t.Errorf("transition must survive a failing gateway, got %s", state.Status)
	}
}

// ---------------------------------------------------------------------------
// CompleteStop / StopTracking tests
// ---------------------------------------------------------------------------

func TestTripTracker_CompleteStop_ForcesAdvance(t *testing.T) {
	store := newStubTripStore()
	tracker := testTracker(store, &captureGateway{})
	startTestTrip(t, tracker, "trip_1")

	state, err := tracker.CompleteStop(context.Background(), "trip_1", 1)
	if err != nil {
		t.Fatalf("CompleteStop failed: %v", err)
	}
	if state.CurrentStopIndex != 1 || state.CompletedStops != 1 {
		t.Errorf("expected advance to stop 1, got index %d, completed %d",
			state.CurrentStopIndex, state.CompletedStops)
	}
}

func TestTripTracker_CompleteStop_WrongSequence(t *testing.T) {
	store := newStubTripStore()
	tracker := testTracker(store, &captureGateway{})
	startTestTrip(t, tracker, "trip_1")

	_, err := tracker.CompleteStop(context.Background(), "trip_1", 2)
	if !errors.Is(err, domain.ErrStopNotFound) {
		t.Fatalf("expected ErrStopNotFound for a non-current sequence, got %v", err)
	}
}

func TestTripTracker_CompleteStop_LastStopCompletesTrip(t *testing.T) {
	store := newStubTripStore()
	gw := &captureGateway{}
	tracker := testTracker(store, gw)
	startTestTrip(t, tracker, "trip_1")

	if _, err := tracker.CompleteStop(context.Background(), "trip_1", 1); err != nil {
		t.Fatalf("CompleteStop 1 failed: %v", err)
	}
	state, err := tracker.CompleteStop(context.Background(), "trip_1", 2)
	if err != nil {
		t.Fatalf("CompleteStop 2 failed: %v", err)
	}
	if state.Status != domain.TripCompleted {
		t.Errorf("expected completed after last stop, got %s", state.Status)
	}
	if gw.countKind(domain.AlertDelivered) != 1 {
		t.Errorf("expected one delivered alert, got %d", gw.countKind(domain.AlertDelivered))
	}
}

func TestTripTracker_CompleteStop_DoubleSubmitAfterCompletion(t *testing.T) {
	store := newStubTripStore()
	gw := &captureGateway{}
	tracker := testTracker(store, gw)
	startTestTrip(t, tracker, "trip_1")

	if _, err := tracker.CompleteStop(context.Background(), "trip_1", 1); err != nil {
		t.Fatalf("CompleteStop 1 failed: %v", err)
	}
	if _, err := tracker.CompleteStop(context.Background(), "trip_1", 2); err != nil {
		t.Fatalf("CompleteStop 2 failed: %v", err)
	}

	// A repeated confirmation of the last stop must be rejected, not
	// re-applied.
	_, err := tracker.CompleteStop(context.Background(), "trip_1", 2)
	if !errors.Is(err, domain.ErrStopNotFound) {
		t.Fatalf("expected ErrStopNotFound on a finished trip, got %v", err)
	}

	state, err := tracker.GetTrip(context.Background(), "trip_1")
	if err != nil {
		t.Fatalf("GetTrip failed: %v", err)
	}
	if state.CompletedStops != 2 {
		t.Errorf("completed stops must not pass the stop count: got %d", state.CompletedStops)
	}
	if gw.countKind(domain.AlertDelivered) != 1 {
		t.Errorf("delivered alert repeated: got %d", gw.countKind(domain.AlertDelivered))
	}
}

func TestTripTracker_CompleteStop_CancelledTripRejected(t *testing.T) {
	store := newStubTripStore()
	tracker := testTracker(store, &captureGateway{})
	startTestTrip(t, tracker, "trip_1")

	if err := tracker.StopTracking(context.Background(), "trip_1"); err != nil {
		t.Fatalf("StopTracking failed: %v", err)
	}
	_, err := tracker.CompleteStop(context.Background(), "trip_1", 1)
	if !errors.Is(err, domain.ErrStopNotFound) {
		t.Fatalf("expected ErrStopNotFound on a cancelled trip, got %v", err)
	}
}

func TestTripTracker_StopTracking_ArchivesAsCancelled(t *testing.T) {
	store := newStubTripStore()
	tracker := testTracker(store, &captureGateway{})
	startTestTrip(t, tracker, "trip_1")

	if err := tracker.StopTracking(context.Background(), "trip_1"); err != nil {
		t.Fatalf("StopTracking failed: %v", err)
	}
	state, err := tracker.GetTrip(context.Background(), "trip_1")
	if err != nil {
		t.Fatalf("GetTrip failed: %v", err)
	}
	if state.Status != domain.TripCancelled {
		t.Errorf("expected cancelled, got %s", state.Status)
	}

	// Stopping again is safe.
	if err := tracker.StopTracking(context.Background(), "trip_1"); err != nil {
		t.Errorf("second StopTracking must succeed, got %v", err)
	}
}

func TestTripTracker_StopTracking_UnknownTrip(t *testing.T) {
	tracker := testTracker(newStubTripStore(), &captureGateway{})

	err := tracker.StopTracking(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}

func TestTripTracker_Resume_RestartsActiveTrips(t *testing.T) {
	store := newStubTripStore()
	tracker := testTracker(store, &captureGateway{})
	startTestTrip(t, tracker, "trip_1")
	tracker.stopTicks("trip_1")

	// A second tracker over the same store picks the active trip back up.
	resumed := testTracker(store, &captureGateway{})
	if err := resumed.Resume(context.Background()); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	t.Cleanup(func() { resumed.stopTicks("trip_1") })

	state := sampleAt(resumed, t, "trip_1", -1.90, 30.0, trackStart.Add(time.Minute))
	if state.Status != domain.TripEnRoute {
		t.Errorf("resumed trip must keep evaluating, got %s", state.Status)
	}
}
