package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agrolink/logistics-engine/internal/core/domain"
	"github.com/agrolink/logistics-engine/internal/core/geo"
	"github.com/agrolink/logistics-engine/internal/core/ports"
)

// TrackerConfig tunes the trip tracker's evaluation thresholds.
type TrackerConfig struct {
	// TickInterval is how often a trip is re-evaluated even without a new
	// position sample. Defaults to 60s.
	TickInterval time.Duration
	// DelayThreshold is how far past the expected arrival a trip must run
	// before it is flagged delayed. Defaults to 15m.
	DelayThreshold time.Duration
	// HeartbeatInterval is the cadence of eta_update alerts. Defaults to 5m.
	// Heartbeats compare against a last-heartbeat timestamp, not wall-clock
	// minute alignment, so irregular sampling neither skips nor doubles them.
	HeartbeatInterval time.Duration
	// ArrivingSoonKm is the radius that triggers the arriving_soon alert.
	// Defaults to 5.
	ArrivingSoonKm float64
	// ArrivalKm is the radius that completes a stop. Defaults to 0.1.
	ArrivalKm float64
	// Clock supplies the current time; tests override it. Defaults to
	// time.Now.
	Clock func() time.Time
}

func (c TrackerConfig) withDefaults() TrackerConfig {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Minute
	}
	if c.DelayThreshold <= 0 {
		c.DelayThreshold = 15 * time.Minute
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 5 * time.Minute
	}
	if c.ArrivingSoonKm <= 0 {
		c.ArrivingSoonKm = 5
	}
	if c.ArrivalKm <= 0 {
		c.ArrivalKm = 0.1
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// delayReasons is the fixed set a delayed alert picks its cosmetic reason
// from. Selection is deterministic per trip and stop.
var delayReasons = []string{
	"heavy traffic on the route",
	"poor road conditions",
	"weather slowing the vehicle",
	"extended stop at the pickup point",
}

// tripHandle owns the mutable runtime resources of one tracked trip: the
// tick cancellation and the lock serializing its evaluations. Handles are
// independent, so different trips are processed fully in parallel.
type tripHandle struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// TripTracker maintains per-trip tracking state, evaluates transition rules
// on every position sample and periodic tick, and raises alert triggers.
// Alert emission is fire-and-forget: a failing gateway never blocks or rolls
// back a state transition.
type TripTracker struct {
	store  ports.TripStore
	alerts ports.AlertGateway
	params geo.Params
	cfg    TrackerConfig
	log    zerolog.Logger

	mu    sync.Mutex
	trips map[string]*tripHandle
}

func NewTripTracker(store ports.TripStore, alerts ports.AlertGateway, params geo.Params, cfg TrackerConfig, log zerolog.Logger) *TripTracker {
	return &TripTracker{
		store:  store,
		alerts: alerts,
		params: params,
		cfg:    cfg.withDefaults(),
		log:    log,
		trips:  make(map[string]*tripHandle),
	}
}

// StartTrip creates the trip state, persists it, and begins the periodic
// evaluation tick for it.
func (t *TripTracker) StartTrip(ctx context.Context, in ports.StartTripInput) (*domain.TripState, error) {
	if in.TripID == "" {
		return nil, fmt.Errorf("trip id must be non-empty")
	}
	if len(in.Route.Waypoints) == 0 {
		return nil, domain.ErrEmptyRoute
	}
	if existing, err := t.store.Get(ctx, in.TripID); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateTrip, in.TripID)
	}

	now := t.cfg.Clock()
	state := &domain.TripState{
		TripID:        in.TripID,
		TransporterID: in.TransporterID,
		Recipient:     in.Recipient,
		Route:         in.Route,
		Status:        domain.TripPending,
		AlertsSent:    make(map[domain.AlertKind]bool),
		LastHeartbeat: now,
		StartedAt:     now,
		LastUpdatedAt: now,
	}
	if err := t.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("start trip: %w", err)
	}

	t.startTicks(in.TripID)

	t.log.Info().
		Str("trip_id", in.TripID).
		Str("transporter_id", in.TransporterID).
		Int("stops", len(in.Route.Waypoints)).
		Msg("trip tracking started")

	return state.Clone(), nil
}

// Resume restarts evaluation ticks for every active trip in the store.
// Intended for process startup after a restart.
func (t *TripTracker) Resume(ctx context.Context) error {
	active, err := t.store.Active(ctx)
	if err != nil {
		return fmt.Errorf("resume trips: %w", err)
	}
	for _, trip := range active {
		t.startTicks(trip.TripID)
	}
	if len(active) > 0 {
		t.log.Info().Int("trips", len(active)).Msg("resumed active trips")
	}
	return nil
}

// UpdatePosition ingests one GPS sample and evaluates all transition rules.
// A sample for an unknown trip is a logged no-op, not an error.
func (t *TripTracker) UpdatePosition(ctx context.Context, sample ports.PositionSample) (*domain.TripState, error) {
	if err := sample.Position.Validate(); err != nil {
		return nil, err
	}
	at := sample.At
	if at.IsZero() {
		at = t.cfg.Clock()
	}

	state, err := t.evaluate(ctx, sample.TripID, &sample.Position, at)
	if err != nil {
		if state == nil && err == errUnknownTrip {
			t.log.Warn().Str("trip_id", sample.TripID).Msg("position sample for unknown trip dropped")
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}

// GetTrip returns the current tracking snapshot.
func (t *TripTracker) GetTrip(ctx context.Context, tripID string) (*domain.TripState, error) {
	state, err := t.store.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// CompleteStop force-completes the current stop regardless of GPS
// proximity, e.g. after a manual confirmation in the UI. The sequence must
// name the stop the trip is currently heading to.
func (t *TripTracker) CompleteStop(ctx context.Context, tripID string, sequence int) (*domain.TripState, error) {
	handle := t.handle(tripID)
	handle.mu.Lock()
	defer handle.mu.Unlock()

	state, err := t.store.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if state.Status == domain.TripCompleted || state.Status == domain.TripCancelled {
		return nil, fmt.Errorf("%w: trip %s is already %s", domain.ErrStopNotFound, tripID, state.Status)
	}

	stop, ok := state.CurrentStop()
	if !ok || stop.Sequence != sequence {
		return nil, fmt.Errorf("%w: sequence %d is not the current stop of trip %s", domain.ErrStopNotFound, sequence, tripID)
	}

	now := t.cfg.Clock()
	t.advanceStop(ctx, state, now)
	state.LastUpdatedAt = now
	if err := t.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("complete stop: %w", err)
	}

	t.log.Info().Str("trip_id", tripID).Int("sequence", sequence).Msg("stop force-completed")
	return state.Clone(), nil
}

// StopTracking cancels the trip's evaluation tick and archives its state.
// Unknown trips are a hard error, but stopping an already-stopped trip is
// safe: the tick cancellation is idempotent and never touches other trips.
func (t *TripTracker) StopTracking(ctx context.Context, tripID string) error {
	state, err := t.store.Get(ctx, tripID)
	if err != nil {
		return err
	}

	t.stopTicks(tripID)

	if state.Status != domain.TripCompleted && state.Status != domain.TripCancelled {
		state.Status = domain.TripCancelled
		state.LastUpdatedAt = t.cfg.Clock()
		if err := t.store.Put(ctx, state); err != nil {
			return fmt.Errorf("stop tracking: %w", err)
		}
	}

	t.log.Info().Str("trip_id", tripID).Msg("trip tracking stopped")
	return nil
}

// ---------------------------------------------------------------------------
// Tick scheduling
// ---------------------------------------------------------------------------

// startTicks launches the per-trip evaluation goroutine. Each trip owns its
// ticker and cancellation; no cancellation crosses trip boundaries.
func (t *TripTracker) startTicks(tripID string) {
	ctx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	if existing, ok := t.trips[tripID]; ok && existing.cancel != nil {
		t.mu.Unlock()
		cancel()
		return
	}
	handle := t.lockedHandle(tripID)
	handle.cancel = cancel
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(t.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Re-evaluate with the last known position so heartbeats
				// and delay detection fire even between samples.
				if _, err := t.evaluate(ctx, tripID, nil, t.cfg.Clock()); err != nil && err != errUnknownTrip {
					t.log.Error().Err(err).Str("trip_id", tripID).Msg("tick evaluation failed")
				}
			}
		}
	}()
}

// stopTicks cancels a trip's tick goroutine. Safe to call repeatedly.
func (t *TripTracker) stopTicks(tripID string) {
	t.mu.Lock()
	handle, ok := t.trips[tripID]
	if ok && handle.cancel != nil {
		handle.cancel()
		handle.cancel = nil
	}
	t.mu.Unlock()
}

// handle returns the runtime handle for a trip, creating it on first use.
func (t *TripTracker) handle(tripID string) *tripHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lockedHandle(tripID)
}

func (t *TripTracker) lockedHandle(tripID string) *tripHandle {
	handle, ok := t.trips[tripID]
	if !ok {
		handle = &tripHandle{}
		t.trips[tripID] = handle
	}
	return handle
}

// ---------------------------------------------------------------------------
// Rule evaluation
// ---------------------------------------------------------------------------

var errUnknownTrip = fmt.Errorf("unknown trip")

// evaluate runs every transition rule for one trip under its handle lock.
// pos is nil on ticks, in which case the last known position is reused.
func (t *TripTracker) evaluate(ctx context.Context, tripID string, pos *domain.Coordinate, at time.Time) (*domain.TripState, error) {
	handle := t.handle(tripID)
	handle.mu.Lock()
	defer handle.mu.Unlock()

	state, err := t.store.Get(ctx, tripID)
	if err != nil {
		if errors.Is(err, domain.ErrTripNotFound) {
			return nil, errUnknownTrip
		}
		return nil, err
	}
	if state.Status == domain.TripCompleted || state.Status == domain.TripCancelled {
		return state.Clone(), nil
	}

	state.LastUpdatedAt = at

	if pos != nil {
		state.CurrentLocation = *pos
		switch state.Status {
		case domain.TripPending:
			state.Status = domain.TripEnRoute
			t.emit(ctx, state, domain.AlertEnRoute, "transporter is on the way", 0)
		case domain.TripArrived:
			// First movement after a stop: heading to the next one.
			state.Status = domain.TripEnRoute
		}
	}

	stop, ok := state.CurrentStop()
	if ok && state.Status != domain.TripPending {
		distKm := geo.DistanceKm(state.CurrentLocation, stop.Location.Coordinate)
		traffic := geo.TrafficNow(at)
		eta := geo.ETAMinutes(distKm, traffic.Multiplier, t.params.AvgSpeedKmh)
		state.DistanceToStopKm = distKm
		state.EtaMinutes = eta

		switch {
		case distKm < t.cfg.ArrivalKm:
			t.advanceStop(ctx, state, at)
		case distKm < t.cfg.ArrivingSoonKm && !state.AlertsSent[domain.AlertArrivingSoon]:
			if state.Status.CanTransitionTo(domain.TripArrivingSoon) {
				state.Status = domain.TripArrivingSoon
			}
			state.AlertsSent[domain.AlertArrivingSoon] = true
			t.emit(ctx, state, domain.AlertArrivingSoon,
				fmt.Sprintf("arriving soon, about %d min away", eta), eta)
			if stop.Type == domain.WaypointDelivery && !state.AlertsSent[domain.AlertAddressConfirmation] {
				state.AlertsSent[domain.AlertAddressConfirmation] = true
				t.emit(ctx, state, domain.AlertAddressConfirmation,
					"transporter is close, please confirm the delivery address", eta)
			}
		}

		t.evaluateDelay(ctx, state, at)
	}

	// ETA heartbeat, emitted on cadence regardless of delay state.
	if state.Status != domain.TripPending && state.Status != domain.TripCompleted &&
		at.Sub(state.LastHeartbeat) >= t.cfg.HeartbeatInterval {
		state.LastHeartbeat = at
		t.emit(ctx, state, domain.AlertEtaUpdate,
			fmt.Sprintf("ETA update: %d min to next stop", state.EtaMinutes), state.EtaMinutes)
	}

	state.LastUpdatedAt = at
	if err := t.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("evaluate trip %s: %w", tripID, err)
	}
	return state.Clone(), nil
}

// evaluateDelay flags the trip delayed once it runs more than the threshold
// past the expected arrival at the current stop. The delayed alert fires
// only on first detection per stop.
func (t *TripTracker) evaluateDelay(ctx context.Context, state *domain.TripState, at time.Time) {
	expected := t.expectedArrival(state)
	late := at.Sub(expected)

	if late <= t.cfg.DelayThreshold {
		state.IsDelayed = false
		state.DelayMinutes = 0
		return
	}

	state.IsDelayed = true
	state.DelayMinutes = int(late.Minutes())
	if !state.AlertsSent[domain.AlertDelayed] {
		state.AlertsSent[domain.AlertDelayed] = true
		reason := delayReasons[delayReasonIndex(state.TripID, state.CurrentStopIndex)]
		alert := domain.AlertTrigger{
			TripID:       state.TripID,
			Kind:         domain.AlertDelayed,
			Recipient:    state.Recipient,
			Message:      fmt.Sprintf("trip delayed by %d min: %s", state.DelayMinutes, reason),
			EtaMinutes:   state.EtaMinutes,
			DelayMinutes: state.DelayMinutes,
			At:           at,
		}
		if stop, ok := state.CurrentStop(); ok {
			alert.LoadID = stop.LoadID
			alert.StopSequence = stop.Sequence
		}
		t.dispatch(ctx, alert)
	}
}

// expectedArrival is the planned arrival at the current stop: trip start
// plus the planned duration of every leg up to and including it.
func (t *TripTracker) expectedArrival(state *domain.TripState) time.Time {
	minutes := 0
	for i, seg := range state.Route.Segments {
		if i > state.CurrentStopIndex {
			break
		}
		minutes += seg.DurationMinutes
	}
	return state.StartedAt.Add(time.Duration(minutes) * time.Minute)
}

// advanceStop marks the current stop arrived and moves on. When the last
// stop completes, the whole trip completes and its tick is cancelled.
func (t *TripTracker) advanceStop(ctx context.Context, state *domain.TripState, at time.Time) {
	stop, ok := state.CurrentStop()
	if !ok {
		return
	}

	state.CompletedStops++

	if state.CurrentStopIndex+1 < len(state.Route.Waypoints) {
		state.CurrentStopIndex++
		// One-shot alerts are per stop; a fresh stop gets a fresh set.
		state.AlertsSent = make(map[domain.AlertKind]bool)
		state.IsDelayed = false
		state.DelayMinutes = 0
		if state.Status.CanTransitionTo(domain.TripArrived) {
			state.Status = domain.TripArrived
		}
		t.log.Info().
			Str("trip_id", state.TripID).
			Int("completed_stops", state.CompletedStops).
			Int("next_stop", state.CurrentStopIndex).
			Msg("stop completed")
		return
	}

	state.Status = domain.TripCompleted
	trigger := domain.AlertTrigger{
		TripID:       state.TripID,
		LoadID:       stop.LoadID,
		Kind:         domain.AlertDelivered,
		Recipient:    state.Recipient,
		Message:      "all stops completed, load delivered",
		StopSequence: stop.Sequence,
		At:           at,
	}
	t.dispatch(ctx, trigger)
	t.stopTicks(state.TripID)
	t.log.Info().Str("trip_id", state.TripID).Int("completed_stops", state.CompletedStops).Msg("trip completed")
}

// emit builds an alert for the current stop and dispatches it.
func (t *TripTracker) emit(ctx context.Context, state *domain.TripState, kind domain.AlertKind, message string, eta int) {
	alert := domain.AlertTrigger{
		TripID:     state.TripID,
		Kind:       kind,
		Recipient:  state.Recipient,
		Message:    message,
		EtaMinutes: eta,
		At:         state.LastUpdatedAt,
	}
	if stop, ok := state.CurrentStop(); ok {
		alert.LoadID = stop.LoadID
		alert.StopSequence = stop.Sequence
	}
	t.dispatch(ctx, alert)
}

// dispatch hands the trigger to the gateway without letting a delivery
// failure affect the state transition that produced it.
func (t *TripTracker) dispatch(ctx context.Context, alert domain.AlertTrigger) {
	if err := t.alerts.Notify(ctx, alert); err != nil {
		t.log.Warn().Err(err).
			Str("trip_id", alert.TripID).
			Str("kind", string(alert.Kind)).
			Msg("alert dispatch failed")
	}
}

// delayReasonIndex deterministically picks a delay reason for a trip/stop
// pair.
func delayReasonIndex(tripID string, stopIndex int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s:%d", tripID, stopIndex)))
	return int(h.Sum32()) % len(delayReasons)
}
