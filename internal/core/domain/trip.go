package domain

import "time"

// TripStatus represents the primary tracking state of a trip. Delay is an
// orthogonal flag (IsDelayed + DelayMinutes), not a status of its own: a
// trip can be en_route and delayed at the same time.
type TripStatus string

const (
	TripPending      TripStatus = "pending"
	TripEnRoute      TripStatus = "en_route"
	TripArrivingSoon TripStatus = "arriving_soon"
	TripArrived      TripStatus = "arrived"
	TripCompleted    TripStatus = "completed"
	TripCancelled    TripStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[TripStatus][]TripStatus{
	TripPending:      {TripEnRoute, TripArrivingSoon, TripArrived, TripCancelled},
	TripEnRoute:      {TripArrivingSoon, TripArrived, TripCancelled},
	TripArrivingSoon: {TripArrived, TripEnRoute, TripCancelled},
	TripArrived:      {TripEnRoute, TripCompleted, TripCancelled},
}

// CanTransitionTo reports whether a transition from the current status to
// next is valid.
func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AlertKind identifies the notification a trip event should produce.
type AlertKind string

const (
	AlertEnRoute             AlertKind = "en_route"
	AlertEtaUpdate           AlertKind = "eta_update"
	AlertArrivingSoon        AlertKind = "arriving_soon"
	AlertDelayed             AlertKind = "delayed"
	AlertDelivered           AlertKind = "delivered"
	AlertAddressConfirmation AlertKind = "address_confirmation"
)

// AlertTrigger is the event handed to the alert gateway. It carries enough
// context for the gateway to render and deliver a notification without
// calling back into the engine. The engine holds no delivery responsibility.
type AlertTrigger struct {
	TripID       string    `json:"trip_id"`
	LoadID       string    `json:"load_id,omitempty"`
	Kind         AlertKind `json:"kind"`
	Recipient    string    `json:"recipient,omitempty"`
	Message      string    `json:"message"`
	StopSequence int       `json:"stop_sequence,omitempty"`
	EtaMinutes   int       `json:"eta_minutes,omitempty"`
	DelayMinutes int       `json:"delay_minutes,omitempty"`
	At           time.Time `json:"at"`
}

// TripState is the tracked snapshot of one transporter's in-progress
// execution of a route. It is owned by the trip tracker: created when
// tracking starts, mutated on each position sample, archived on completion.
type TripState struct {
	TripID        string `json:"trip_id" bson:"_id"`
	TransporterID string `json:"transporter_id" bson:"transporter_id"`
	// Recipient is the contact reference alerts are addressed to. The
	// engine never interprets it; the gateway does.
	Recipient        string     `json:"recipient,omitempty" bson:"recipient,omitempty"`
	Route            Route      `json:"route" bson:"route"`
	CurrentStopIndex int        `json:"current_stop_index" bson:"current_stop_index"`
	CurrentLocation  Coordinate `json:"current_location" bson:"current_location"`
	Status           TripStatus `json:"status" bson:"status"`
	IsDelayed        bool       `json:"is_delayed" bson:"is_delayed"`
	DelayMinutes     int        `json:"delay_minutes" bson:"delay_minutes"`
	CompletedStops   int        `json:"completed_stops" bson:"completed_stops"`
	DistanceToStopKm float64    `json:"distance_to_stop_km" bson:"distance_to_stop_km"`
	EtaMinutes       int        `json:"eta_minutes" bson:"eta_minutes"`
	// AlertsSent records which one-shot alerts have fired for the current
	// stop. It is reset whenever the trip advances to the next stop.
	AlertsSent    map[AlertKind]bool `json:"alerts_sent" bson:"alerts_sent"`
	LastHeartbeat time.Time          `json:"last_heartbeat" bson:"last_heartbeat"`
	StartedAt     time.Time          `json:"started_at" bson:"started_at"`
	LastUpdatedAt time.Time          `json:"last_updated_at" bson:"last_updated_at"`
}

// CurrentStop returns the waypoint the trip is heading to, or false when the
// route is exhausted.
func (t *TripState) CurrentStop() (Waypoint, bool) {
	if t.CurrentStopIndex < 0 || t.CurrentStopIndex >= len(t.Route.Waypoints) {
		return Waypoint{}, false
	}
	return t.Route.Waypoints[t.CurrentStopIndex], true
}

// Clone returns a deep copy safe to hand across the store boundary.
func (t *TripState) Clone() *TripState {
	c := *t
	c.Route.Waypoints = append([]Waypoint(nil), t.Route.Waypoints...)
	c.Route.Segments = append([]RouteSegment(nil), t.Route.Segments...)
	c.AlertsSent = make(map[AlertKind]bool, len(t.AlertsSent))
	for k, v := range t.AlertsSent {
		c.AlertsSent[k] = v
	}
	return &c
}
