package ports

import (
	"context"
	"time"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

// StartTripInput carries what is needed to begin tracking a trip.
type StartTripInput struct {
	TripID        string
	TransporterID string
	// Recipient is the contact reference alert notifications are addressed
	// to (phone number, device token, …). Opaque to the engine.
	Recipient string
	Route     domain.Route
}

// PositionSample is one GPS reading for an active trip.
type PositionSample struct {
	TripID   string
	Position domain.Coordinate
	// At is the sample timestamp. Zero means time.Now.
	At time.Time
}

// TripTrackerService maintains per-trip tracking state and raises alert
// triggers on status transitions.
type TripTrackerService interface {
	// StartTrip creates the trip state and begins the periodic evaluation
	// tick for it.
	StartTrip(ctx context.Context, in StartTripInput) (*domain.TripState, error)
	// UpdatePosition ingests a sample and evaluates all transition rules.
	// A sample for an unknown trip is a logged no-op returning (nil, nil).
	UpdatePosition(ctx context.Context, sample PositionSample) (*domain.TripState, error)
	// GetTrip returns the current tracking snapshot.
	GetTrip(ctx context.Context, tripID string) (*domain.TripState, error)
	// CompleteStop force-completes the stop with the given sequence number
	// independent of GPS proximity. Unknown trips are a hard error.
	CompleteStop(ctx context.Context, tripID string, sequence int) (*domain.TripState, error)
	// StopTracking cancels the trip's tick and archives its state. Unknown
	// trips are a hard error; stopping an already-stopped trip is safe.
	StopTracking(ctx context.Context, tripID string) error
}
