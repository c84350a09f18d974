package ports

import (
	"context"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

// TripStore defines persistence operations for trip state. The engine only
// depends on this interface, so it can be tested against an in-memory
// implementation and backed by real persistence without code change.
type TripStore interface {
	// Get retrieves a trip by id, returning domain.ErrTripNotFound when it
	// does not exist.
	Get(ctx context.Context, tripID string) (*domain.TripState, error)
	// Put upserts the full trip state snapshot.
	Put(ctx context.Context, trip *domain.TripState) error
	// Delete removes a trip. Deleting an absent trip is not an error.
	Delete(ctx context.Context, tripID string) error
	// Active returns trips that are neither completed nor cancelled.
	Active(ctx context.Context) ([]*domain.TripState, error)
}
