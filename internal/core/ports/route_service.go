package ports

import (
	"context"
	"time"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

// OptimizeRouteInput describes the stops to sequence from a start location.
// Either Stops (single mixed set) or Pickups/Deliveries (two-phase: collect
// everything, then deliver everything) is supplied, not both.
type OptimizeRouteInput struct {
	Start      domain.Location
	Stops      []domain.Waypoint
	Pickups    []domain.Waypoint
	Deliveries []domain.Waypoint
	// At anchors the traffic multiplier used for segment ETAs. Zero means
	// time.Now.
	At time.Time
}

// RouteService sequences stops into a route with per-segment cost.
type RouteService interface {
	// Optimize orders the stops and computes segments and totals. An empty
	// stop set yields an empty route, not an error.
	Optimize(ctx context.Context, in OptimizeRouteInput) (*domain.Route, error)
}
