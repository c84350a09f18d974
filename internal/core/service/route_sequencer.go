package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agrolink/logistics-engine/internal/core/domain"
	"github.com/agrolink/logistics-engine/internal/core/geo"
	"github.com/agrolink/logistics-engine/internal/core/ports"
)

// RouteSequencer orders stops with a greedy nearest-neighbor pass and
// computes per-segment cost.
//
// The algorithm minimizes immediate travel distance at each step. It does
// not attempt global route optimization (no 2-opt, no branch-and-bound):
// stop counts are single-digit in the target deployment, so the O(n²)
// greedy ordering is a known, accepted limitation rather than a bug.
type RouteSequencer struct {
	params geo.Params
	log    zerolog.Logger
}

func NewRouteSequencer(params geo.Params, log zerolog.Logger) *RouteSequencer {
	return &RouteSequencer{params: params, log: log}
}

// Optimize sequences the input stops from the start location and derives
// segments and route totals. An empty stop set returns an empty route.
//
// When pickups and deliveries are supplied separately, pickups are
// sequenced first from the start location and deliveries are sequenced from
// the last pickup: collect everything, then deliver everything. Interleaved
// pickup/delivery planning is a deliberate non-feature.
func (s *RouteSequencer) Optimize(ctx context.Context, in ports.OptimizeRouteInput) (*domain.Route, error) {
	if err := in.Start.Coordinate.Validate(); err != nil {
		return nil, err
	}
	for _, wp := range in.Stops {
		if err := wp.Location.Coordinate.Validate(); err != nil {
			return nil, err
		}
	}
	for _, wp := range append(append([]domain.Waypoint(nil), in.Pickups...), in.Deliveries...) {
		if err := wp.Location.Coordinate.Validate(); err != nil {
			return nil, err
		}
	}

	at := in.At
	if at.IsZero() {
		at = time.Now()
	}

	var ordered []domain.Waypoint
	switch {
	case len(in.Stops) > 0:
		ordered = nearestNeighborOrder(in.Start.Coordinate, in.Stops, 1)
	case len(in.Pickups) > 0 || len(in.Deliveries) > 0:
		pickups := nearestNeighborOrder(in.Start.Coordinate, in.Pickups, 1)
		deliverFrom := in.Start.Coordinate
		if len(pickups) > 0 {
			deliverFrom = pickups[len(pickups)-1].Location.Coordinate
		}
		deliveries := nearestNeighborOrder(deliverFrom, in.Deliveries, len(pickups)+1)
		ordered = append(pickups, deliveries...)
	default:
		// Nothing to sequence: a defined empty result, not an error.
		return &domain.Route{Waypoints: []domain.Waypoint{}, Segments: []domain.RouteSegment{}}, nil
	}

	segments := s.computeSegments(in.Start, ordered, at)

	route := &domain.Route{
		Waypoints: ordered,
		Segments:  segments,
	}
	for _, seg := range segments {
		route.TotalDistanceKm += seg.DistanceKm
		route.TotalDurationMinutes += seg.DurationMinutes
		route.TotalFuelCost += seg.FuelCost
	}
	route.EstimatedEarnings = s.params.Earnings(route.TotalDistanceKm)

	s.log.Debug().
		Int("stops", len(ordered)).
		Float64("total_km", route.TotalDistanceKm).
		Int("total_minutes", route.TotalDurationMinutes).
		Msg("route optimized")

	return route, nil
}

// nearestNeighborOrder greedily picks the closest unvisited stop, appends
// it, and advances. Ties break by input order (stable). Sequence numbers
// are 1-based and contiguous, starting at firstSeq.
func nearestNeighborOrder(from domain.Coordinate, stops []domain.Waypoint, firstSeq int) []domain.Waypoint {
	if len(stops) == 0 {
		return []domain.Waypoint{}
	}

	visited := make([]bool, len(stops))
	ordered := make([]domain.Waypoint, 0, len(stops))
	current := from

	for len(ordered) < len(stops) {
		best := -1
		bestDist := 0.0
		for i, wp := range stops {
			if visited[i] {
				continue
			}
			d := geo.DistanceKm(current, wp.Location.Coordinate)
			// Strict less-than keeps the earliest input on ties.
			if best == -1 || d < bestDist {
				best = i
				bestDist = d
			}
		}
		wp := stops[best]
		wp.Sequence = firstSeq + len(ordered)
		ordered = append(ordered, wp)
		visited[best] = true
		current = wp.Location.Coordinate
	}

	return ordered
}

// computeSegments derives the leg between each consecutive pair of points,
// using the traffic multiplier in effect at the given instant.
func (s *RouteSequencer) computeSegments(start domain.Location, waypoints []domain.Waypoint, at time.Time) []domain.RouteSegment {
	traffic := geo.TrafficNow(at)

	segments := make([]domain.RouteSegment, 0, len(waypoints))
	prev := start
	for _, wp := range waypoints {
		d := geo.DistanceKm(prev.Coordinate, wp.Location.Coordinate)
		segments = append(segments, domain.RouteSegment{
			From:            prev,
			To:              wp.Location,
			DistanceKm:      d,
			DurationMinutes: geo.ETAMinutes(d, traffic.Multiplier, s.params.AvgSpeedKmh),
			FuelCost:        s.params.FuelCost(d),
		})
		prev = wp.Location
	}
	return segments
}
