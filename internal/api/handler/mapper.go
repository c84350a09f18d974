package handler

import (
	"github.com/agrolink/logistics-engine/internal/core/domain"
	"github.com/agrolink/logistics-engine/internal/core/ports"
)

// Mapping between transport-layer request types and domain/ports types.
// Kept separate from the handlers so the JSON contract is not coupled to
// internal service changes.

func toCoordinate(r coordinateRequest) domain.Coordinate {
	return domain.Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

func toLocation(r locationRequest) domain.Location {
	return domain.Location{Coordinate: toCoordinate(r.Coordinate), Address: r.Address}
}

func toLoad(r loadRequest) domain.Load {
	return domain.Load{
		ID:                  r.ID,
		PickupLocation:      toLocation(r.PickupLocation),
		DeliveryLocation:    toLocation(r.DeliveryLocation),
		Quantity:            r.Quantity,
		WeightKg:            r.WeightKg,
		DeclaredPrice:       domain.Money(r.DeclaredPrice),
		ShippingCost:        domain.Money(r.ShippingCost),
		Urgency:             domain.Urgency(r.Urgency),
		PreferredPickupTime: r.PreferredPickupTime,
		Status:              domain.LoadStatus(r.Status),
	}
}

func toLoads(rs []loadRequest) []domain.Load {
	loads := make([]domain.Load, 0, len(rs))
	for _, r := range rs {
		loads = append(loads, toLoad(r))
	}
	return loads
}

func toVehicle(r *vehicleRequest) *domain.Vehicle {
	if r == nil {
		return nil
	}
	return &domain.Vehicle{CapacityKg: r.CapacityKg, CurrentLoadKg: r.CurrentLoadKg}
}

func toFilters(r *matchFiltersRequest) *ports.MatchFilters {
	if r == nil {
		return nil
	}
	return &ports.MatchFilters{
		MaxPickupDistanceKm: r.MaxPickupDistanceKm,
		MinProfit:           domain.Money(r.MinProfit),
		Urgency:             domain.Urgency(r.Urgency),
	}
}

func toWaypoints(rs []waypointRequest) []domain.Waypoint {
	wps := make([]domain.Waypoint, 0, len(rs))
	for _, r := range rs {
		wps = append(wps, domain.Waypoint{
			Location: toLocation(r.Location),
			Type:     domain.WaypointType(r.Type),
			LoadID:   r.LoadID,
		})
	}
	return wps
}
