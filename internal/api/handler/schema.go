package handler

import (
	"time"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Shared request fragments ---

type coordinateRequest struct {
	Latitude  float64 `json:"latitude"  validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// locationRequest carries no required tag on the coordinate: (0, 0) is a
// valid point and also the struct zero value, so presence cannot be
// enforced without rejecting it. Range checks come from the field tags.
type locationRequest struct {
	Coordinate coordinateRequest `json:"coordinate"`
	Address    string            `json:"address"`
}

type loadRequest struct {
	ID                  string            `json:"id"                    validate:"required"`
	PickupLocation      locationRequest   `json:"pickup_location"`
	DeliveryLocation    locationRequest   `json:"delivery_location"`
	Quantity            float64           `json:"quantity"              validate:"gte=0"`
	WeightKg            float64           `json:"weight_kg"             validate:"gte=0"`
	DeclaredPrice       int64             `json:"declared_price"        validate:"gte=0"`
	ShippingCost        int64             `json:"shipping_cost"         validate:"gte=0"`
	Urgency             string            `json:"urgency"               validate:"omitempty,oneof=low medium high urgent"`
	PreferredPickupTime *time.Time        `json:"preferred_pickup_time"`
	Status              string            `json:"status"                validate:"required,oneof=listed matched picked_up in_transit delivered"`
}

type vehicleRequest struct {
	CapacityKg    float64 `json:"capacity_kg"     validate:"gte=0"`
	CurrentLoadKg float64 `json:"current_load_kg" validate:"gte=0"`
}

type waypointRequest struct {
	Location locationRequest `json:"location"`
	Type     string          `json:"type"     validate:"required,oneof=pickup delivery stop"`
	LoadID   string          `json:"load_id"`
}

// --- Matching ---

type matchFiltersRequest struct {
	MaxPickupDistanceKm float64 `json:"max_pickup_distance_km" validate:"gte=0"`
	MinProfit           int64   `json:"min_profit"`
	Urgency             string  `json:"urgency" validate:"omitempty,oneof=low medium high urgent"`
}

type findMatchesRequest struct {
	TransporterLocation coordinateRequest    `json:"transporter_location"`
	Loads               []loadRequest        `json:"loads"                validate:"dive"`
	Vehicle             *vehicleRequest      `json:"vehicle"`
	Filters             *matchFiltersRequest `json:"filters"`
}

type findMatchesResponse struct {
	Matches []domain.MatchScore `json:"matches"`
	Count   int                 `json:"count"`
}

// earningPotentialRequest distinguishes an omitted working-hour budget
// (use the configured default) from an explicit zero budget.
type earningPotentialRequest struct {
	TransporterLocation coordinateRequest `json:"transporter_location"`
	Loads               []loadRequest     `json:"loads"                validate:"dive"`
	WorkingHours        *float64          `json:"working_hours"        validate:"omitempty,gte=0,lte=24"`
}

type waitingLocationRequest struct {
	Loads []loadRequest `json:"loads" validate:"dive"`
}

// --- Routing ---

type optimizeRouteRequest struct {
	Start      locationRequest   `json:"start"`
	Stops      []waypointRequest `json:"stops"      validate:"dive"`
	Pickups    []waypointRequest `json:"pickups"    validate:"dive"`
	Deliveries []waypointRequest `json:"deliveries" validate:"dive"`
}

// --- Trips ---

type startTripRequest struct {
	TripID        string       `json:"trip_id"        validate:"required"`
	TransporterID string       `json:"transporter_id" validate:"required"`
	Recipient     string       `json:"recipient"`
	Route         domain.Route `json:"route"          validate:"required"`
}

type positionSampleRequest struct {
	Position coordinateRequest `json:"position"`
	At       *time.Time        `json:"at"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}
