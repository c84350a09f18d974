package domain

import "time"

// Urgency expresses how quickly a load needs to be picked up.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// LoadStatus represents the lifecycle state of a load. The engine never
// mutates it; it only filters candidates by it.
type LoadStatus string

const (
	LoadListed    LoadStatus = "listed"
	LoadMatched   LoadStatus = "matched"
	LoadPickedUp  LoadStatus = "picked_up"
	LoadInTransit LoadStatus = "in_transit"
	LoadDelivered LoadStatus = "delivered"
)

// Load is a single pickup/delivery unit: a crop cargo or a marketplace
// order, normalized by the caller before it reaches the engine.
type Load struct {
	ID               string   `json:"id" bson:"_id,omitempty"`
	PickupLocation   Location `json:"pickup_location" bson:"pickup_location"`
	DeliveryLocation Location `json:"delivery_location" bson:"delivery_location"`
	Quantity         float64  `json:"quantity" bson:"quantity"`
	// WeightKg is the declared cargo weight. Zero means undeclared; the
	// matcher then derives weight from Quantity.
	WeightKg      float64 `json:"weight_kg,omitempty" bson:"weight_kg,omitempty"`
	DeclaredPrice Money   `json:"declared_price" bson:"declared_price"`
	// ShippingCost is a pre-agreed transport fee. Zero means none was
	// negotiated and earnings fall back to the per-km rate.
	ShippingCost        Money      `json:"shipping_cost,omitempty" bson:"shipping_cost,omitempty"`
	Urgency             Urgency    `json:"urgency" bson:"urgency"`
	PreferredPickupTime *time.Time `json:"preferred_pickup_time,omitempty" bson:"preferred_pickup_time,omitempty"`
	Status              LoadStatus `json:"status" bson:"status"`
}

// Vehicle carries the capacity constraint used in matching.
type Vehicle struct {
	CapacityKg    float64 `json:"capacity_kg" bson:"capacity_kg"`
	CurrentLoadKg float64 `json:"current_load_kg" bson:"current_load_kg"`
}

// AvailableCapacityKg returns the remaining loadable weight.
func (v Vehicle) AvailableCapacityKg() float64 {
	return v.CapacityKg - v.CurrentLoadKg
}

// Validate rejects vehicles whose remaining capacity is negative.
func (v Vehicle) Validate() error {
	if v.AvailableCapacityKg() < 0 {
		return ErrNegativeCapacity
	}
	return nil
}

// MatchPriority buckets a match score for quick triage in the UI.
type MatchPriority string

const (
	PriorityHigh   MatchPriority = "high"
	PriorityMedium MatchPriority = "medium"
	PriorityLow    MatchPriority = "low"
)

// MatchScore is the result of evaluating one load for one transporter.
// It is derived, never persisted, and recomputed on demand.
type MatchScore struct {
	Load               Load          `json:"load"`
	Score              float64       `json:"score"`
	DistanceToPickupKm float64       `json:"distance_to_pickup_km"`
	RouteDistanceKm    float64       `json:"route_distance_km"`
	EstimatedEarnings  Money         `json:"estimated_earnings"`
	EstimatedFuelCost  Money         `json:"estimated_fuel_cost"`
	Profit             Money         `json:"profit"`
	// EtaMinutes is the travel time from the transporter's position to the
	// pickup location, under the traffic multiplier at evaluation time.
	EtaMinutes int           `json:"eta_minutes"`
	Reasons    []string      `json:"reasons"`
	Priority   MatchPriority `json:"priority"`
}
