package domain

// WaypointType distinguishes what happens at a stop.
type WaypointType string

const (
	WaypointPickup   WaypointType = "pickup"
	WaypointDelivery WaypointType = "delivery"
	WaypointStop     WaypointType = "stop"
)

// Waypoint is a single stop on a route. Sequence is 1-based and assigned by
// the sequencer; it is not meaningful on input.
type Waypoint struct {
	Location Location     `json:"location" bson:"location"`
	Type     WaypointType `json:"type" bson:"type"`
	Sequence int          `json:"sequence" bson:"sequence"`
	LoadID   string       `json:"load_id,omitempty" bson:"load_id,omitempty"`
}

// RouteSegment is the leg between two consecutive waypoints. Immutable once
// computed for a given route snapshot.
type RouteSegment struct {
	From            Location `json:"from" bson:"from"`
	To              Location `json:"to" bson:"to"`
	DistanceKm      float64  `json:"distance_km" bson:"distance_km"`
	DurationMinutes int      `json:"duration_minutes" bson:"duration_minutes"`
	FuelCost        Money    `json:"fuel_cost" bson:"fuel_cost"`
}

// Route is an ordered plan over a set of stops. Re-optimization produces a
// new Route; an existing one is never mutated in place.
type Route struct {
	Waypoints            []Waypoint     `json:"waypoints" bson:"waypoints"`
	Segments             []RouteSegment `json:"segments" bson:"segments"`
	TotalDistanceKm      float64        `json:"total_distance_km" bson:"total_distance_km"`
	TotalDurationMinutes int            `json:"total_duration_minutes" bson:"total_duration_minutes"`
	TotalFuelCost        Money          `json:"total_fuel_cost" bson:"total_fuel_cost"`
	EstimatedEarnings    Money          `json:"estimated_earnings" bson:"estimated_earnings"`
}
