package domain

import "fmt"

// Money is a monetary amount in whole Rwandan francs. Fuel and earnings
// figures are always rounded to the nearest franc before they leave the
// engine, so fractional units never accumulate.
type Money int64

// Coordinate represents a geographic point (WGS 84).
type Coordinate struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Validate rejects out-of-range coordinates. Values are never clamped.
func (c Coordinate) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %.4f", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %.4f", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// Location is a coordinate paired with a human-readable address.
type Location struct {
	Coordinate Coordinate `json:"coordinate" bson:"coordinate"`
	Address    string     `json:"address" bson:"address"`
}
