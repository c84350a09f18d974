// Package geo provides the pure geospatial and cost primitives the engine is
// built on: great-circle distance, bearing, the deterministic traffic model,
// and fuel/earnings estimation.
//
// Every function here is pure and deterministic. There is no shared state,
// so all of them are safe for unlimited concurrent use.
package geo

import (
	"math"
	"time"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Params holds the tunable cost constants. All values are per-call
// overridable; DefaultParams matches the documented defaults.
type Params struct {
	// AvgSpeedKmh is the assumed cruising speed on rural roads.
	AvgSpeedKmh float64
	// FuelPricePerLiter in RWF.
	FuelPricePerLiter float64
	// ConsumptionPer100Km in liters.
	ConsumptionPer100Km float64
	// RatePerKm is the transporter's earning rate in RWF.
	RatePerKm float64
}

// DefaultParams returns the standard cost constants.
func DefaultParams() Params {
	return Params{
		AvgSpeedKmh:         60,
		FuelPricePerLiter:   1500,
		ConsumptionPer100Km: 12,
		RatePerKm:           1200,
	}
}

// DistanceKm returns the great-circle (haversine) distance between two
// coordinates, rounded to 2 decimal places. Symmetric, and zero iff a == b.
func DistanceKm(a, b domain.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	d := 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(d*100) / 100
}

// BearingDegrees returns the initial compass bearing from a to b in [0, 360).
func BearingDegrees(a, b domain.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// TrafficLevel classifies congestion for display purposes.
type TrafficLevel string

const (
	TrafficLight    TrafficLevel = "light"
	TrafficModerate TrafficLevel = "moderate"
	TrafficHeavy    TrafficLevel = "heavy"
)

// Traffic is the deterministic congestion estimate for a wall-clock slot.
type Traffic struct {
	Level       TrafficLevel `json:"level"`
	Multiplier  float64      `json:"multiplier"`
	Description string       `json:"description"`
}

// TrafficAt returns the traffic estimate for the given hour (0-23) and day
// of week (0=Sunday). This is a pure function of wall-clock time, not of
// measured road conditions: live traffic integration is out of scope.
func TrafficAt(hour, dayOfWeek int) Traffic {
	isPeak := (hour >= 7 && hour <= 9) || (hour >= 11 && hour <= 13) || (hour >= 16 && hour <= 18)
	isWeekend := dayOfWeek == 0 || dayOfWeek == 6

	switch {
	case hour <= 5 || hour >= 21:
		return Traffic{TrafficLight, 0.9, "night, roads clear"}
	case isWeekend && !isPeak:
		return Traffic{TrafficLight, 1.0, "weekend, normal flow"}
	case isPeak:
		return Traffic{TrafficHeavy, 1.6, "peak hours, expect congestion"}
	case hour >= 13 && hour <= 15:
		return Traffic{TrafficModerate, 1.25, "lunch period, some congestion"}
	default:
		return Traffic{TrafficModerate, 1.15, "daytime, light congestion"}
	}
}

// TrafficNow returns the traffic estimate for the given instant.
func TrafficNow(t time.Time) Traffic {
	return TrafficAt(t.Hour(), int(t.Weekday()))
}

// ETAMinutes converts a distance and traffic multiplier into whole minutes,
// rounded up. A non-positive speed falls back to the default cruising speed.
func ETAMinutes(distanceKm, multiplier, avgSpeedKmh float64) int {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = DefaultParams().AvgSpeedKmh
	}
	return int(math.Ceil(distanceKm / avgSpeedKmh * 60 * multiplier))
}

// FuelCost estimates the fuel spend for driving distanceKm.
func (p Params) FuelCost(distanceKm float64) domain.Money {
	return domain.Money(math.Round(distanceKm / 100 * p.ConsumptionPer100Km * p.FuelPricePerLiter))
}

// Earnings estimates the transport fee for driving distanceKm at the
// per-km rate.
func (p Params) Earnings(distanceKm float64) domain.Money {
	return domain.Money(math.Round(distanceKm * p.RatePerKm))
}
