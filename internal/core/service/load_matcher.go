package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/agrolink/logistics-engine/internal/core/domain"
	"github.com/agrolink/logistics-engine/internal/core/geo"
	"github.com/agrolink/logistics-engine/internal/core/ports"
)

const (
	baseScore         = 100.0
	highPriorityScore = 140.0
	lowPriorityScore  = 100.0
	// waitingRadiusKm is the band around a suggested waiting spot inside
	// which pickups count toward the confidence signal.
	waitingRadiusKm = 10.0
)

// MatcherOptions tunes scoring inputs that are not pure geo cost constants.
type MatcherOptions struct {
	// WeightPerUnitKg converts Quantity into kilograms when a load carries
	// no declared weight. Defaults to 25.
	WeightPerUnitKg float64
	// WorkingHours is the default daily budget for earning-potential
	// estimates. Defaults to 8.
	WorkingHours float64
	// FallbackWaitingLocation is suggested when no loads are available.
	// Defaults to the Kigali city center.
	FallbackWaitingLocation domain.Coordinate
}

func (o MatcherOptions) withDefaults() MatcherOptions {
	if o.WeightPerUnitKg <= 0 {
		o.WeightPerUnitKg = 25
	}
	if o.WorkingHours <= 0 {
		o.WorkingHours = 8
	}
	if o.FallbackWaitingLocation == (domain.Coordinate{}) {
		o.FallbackWaitingLocation = domain.Coordinate{Latitude: -1.9441, Longitude: 30.0619}
	}
	return o
}

// LoadMatcher scores and ranks candidate loads for a transporter. Each call
// recomputes from the caller-supplied load snapshot, so concurrent calls
// for different transporters need no coordination.
type LoadMatcher struct {
	params geo.Params
	opts   MatcherOptions
	log    zerolog.Logger
}

func NewLoadMatcher(params geo.Params, opts MatcherOptions, log zerolog.Logger) *LoadMatcher {
	return &LoadMatcher{params: params, opts: opts.withDefaults(), log: log}
}

// Score evaluates a single load for a transporter at the given instant.
// The score starts at 100 and is adjusted additively by fixed rules; the
// rule order only affects the human-readable reasons list.
func (m *LoadMatcher) Score(ctx context.Context, transporter domain.Coordinate, load domain.Load, vehicle *domain.Vehicle, now time.Time) (*domain.MatchScore, error) {
	if err := transporter.Validate(); err != nil {
		return nil, err
	}
	if err := load.PickupLocation.Coordinate.Validate(); err != nil {
		return nil, err
	}
	if err := load.DeliveryLocation.Coordinate.Validate(); err != nil {
		return nil, err
	}
	if vehicle != nil {
		if err := vehicle.Validate(); err != nil {
			return nil, err
		}
	}
	if now.IsZero() {
		now = time.Now()
	}

	pickupKm := geo.DistanceKm(transporter, load.PickupLocation.Coordinate)
	routeKm := geo.DistanceKm(load.PickupLocation.Coordinate, load.DeliveryLocation.Coordinate)
	totalKm := pickupKm + routeKm

	traffic := geo.TrafficNow(now)
	etaToPickup := geo.ETAMinutes(pickupKm, traffic.Multiplier, m.params.AvgSpeedKmh)

	// A positive shipping cost is a true pre-agreed transport fee and wins
	// over the per-km estimate. Fuel always covers both legs: the vehicle
	// drives to the pickup too.
	earnings := load.ShippingCost
	if earnings <= 0 {
		earnings = m.params.Earnings(routeKm)
	}
	fuel := m.params.FuelCost(totalKm)
	profit := earnings - fuel

	score := baseScore
	var reasons []string

	// Rule 1: distance to pickup, nearest tier wins.
	switch {
	case pickupKm < 5:
		score += 30
		reasons = append(reasons, fmt.Sprintf("pickup very close (%.1f km)", pickupKm))
	case pickupKm < 15:
		score += 20
		reasons = append(reasons, fmt.Sprintf("pickup nearby (%.1f km)", pickupKm))
	case pickupKm < 30:
		score += 10
		reasons = append(reasons, fmt.Sprintf("pickup within reach (%.1f km)", pickupKm))
	case pickupKm > 50:
		score -= 20
		reasons = append(reasons, fmt.Sprintf("pickup far away (%.1f km)", pickupKm))
	}

	// Rule 2: route length.
	switch {
	case routeKm > 50:
		score += 25
		reasons = append(reasons, "long haul, strong earnings")
	case routeKm > 20:
		score += 15
		reasons = append(reasons, "medium-distance route")
	case routeKm < 5:
		score -= 10
		reasons = append(reasons, "very short route")
	}

	// Rule 3: profit margin.
	if earnings > 0 {
		margin := float64(profit) / float64(earnings) * 100
		switch {
		case margin > 50:
			score += 30
			reasons = append(reasons, fmt.Sprintf("excellent margin (%.0f%%)", margin))
		case margin > 30:
			score += 20
			reasons = append(reasons, fmt.Sprintf("good margin (%.0f%%)", margin))
		case margin < 15:
			score -= 15
			reasons = append(reasons, fmt.Sprintf("thin margin (%.0f%%)", margin))
		}
	}

	// Rule 4: urgency.
	switch load.Urgency {
	case domain.UrgencyUrgent:
		score += 40
		reasons = append(reasons, "urgent delivery requested")
	case domain.UrgencyHigh:
		score += 20
		reasons = append(reasons, "high urgency")
	}

	// Rule 5: capacity fit, only when a vehicle is supplied.
	if vehicle != nil {
		weight := load.WeightKg
		if weight <= 0 {
			weight = load.Quantity * m.opts.WeightPerUnitKg
		}
		if weight <= vehicle.AvailableCapacityKg() {
			score += 15
			reasons = append(reasons, "fits available capacity")
		} else {
			score -= 30
			reasons = append(reasons, fmt.Sprintf("exceeds capacity by %.0f kg", weight-vehicle.AvailableCapacityKg()))
		}
	}

	// Rule 6: timing fit, only when a preferred pickup window is set.
	if load.PreferredPickupTime != nil {
		arrival := now.Add(time.Duration(etaToPickup) * time.Minute)
		gap := load.PreferredPickupTime.Sub(arrival)
		if gap < 0 {
			gap = -gap
		}
		switch {
		case gap <= 30*time.Minute:
			score += 25
			reasons = append(reasons, "arrival matches preferred pickup time")
		case gap > 120*time.Minute:
			score -= 10
			reasons = append(reasons, "arrival far from preferred pickup time")
		}
	}

	return &domain.MatchScore{
		Load:               load,
		Score:              score,
		DistanceToPickupKm: pickupKm,
		RouteDistanceKm:    routeKm,
		EstimatedEarnings:  earnings,
		EstimatedFuelCost:  fuel,
		Profit:             profit,
		EtaMinutes:         etaToPickup,
		Reasons:            reasons,
		Priority:           priorityFor(score),
	}, nil
}

// priorityFor buckets a final score: >=140 high, <100 low, medium between.
func priorityFor(score float64) domain.MatchPriority {
	switch {
	case score >= highPriorityScore:
		return domain.PriorityHigh
	case score < lowPriorityScore:
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}

// FindBestMatches scores every listed load and returns matches sorted by
// descending score. Filters are post-hoc predicates applied after scoring,
// so filtering never reorders the survivors.
func (m *LoadMatcher) FindBestMatches(ctx context.Context, in ports.MatchInput) ([]domain.MatchScore, error) {
	if err := in.TransporterLocation.Validate(); err != nil {
		return nil, err
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	matches := make([]domain.MatchScore, 0, len(in.Loads))
	for _, load := range in.Loads {
		if load.Status != domain.LoadListed {
			continue
		}
		score, err := m.Score(ctx, in.TransporterLocation, load, in.Vehicle, now)
		if err != nil {
			return nil, fmt.Errorf("score load %s: %w", load.ID, err)
		}
		matches = append(matches, *score)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if in.Filters != nil {
		matches = applyFilters(matches, *in.Filters)
	}

	m.log.Debug().
		Int("candidates", len(in.Loads)).
		Int("ranked", len(matches)).
		Msg("matches computed")

	return matches, nil
}

func applyFilters(matches []domain.MatchScore, f ports.MatchFilters) []domain.MatchScore {
	kept := matches[:0]
	for _, match := range matches {
		if f.MaxPickupDistanceKm > 0 && match.DistanceToPickupKm > f.MaxPickupDistanceKm {
			continue
		}
		if f.MinProfit > 0 && match.Profit < f.MinProfit {
			continue
		}
		if f.Urgency != "" && match.Load.Urgency != f.Urgency {
			continue
		}
		kept = append(kept, match)
	}
	return kept
}

// EarningPotential greedily consumes ranked matches in score order,
// accumulating travel time, until the working-hour budget is exhausted.
// This models sequential fulfillment with no lookahead or backtracking, a
// known heuristic limitation.
func (m *LoadMatcher) EarningPotential(ctx context.Context, in ports.EarningPotentialInput) (*ports.EarningPotential, error) {
	hours := m.opts.WorkingHours
	if in.WorkingHours != nil {
		hours = *in.WorkingHours
	}
	if hours < 0 {
		return nil, fmt.Errorf("working hours must not be negative, got %v", hours)
	}
	if hours == 0 {
		// An explicit zero budget fits nothing; it is a defined result,
		// not an error.
		return &ports.EarningPotential{}, nil
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	matches, err := m.FindBestMatches(ctx, ports.MatchInput{
		TransporterLocation: in.TransporterLocation,
		Loads:               in.Loads,
		Now:                 now,
	})
	if err != nil {
		return nil, err
	}

	traffic := geo.TrafficNow(now)
	budget := int(hours * 60)

	result := &ports.EarningPotential{}
	consumed := 0
	for _, match := range matches {
		tripMinutes := match.EtaMinutes + geo.ETAMinutes(match.RouteDistanceKm, traffic.Multiplier, m.params.AvgSpeedKmh)
		if consumed+tripMinutes > budget {
			break
		}
		consumed += tripMinutes
		result.PossibleLoads++
		result.EstimatedEarnings += match.EstimatedEarnings
		result.EstimatedProfit += match.Profit
	}
	if hours > 0 {
		result.AveragePerHour = domain.Money(math.Round(float64(result.EstimatedEarnings) / hours))
	}

	return result, nil
}

// SuggestWaitingLocation returns the arithmetic centroid of all listed
// pickup coordinates, with a count of pickups within 10 km as a confidence
// signal. With no loads it falls back to the configured default location.
func (m *LoadMatcher) SuggestWaitingLocation(ctx context.Context, loads []domain.Load) (*ports.WaitingSuggestion, error) {
	var sumLat, sumLon float64
	var pickups []domain.Coordinate
	for _, load := range loads {
		if load.Status != domain.LoadListed {
			continue
		}
		c := load.PickupLocation.Coordinate
		if err := c.Validate(); err != nil {
			return nil, err
		}
		sumLat += c.Latitude
		sumLon += c.Longitude
		pickups = append(pickups, c)
	}

	if len(pickups) == 0 {
		return &ports.WaitingSuggestion{Location: m.opts.FallbackWaitingLocation}, nil
	}

	centroid := domain.Coordinate{
		Latitude:  sumLat / float64(len(pickups)),
		Longitude: sumLon / float64(len(pickups)),
	}
	nearby := 0
	for _, c := range pickups {
		if geo.DistanceKm(centroid, c) <= waitingRadiusKm {
			nearby++
		}
	}

	return &ports.WaitingSuggestion{Location: centroid, NearbyLoads: nearby}, nil
}
