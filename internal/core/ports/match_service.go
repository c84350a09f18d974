package ports

import (
	"context"
	"time"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

// MatchFilters narrows ranked results after scoring. Each filter is a
// post-hoc predicate: applying one never changes the relative order of the
// surviving entries.
type MatchFilters struct {
	// MaxPickupDistanceKm drops matches whose pickup is further away. Zero
	// means no limit.
	MaxPickupDistanceKm float64
	// MinProfit drops matches below this profit. Zero means no minimum.
	MinProfit domain.Money
	// Urgency keeps only loads with exactly this urgency. Empty means any.
	Urgency domain.Urgency
}

// MatchInput carries everything needed to rank loads for one transporter.
type MatchInput struct {
	TransporterLocation domain.Coordinate
	Loads               []domain.Load
	Vehicle             *domain.Vehicle // optional capacity constraint
	Filters             *MatchFilters   // optional
	// Now anchors traffic and timing evaluation. Zero means time.Now.
	Now time.Time
}

// EarningPotentialInput parameterizes the daily earning estimate.
type EarningPotentialInput struct {
	TransporterLocation domain.Coordinate
	Loads               []domain.Load
	// WorkingHours is the daily working budget. Nil means the configured
	// default (8h); an explicit 0 is a zero budget and fits no loads.
	WorkingHours *float64
	Now          time.Time
}

// EarningPotential is the greedy sequential-fulfillment estimate of what a
// transporter could earn in a working day.
type EarningPotential struct {
	PossibleLoads     int          `json:"possible_loads"`
	EstimatedEarnings domain.Money `json:"estimated_earnings"`
	EstimatedProfit   domain.Money `json:"estimated_profit"`
	AveragePerHour    domain.Money `json:"average_per_hour"`
}

// WaitingSuggestion is a position recommendation for an idle transporter.
type WaitingSuggestion struct {
	Location domain.Coordinate `json:"location"`
	// NearbyLoads counts pickups within 10 km of the suggestion, a rough
	// confidence signal.
	NearbyLoads int `json:"nearby_loads"`
}

// MatcherService scores and ranks candidate loads for a transporter.
type MatcherService interface {
	Score(ctx context.Context, transporter domain.Coordinate, load domain.Load, vehicle *domain.Vehicle, now time.Time) (*domain.MatchScore, error)
	FindBestMatches(ctx context.Context, in MatchInput) ([]domain.MatchScore, error)
	EarningPotential(ctx context.Context, in EarningPotentialInput) (*EarningPotential, error)
	SuggestWaitingLocation(ctx context.Context, loads []domain.Load) (*WaitingSuggestion, error)
}
