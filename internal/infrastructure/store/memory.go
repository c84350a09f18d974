// Package store provides the in-memory TripStore used for tests and
// single-node deployments without MongoDB.
package store

import (
	"context"
	"sync"

	"github.com/agrolink/logistics-engine/internal/core/domain"
)

// MemoryTripStore is a thread-safe map-backed TripStore. Snapshots are
// deep-copied on the way in and out, so callers never share mutable state
// with the store.
type MemoryTripStore struct {
	mu    sync.RWMutex
	trips map[string]*domain.TripState
}

func NewMemoryTripStore() *MemoryTripStore {
	return &MemoryTripStore{trips: make(map[string]*domain.TripState)}
}

func (s *MemoryTripStore) Get(_ context.Context, tripID string) (*domain.TripState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trip, ok := s.trips[tripID]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	return trip.Clone(), nil
}

func (s *MemoryTripStore) Put(_ context.Context, trip *domain.TripState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[trip.TripID] = trip.Clone()
	return nil
}

func (s *MemoryTripStore) Delete(_ context.Context, tripID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trips, tripID)
	return nil
}

func (s *MemoryTripStore) Active(_ context.Context) ([]*domain.TripState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var active []*domain.TripState
	for _, trip := range s.trips {
		if trip.Status == domain.TripCompleted || trip.Status == domain.TripCancelled {
			continue
		}
		active = append(active, trip.Clone())
	}
	return active, nil
}
