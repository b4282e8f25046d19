package store

import (
	"context"
	"slices"
	"sync"

	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/place"
)

// Memory is a process-local Store for tests and replays.
type Memory struct {
	mu     sync.RWMutex
	places map[string][]place.Record
	trails map[string][]fix.Fix
}

func NewMemory() *Memory {
	return &Memory{
		places: map[string][]place.Record{},
		trails: map[string][]fix.Fix{},
	}
}

func (m *Memory) Places(_ context.Context, userID string) ([]place.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return place.EnsureType(slices.Clone(m.places[userID])), nil
}

func (m *Memory) ReplacePlaces(_ context.Context, userID string, records []place.Record) error {
	if err := validateRecords(records); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.places[userID] = slices.Clone(records)
	return nil
}

func (m *Memory) DeletePlaces(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.places, userID)
	return nil
}

func (m *Memory) AddFix(_ context.Context, userID string, f fix.Fix) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trails[userID] = append(m.trails[userID], f)
	return nil
}

func (m *Memory) Trail(_ context.Context, userID string) ([]fix.Fix, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.trails[userID]), nil
}

func (m *Memory) DeleteTrail(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trails, userID)
	return nil
}
