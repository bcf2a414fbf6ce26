package memory

import (
	"context"
	"sort"
	"sync"

	tariff "fueltrack/internal/tariff/domain"
)

// TariffRepository is an in-memory implementation of the tariff repository,
// used in tests and for local runs without a database.
type TariffRepository struct {
	mu      sync.RWMutex
	periods map[string]tariff.Period
}

// NewTariffRepository constructs a repository.
func NewTariffRepository() *TariffRepository {
	return &TariffRepository{periods: make(map[string]tariff.Period)}
}

// List returns all periods ordered by start date.
func (r *TariffRepository) List(ctx context.Context) ([]tariff.Period, error) {
	_ = ctx
	r.mu.RLock()
	periods := make([]tariff.Period, 0, len(r.periods))
	for _, period := range r.periods {
		periods = append(periods, period)
	}
	r.mu.RUnlock()

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].StartDate.Before(periods[j].StartDate)
	})
	return periods, nil
}

// Get fetches one period.
func (r *TariffRepository) Get(ctx context.Context, id string) (*tariff.Period, error) {
	_ = ctx
	r.mu.RLock()
	period, ok := r.periods[id]
	r.mu.RUnlock()
	if !ok {
		return nil, tariff.ErrNotFound
	}
	return &period, nil
}

// Save inserts or replaces a period.
func (r *TariffRepository) Save(ctx context.Context, period tariff.Period) error {
	_ = ctx
	if err := period.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.periods[period.ID] = period
	r.mu.Unlock()
	return nil
}

// Delete removes a period.
func (r *TariffRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.periods[id]; !ok {
		return tariff.ErrNotFound
	}
	delete(r.periods, id)
	return nil
}
