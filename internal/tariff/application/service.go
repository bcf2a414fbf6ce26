package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"fueltrack/internal/consumption"
	"fueltrack/internal/eventing"
	"fueltrack/internal/tariff/application/events"
	tariff "fueltrack/internal/tariff/domain"
)

// Clock provides time for the service.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// TariffService manages tariff periods and announces rate changes so that
// priced series can be rebuilt.
type TariffService struct {
	repo   tariff.Repository
	bus    eventing.Bus
	clock  Clock
	logger *log.Logger
}

// Option configures the service.
type Option func(*TariffService)

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(s *TariffService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *TariffService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewTariffService constructs the service.
func NewTariffService(repo tariff.Repository, bus eventing.Bus, opts ...Option) (*TariffService, error) {
	if repo == nil {
		return nil, errors.New("tariff service: nil repository")
	}
	if bus == nil {
		return nil, errors.New("tariff service: nil bus")
	}
	s := &TariffService{
		repo:   repo,
		bus:    bus,
		clock:  systemClock{},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListPeriods returns all tariff periods ordered by start date.
func (s *TariffService) ListPeriods(ctx context.Context) ([]tariff.Period, error) {
	return s.repo.List(ctx)
}

// GetPeriod fetches one period.
func (s *TariffService) GetPeriod(ctx context.Context, id string) (*tariff.Period, error) {
	return s.repo.Get(ctx, id)
}

// SavePeriod validates and persists a period, rejecting overlaps with the
// existing schedule, then publishes the change.
func (s *TariffService) SavePeriod(ctx context.Context, period tariff.Period) (*tariff.Period, error) {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := tariff.CheckOverlap(existing, period); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, period); err != nil {
		return nil, err
	}
	s.publish(ctx, events.TariffChanged{PeriodID: period.ID, OccurredAt: s.clock.Now()})
	return &period, nil
}

// DeletePeriod removes a period and publishes the change.
func (s *TariffService) DeletePeriod(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.TariffChanged{PeriodID: id, Deleted: true, OccurredAt: s.clock.Now()})
	return nil
}

// CostResolver returns a resolver that prices consumption from the tariff
// schedule in force at recalculation time.
func (s *TariffService) CostResolver() func(ctx context.Context, subjectID string) (consumption.CostFunc, error) {
	return func(ctx context.Context, _ string) (consumption.CostFunc, error) {
		periods, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		return tariff.CostFunc(periods), nil
	}
}

func (s *TariffService) publish(ctx context.Context, event any) {
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Printf("tariff service: publish %s: %v", eventing.EventType(event), err)
	}
}
