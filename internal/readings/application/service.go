package application

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"fueltrack/internal/analytics"
	"fueltrack/internal/consumption"
	"fueltrack/internal/estimate"
	"fueltrack/internal/eventing"
	"fueltrack/internal/observability/metrics"
	"fueltrack/internal/readings/application/events"
	reading "fueltrack/internal/readings/domain"
)

// duplicateTolerance is the quantity band within which a same-day entry is
// treated as an accidental resubmission.
const duplicateTolerance = 0.01

// Clock provides time for the service.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Snapshot is the derived state for one subject: the full series (manual
// plus estimated), its consumption points, and the analytics computed from
// them. Snapshots are immutable; every mutation produces a fresh one.
type Snapshot struct {
	SubjectID      string
	Series         []reading.Reading
	Points         []consumption.Point
	Trend          analytics.TrendResult
	Efficiency     []analytics.EfficiencyPoint
	RecalculatedAt time.Time
}

// CostResolver supplies the cost function for a subject at recalculation
// time. Metered subjects resolve against the current tariff periods.
type CostResolver func(ctx context.Context, subjectID string) (consumption.CostFunc, error)

// SemanticsResolver maps a subject to its quantity semantics.
type SemanticsResolver func(subjectID string) reading.Semantics

// EntryService orchestrates entry mutations and keeps the derived series
// consistent: every successful mutation discards the subject's estimates,
// regenerates them, recomputes consumption and analytics, and swaps the
// snapshot in atomically before returning.
type EntryService struct {
	repo      reading.Repository
	estimator *estimate.Estimator
	bus       eventing.Bus
	clock     Clock
	logger    *log.Logger
	semantics SemanticsResolver
	cost      CostResolver

	mu        sync.Mutex
	snapMu    sync.RWMutex
	snapshots map[string]Snapshot
}

// Option configures the service.
type Option func(*EntryService)

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(s *EntryService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *EntryService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSemanticsResolver overrides the per-subject semantics lookup.
func WithSemanticsResolver(resolver SemanticsResolver) Option {
	return func(s *EntryService) {
		if resolver != nil {
			s.semantics = resolver
		}
	}
}

// WithCostResolver overrides the per-subject cost function lookup.
func WithCostResolver(resolver CostResolver) Option {
	return func(s *EntryService) {
		if resolver != nil {
			s.cost = resolver
		}
	}
}

// NewEntryService constructs the service.
func NewEntryService(repo reading.Repository, estimator *estimate.Estimator, bus eventing.Bus, opts ...Option) (*EntryService, error) {
	if repo == nil {
		return nil, errors.New("entry service: nil repository")
	}
	if estimator == nil {
		return nil, errors.New("entry service: nil estimator")
	}
	if bus == nil {
		return nil, errors.New("entry service: nil bus")
	}
	s := &EntryService{
		repo:      repo,
		estimator: estimator,
		bus:       bus,
		clock:     systemClock{},
		logger:    log.Default(),
		semantics: func(string) reading.Semantics { return reading.SemanticsAdditive },
		cost: func(context.Context, string) (consumption.CostFunc, error) {
			return consumption.EntryTotalCost, nil
		},
		snapshots: make(map[string]Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateEntry validates, persists and publishes a new manual entry, then
// rebuilds the subject's derived series.
func (s *EntryService) CreateEntry(ctx context.Context, entry reading.Reading) (*reading.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Kind == "" {
		entry.Kind = reading.KindManual
	}
	if entry.TotalCost == 0 && entry.Quantity > 0 && entry.UnitCost > 0 {
		entry.TotalCost = reading.Round2(entry.Quantity * entry.UnitCost)
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	s.publish(ctx, events.EntryAdded{Entry: entry, OccurredAt: now})
	if err := s.recalculate(ctx, entry.SubjectID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry replaces an existing entry and rebuilds derived state. When
// the edit moved the entry between subjects, both are rebuilt.
func (s *EntryService) UpdateEntry(ctx context.Context, entry reading.Reading) (*reading.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Get(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	if entry.SubjectID == "" {
		entry.SubjectID = current.SubjectID
	}
	if entry.Kind == "" {
		entry.Kind = current.Kind
	}
	if entry.TotalCost == 0 && entry.Quantity > 0 && entry.UnitCost > 0 {
		entry.TotalCost = reading.Round2(entry.Quantity * entry.UnitCost)
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	s.publish(ctx, events.EntryUpdated{Entry: entry, OccurredAt: now})
	if err := s.recalculate(ctx, entry.SubjectID); err != nil {
		return nil, err
	}
	if current.SubjectID != entry.SubjectID {
		if err := s.recalculate(ctx, current.SubjectID); err != nil {
			return nil, err
		}
	}
	return &entry, nil
}

// DeleteEntry removes an entry and rebuilds derived state.
func (s *EntryService) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.EntryDeleted{EntryID: id, SubjectID: current.SubjectID, OccurredAt: s.clock.Now()})
	return s.recalculate(ctx, current.SubjectID)
}

// MarkFirstEntry moves the first-entry baseline flag to the given entry,
// keeping the at-most-one-per-subject invariant.
func (s *EntryService) MarkFirstEntry(ctx context.Context, id string) (*reading.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ClearFirstEntry(ctx, current.SubjectID); err != nil {
		return nil, err
	}
	entry := *current
	entry.IsFirstEntry = true
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EntryUpdated{Entry: entry, OccurredAt: s.clock.Now()})
	if err := s.recalculate(ctx, entry.SubjectID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries returns persisted entries for a subject within a date range.
// Zero times leave the range unbounded.
func (s *EntryService) ListEntries(ctx context.Context, subjectID string, from, to time.Time) ([]reading.Reading, error) {
	return s.repo.List(ctx, subjectID, from, to)
}

// GetEntry fetches one persisted entry.
func (s *EntryService) GetEntry(ctx context.Context, id string) (*reading.Reading, error) {
	return s.repo.Get(ctx, id)
}

// Snapshot returns the derived state for a subject, computing it on first
// access.
func (s *EntryService) Snapshot(ctx context.Context, subjectID string) (Snapshot, error) {
	if subjectID == "" {
		return Snapshot{}, reading.ErrEmptySubjectID
	}

	s.snapMu.RLock()
	snapshot, ok := s.snapshots[subjectID]
	s.snapMu.RUnlock()
	if ok {
		return snapshot, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another caller may have filled it while we waited for the lock.
	s.snapMu.RLock()
	snapshot, ok = s.snapshots[subjectID]
	s.snapMu.RUnlock()
	if ok {
		return snapshot, nil
	}
	if err := s.recalculate(ctx, subjectID); err != nil {
		return Snapshot{}, err
	}
	s.snapMu.RLock()
	snapshot = s.snapshots[subjectID]
	s.snapMu.RUnlock()
	return snapshot, nil
}

// Invalidate drops every cached snapshot, forcing recomputation on next
// read. Used when a cross-cutting input (tariff rates) changes.
func (s *EntryService) Invalidate() {
	s.snapMu.Lock()
	s.snapshots = make(map[string]Snapshot)
	s.snapMu.Unlock()
}

// recalculate rebuilds derived state for one subject: discard estimates,
// regenerate, recompute consumption and analytics, swap atomically.
// Callers must hold s.mu.
func (s *EntryService) recalculate(ctx context.Context, subjectID string) error {
	start := time.Now()
	err := s.rebuild(ctx, subjectID)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveRecalculation(result, time.Since(start))
	return err
}

func (s *EntryService) rebuild(ctx context.Context, subjectID string) error {
	manual, err := s.repo.List(ctx, subjectID, time.Time{}, time.Time{})
	if err != nil {
		return err
	}

	series := s.estimator.Regenerate(manual)
	reading.SortByDate(series)

	estimated := 0
	for _, entry := range series {
		if entry.Kind == reading.KindEstimated {
			estimated++
		}
	}
	metrics.AddEstimatesGenerated(estimated)

	costFn, err := s.cost(ctx, subjectID)
	if err != nil {
		return err
	}
	calculator, err := consumption.NewCalculator(s.semantics(subjectID),
		consumption.WithCostFunc(costFn),
		consumption.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}
	points := calculator.ComputePoints(series)

	snapshot := Snapshot{
		SubjectID:      subjectID,
		Series:         series,
		Points:         points,
		Trend:          analytics.ClassifyTrend(points),
		Efficiency:     analytics.ComputeEfficiency(series),
		RecalculatedAt: s.clock.Now(),
	}

	s.snapMu.Lock()
	s.snapshots[subjectID] = snapshot
	s.snapMu.Unlock()

	s.publish(ctx, events.SeriesRecalculated{
		SubjectID:  subjectID,
		Entries:    len(series),
		Points:     len(points),
		OccurredAt: snapshot.RecalculatedAt,
	})
	return nil
}

// checkDuplicate rejects a same-day entry with a near-identical quantity.
func (s *EntryService) checkDuplicate(ctx context.Context, entry reading.Reading) error {
	day := entry.Day()
	existing, err := s.repo.List(ctx, entry.SubjectID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == entry.ID {
			continue
		}
		if math.Abs(other.Quantity-entry.Quantity) <= duplicateTolerance {
			return reading.ErrDuplicateEntry
		}
	}
	return nil
}

func (s *EntryService) publish(ctx context.Context, event any) {
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Printf("entry service: publish %s: %v", eventing.EventType(event), err)
	}
}
