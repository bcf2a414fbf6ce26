package application

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fueltrack/internal/estimate"
	"fueltrack/internal/eventing"
	"fueltrack/internal/observability/metrics"
	"fueltrack/internal/readings/application/events"
	reading "fueltrack/internal/readings/domain"
	"fueltrack/internal/readings/infrastructure/memory"
)

type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time { return f.now }

func day(dd int) time.Time {
	return time.Date(2024, time.March, dd, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T) (*EntryService, *memory.EntryRepository, *eventing.InMemoryBus) {
	t.Helper()
	clock := fakeClock{now: day(6).Add(12 * time.Hour)}
	estimator, err := estimate.NewEstimator(clock)
	if err != nil {
		t.Fatalf("new estimator: %v", err)
	}
	repo := memory.NewEntryRepository()
	bus := eventing.NewInMemoryBus()
	service, err := NewEntryService(repo, estimator, bus,
		WithClock(clock),
		WithLogger(log.New(io.Discard, "", 0)),
	)
	if err != nil {
		t.Fatalf("new entry service: %v", err)
	}
	return service, repo, bus
}

func manualEntry(dd int, quantity float64) reading.Reading {
	return reading.Reading{
		SubjectID: "car-1",
		Quantity:  quantity,
		UnitCost:  1.50,
		Date:      day(dd),
		Kind:      reading.KindManual,
	}
}

func TestCreateEntryRejectsDuplicate(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.CreateEntry(ctx, manualEntry(1, 30.00)); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	_, err := service.CreateEntry(ctx, manualEntry(1, 30.005))
	if !errors.Is(err, reading.ErrDuplicateEntry) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	// A clearly different quantity on the same day is allowed.
	if _, err := service.CreateEntry(ctx, manualEntry(1, 12.00)); err != nil {
		t.Fatalf("expected distinct same-day entry accepted, got %v", err)
	}
}

func TestUpdateEntryRejectsDuplicate(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.CreateEntry(ctx, manualEntry(1, 30.00)); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	second, err := service.CreateEntry(ctx, manualEntry(2, 30.00))
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	// Moving the second entry onto the first's day with a near-identical
	// quantity collides with the existing entry.
	moved := *second
	moved.Date = day(1)
	moved.Quantity = 30.005
	if _, err := service.UpdateEntry(ctx, moved); !errors.Is(err, reading.ErrDuplicateEntry) {
		t.Fatalf("expected duplicate rejection on update, got %v", err)
	}

	// An edit that keeps the entry on its own day never collides with
	// itself.
	same := *second
	same.Quantity = 30.004
	if _, err := service.UpdateEntry(ctx, same); err != nil {
		t.Fatalf("expected in-place edit accepted, got %v", err)
	}

	// Moving with a clearly different quantity is allowed.
	moved.Quantity = 12.00
	if _, err := service.UpdateEntry(ctx, moved); err != nil {
		t.Fatalf("expected distinct moved entry accepted, got %v", err)
	}
}

func TestCreateEntryRebuildsDerivedSeries(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.CreateEntry(ctx, manualEntry(1, 10)); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := service.CreateEntry(ctx, manualEntry(5, 20)); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	snapshot, err := service.Snapshot(ctx, "car-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	// Two manual entries plus estimates for Mar 2-4; the clock pins
	// yesterday to Mar 5, the last manual day, so nothing trails.
	if len(snapshot.Series) != 5 {
		t.Fatalf("expected 5 series entries, got %d", len(snapshot.Series))
	}
	var estimated int
	for _, entry := range snapshot.Series {
		if entry.Kind == reading.KindEstimated {
			estimated++
		}
	}
	if estimated != 3 {
		t.Fatalf("expected 3 estimated entries, got %d", estimated)
	}
	// First manual entry is not a baseline, so it yields no point; the
	// other four entries do.
	if len(snapshot.Points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(snapshot.Points))
	}
}

func TestDeleteEntryRegeneratesEstimates(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateEntry(ctx, manualEntry(1, 10))
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := service.CreateEntry(ctx, manualEntry(5, 20)); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if err := service.DeleteEntry(ctx, created.ID); err != nil {
		t.Fatalf("delete entry: %v", err)
	}

	snapshot, err := service.Snapshot(ctx, "car-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	// One manual entry left: no interpolation is possible.
	if len(snapshot.Series) != 1 {
		t.Fatalf("expected estimates discarded with single entry, got %d entries", len(snapshot.Series))
	}
}

func TestMarkFirstEntryKeepsSingleBaseline(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	first, err := service.CreateEntry(ctx, manualEntry(4, 10))
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	second, err := service.CreateEntry(ctx, manualEntry(5, 20))
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	if _, err := service.MarkFirstEntry(ctx, first.ID); err != nil {
		t.Fatalf("mark first entry: %v", err)
	}
	if _, err := service.MarkFirstEntry(ctx, second.ID); err != nil {
		t.Fatalf("mark first entry: %v", err)
	}

	entries, err := repo.List(ctx, "car-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var flagged int
	for _, entry := range entries {
		if entry.IsFirstEntry {
			flagged++
		}
	}
	if flagged != 1 {
		t.Fatalf("expected exactly one first entry, got %d", flagged)
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	service, _, bus := newTestService(t)
	ctx := context.Background()

	var added, recalculated int
	eventing.SubscribeTo(bus, func(_ context.Context, _ events.EntryAdded) error {
		added++
		return nil
	})
	eventing.SubscribeTo(bus, func(_ context.Context, _ events.SeriesRecalculated) error {
		recalculated++
		return nil
	})

	if _, err := service.CreateEntry(ctx, manualEntry(1, 10)); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 EntryAdded, got %d", added)
	}
	if recalculated != 1 {
		t.Fatalf("expected 1 SeriesRecalculated, got %d", recalculated)
	}
}

// counterTotal sums every sample of a counter family in the default
// registry; an unregistered or empty family counts as zero.
func counterTotal(t *testing.T, name string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}

func TestRecalculationRecordsMetrics(t *testing.T) {
	metrics.Init(nil, log.New(io.Discard, "", 0))
	service, _, _ := newTestService(t)
	ctx := context.Background()

	recalcBefore := counterTotal(t, "fueltrack_series_recalculations_total")
	estimatesBefore := counterTotal(t, "fueltrack_estimates_generated_total")

	if _, err := service.CreateEntry(ctx, manualEntry(1, 10)); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := service.CreateEntry(ctx, manualEntry(5, 20)); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	if got := counterTotal(t, "fueltrack_series_recalculations_total") - recalcBefore; got != 2 {
		t.Fatalf("expected 2 recalculations recorded, got %v", got)
	}
	// The second create interpolates Mar 2-4.
	if got := counterTotal(t, "fueltrack_estimates_generated_total") - estimatesBefore; got != 3 {
		t.Fatalf("expected 3 estimates recorded, got %v", got)
	}
}

func TestSnapshotComputedOnFirstAccess(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := context.Background()

	// Seed the repository directly, bypassing the service.
	seeded := manualEntry(1, 10)
	seeded.ID = "seed-1"
	if err := repo.Create(ctx, seeded); err != nil {
		t.Fatalf("seed: %v", err)
	}

	snapshot, err := service.Snapshot(ctx, "car-1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Series) != 1 {
		t.Fatalf("expected seeded entry in lazy snapshot, got %d entries", len(snapshot.Series))
	}
}
