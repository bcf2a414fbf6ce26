package consumption

import (
	"testing"
	"time"

	reading "fueltrack/internal/readings/domain"
)

func day(dd int) time.Time {
	return time.Date(2024, time.April, dd, 0, 0, 0, 0, time.UTC)
}

func entry(dd int, quantity float64) reading.Reading {
	return reading.Reading{
		ID:        "e",
		SubjectID: "car-1",
		Quantity:  quantity,
		TotalCost: reading.Round2(quantity * 1.50),
		Date:      day(dd),
		Kind:      reading.KindManual,
	}
}

func odoEntry(dd int, odometer float64) reading.Reading {
	e := entry(dd, 0)
	e.Odometer = &odometer
	return e
}

func newAdditive(t *testing.T, opts ...Option) *Calculator {
	t.Helper()
	calc, err := NewCalculator(reading.SemanticsAdditive, opts...)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	return calc
}

func TestComputePointsEmptySeries(t *testing.T) {
	calc := newAdditive(t)
	if got := calc.ComputePoints(nil); got != nil {
		t.Fatalf("expected nil for empty series, got %v", got)
	}
}

func TestComputePointsSingleEntry(t *testing.T) {
	calc := newAdditive(t)

	lone := entry(1, 30)
	if got := calc.ComputePoints([]reading.Reading{lone}); got != nil {
		t.Fatalf("expected no points for lone non-baseline entry, got %v", got)
	}

	baseline := entry(1, 50)
	baseline.IsFirstEntry = true
	points := calc.ComputePoints([]reading.Reading{baseline})
	if len(points) != 1 {
		t.Fatalf("expected one zero point for lone baseline, got %d", len(points))
	}
	if points[0].Quantity != 0 || points[0].Cost != 0 {
		t.Fatalf("expected zero point, got %+v", points[0])
	}
}

func TestComputePointsFirstEntryZeroPoint(t *testing.T) {
	calc := newAdditive(t)

	baseline := entry(1, 50)
	baseline.IsFirstEntry = true
	series := []reading.Reading{baseline, entry(2, 30)}

	points := calc.ComputePoints(series)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Quantity != 0 {
		t.Fatalf("expected baseline zero point, got %+v", points[0])
	}
	if points[1].Quantity != 30 {
		t.Fatalf("expected additive quantity 30, got %v", points[1].Quantity)
	}
}

func TestComputePointsAdditiveUsesEntryCost(t *testing.T) {
	calc := newAdditive(t)

	series := []reading.Reading{entry(1, 10), entry(2, 20)}
	points := calc.ComputePoints(series)
	if len(points) != 1 {
		t.Fatalf("expected 1 point (no baseline), got %d", len(points))
	}
	if points[0].Cost != reading.Round2(20*1.50) {
		t.Fatalf("expected cost from entry total cost, got %v", points[0].Cost)
	}
}

func TestComputePointsCumulativeClampNegativeDelta(t *testing.T) {
	calc, err := NewCalculator(reading.SemanticsCumulative)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}

	series := []reading.Reading{odoEntry(1, 1000), odoEntry(2, 900)}
	points := calc.ComputePoints(series)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Quantity != 0 {
		t.Fatalf("expected negative delta clamped to zero, got %v", points[0].Quantity)
	}
}

func TestComputePointsCumulativeDelta(t *testing.T) {
	calc, err := NewCalculator(reading.SemanticsCumulative)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}

	series := []reading.Reading{odoEntry(1, 1000), odoEntry(3, 1250), odoEntry(5, 1250)}
	points := calc.ComputePoints(series)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Quantity != 250 {
		t.Fatalf("expected delta 250, got %v", points[0].Quantity)
	}
	if points[1].Quantity != 0 {
		t.Fatalf("expected zero delta, got %v", points[1].Quantity)
	}
}

func TestComputePointsCustomCostFunc(t *testing.T) {
	calc := newAdditive(t, WithCostFunc(func(entry reading.Reading) float64 {
		return reading.Round2(entry.Quantity * 0.30)
	}))

	series := []reading.Reading{entry(1, 10), entry(2, 20)}
	points := calc.ComputePoints(series)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Cost != 6.0 {
		t.Fatalf("expected tariff-style cost 6.0, got %v", points[0].Cost)
	}
}

func TestComputePointsEstimatedEntriesProducePoints(t *testing.T) {
	calc := newAdditive(t)

	estimated := entry(2, 6)
	estimated.Kind = reading.KindEstimated
	series := []reading.Reading{entry(1, 10), estimated, entry(3, 20)}

	points := calc.ComputePoints(series)
	if len(points) != 2 {
		t.Fatalf("expected estimated entries to produce visible points, got %d", len(points))
	}
	if !points[0].Date.Equal(day(2)) {
		t.Fatalf("expected first point on estimated day, got %s", points[0].Date)
	}
}
