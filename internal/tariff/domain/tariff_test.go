package tariff

import (
	"testing"
	"time"

	reading "fueltrack/internal/readings/domain"
)

func date(yyyy int, mm time.Month, dd int) time.Time {
	return time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC)
}

func datePtr(yyyy int, mm time.Month, dd int) *time.Time {
	t := date(yyyy, mm, dd)
	return &t
}

func TestCheckOverlapRejectsIntersection(t *testing.T) {
	existing := []Period{
		{ID: "p1", StartDate: date(2024, time.January, 1), EndDate: datePtr(2024, time.April, 1), UnitRate: 24.5, StandingCharge: 53.35},
	}

	overlap := Period{ID: "p2", StartDate: date(2024, time.March, 1), EndDate: datePtr(2024, time.June, 1)}
	if err := CheckOverlap(existing, overlap); err == nil {
		t.Fatal("expected overlap rejection")
	}

	abutting := Period{ID: "p3", StartDate: date(2024, time.April, 1)}
	if err := CheckOverlap(existing, abutting); err != nil {
		t.Fatalf("expected abutting period accepted, got %v", err)
	}
}

func TestCheckOverlapTwoOpenPeriods(t *testing.T) {
	existing := []Period{
		{ID: "p1", StartDate: date(2024, time.January, 1), UnitRate: 24.5},
	}
	candidate := Period{ID: "p2", StartDate: date(2024, time.June, 1)}
	if err := CheckOverlap(existing, candidate); err == nil {
		t.Fatal("expected two open periods to be rejected")
	}
}

func TestRateAtPicksCoveringPeriod(t *testing.T) {
	periods := []Period{
		{ID: "old", StartDate: date(2024, time.January, 1), EndDate: datePtr(2024, time.April, 1), UnitRate: 28.0, StandingCharge: 50.0},
		{ID: "current", StartDate: date(2024, time.April, 1), UnitRate: 24.5, StandingCharge: 53.35},
	}

	got, err := RateAt(periods, date(2024, time.February, 10))
	if err != nil {
		t.Fatalf("rate at: %v", err)
	}
	if got.ID != "old" {
		t.Fatalf("expected old period, got %s", got.ID)
	}

	got, err = RateAt(periods, date(2024, time.December, 25))
	if err != nil {
		t.Fatalf("rate at: %v", err)
	}
	if got.ID != "current" {
		t.Fatalf("expected open current period, got %s", got.ID)
	}

	if _, err := RateAt(periods, date(2023, time.June, 1)); err == nil {
		t.Fatal("expected no period before first start")
	}
}

func TestCostFuncConvertsPenceToPounds(t *testing.T) {
	periods := []Period{
		{ID: "p1", StartDate: date(2024, time.January, 1), UnitRate: 25.0, StandingCharge: 50.0},
	}
	cost := CostFunc(periods)

	entry := reading.Reading{SubjectID: "meter-1", Quantity: 10, Date: date(2024, time.May, 1), Kind: reading.KindManual}
	// 10 kWh * 25p + 50p standing = 300p = 3.00.
	if got := cost(entry); got != 3.00 {
		t.Fatalf("expected 3.00, got %v", got)
	}

	uncovered := reading.Reading{SubjectID: "meter-1", Quantity: 10, Date: date(2023, time.May, 1), Kind: reading.KindManual}
	if got := cost(uncovered); got != 0 {
		t.Fatalf("expected zero cost outside any period, got %v", got)
	}
}
