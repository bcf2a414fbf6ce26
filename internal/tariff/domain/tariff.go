package tariff

import (
	"sort"
	"time"

	reading "fueltrack/internal/readings/domain"
)

// Period is one cost-rate interval for a metered (electricity) subject.
// Rates are stored in pence; the derived cost function reports pounds.
// The current period has no end date and stays open until superseded.
type Period struct {
	ID                   string
	StartDate            time.Time
	EndDate              *time.Time
	UnitRate             float64
	StandingCharge       float64
	EstimatedAnnualUsage float64
	EstimatedAnnualCost  float64
}

// Validate ensures basic invariants for a single period.
func (p Period) Validate() error {
	if p.StartDate.IsZero() {
		return ErrInvalidStartDate
	}
	if p.EndDate != nil && !p.EndDate.After(p.StartDate) {
		return ErrEndBeforeStart
	}
	if p.UnitRate < 0 || p.StandingCharge < 0 {
		return ErrNegativeRate
	}
	return nil
}

// Contains reports whether the period covers a date at day granularity.
func (p Period) Contains(date time.Time) bool {
	day := reading.Day(date)
	if day.Before(reading.Day(p.StartDate)) {
		return false
	}
	if p.EndDate == nil {
		return true
	}
	return day.Before(reading.Day(*p.EndDate))
}

// CheckOverlap rejects a candidate period that intersects any existing one.
// End dates are exclusive, so an abutting period is allowed.
func CheckOverlap(existing []Period, candidate Period) error {
	candStart := reading.Day(candidate.StartDate)
	for _, period := range existing {
		if period.ID == candidate.ID {
			continue
		}
		start := reading.Day(period.StartDate)
		if candidate.EndDate != nil && !reading.Day(*candidate.EndDate).After(start) {
			continue
		}
		if period.EndDate != nil && !reading.Day(*period.EndDate).After(candStart) {
			continue
		}
		return ErrOverlappingPeriods
	}
	return nil
}

// RateAt resolves the unit rate and standing charge applying on a date.
// Periods are scanned latest-start first so an open current period wins.
func RateAt(periods []Period, date time.Time) (*Period, error) {
	sorted := append([]Period(nil), periods...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartDate.After(sorted[j].StartDate)
	})
	for i := range sorted {
		if sorted[i].Contains(date) {
			return &sorted[i], nil
		}
	}
	return nil, ErrNoPeriodForDate
}

// Current returns the open period, if any.
func Current(periods []Period) *Period {
	for i := range periods {
		if periods[i].EndDate == nil {
			return &periods[i]
		}
	}
	return nil
}
