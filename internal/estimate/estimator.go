package estimate

import (
	"fmt"
	"time"

	reading "fueltrack/internal/readings/domain"
)

// Clock provides time for the estimator.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time { return time.Now() }

// referenceTimeZone fixes the "yesterday" boundary for trailing
// extrapolation regardless of server locale.
const referenceTimeZone = "Europe/London"

// Estimator fills temporal gaps in a subject's manual entry series with
// synthetic ESTIMATED entries: one per missing calendar day between known
// readings, and one per day after the last reading up to yesterday.
type Estimator struct {
	clock Clock
	loc   *time.Location
}

// NewEstimator constructs an Estimator.
func NewEstimator(clock Clock) (*Estimator, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	loc, err := time.LoadLocation(referenceTimeZone)
	if err != nil {
		return nil, fmt.Errorf("estimate: load location: %w", err)
	}
	return &Estimator{clock: clock, loc: loc}, nil
}

// Regenerate returns the manual entries plus freshly synthesized estimates.
// The output is a flat, unsorted union; callers re-sort before consumption
// calculation. Calling Regenerate repeatedly with the same manual set yields
// estimates with identical dates and quantities (ids are synthetic and not
// semantically significant).
//
// With fewer than two manual entries no interpolation is possible and the
// input is returned unchanged.
func (e *Estimator) Regenerate(manual []reading.Reading) []reading.Reading {
	entries := make([]reading.Reading, 0, len(manual))
	for _, entry := range manual {
		// Stale estimates from a previous pass are discarded, never reused.
		if entry.Kind == reading.KindEstimated {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) < 2 {
		return entries
	}

	reading.SortByDate(entries)

	covered := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		covered[reading.DayKey(entry.Date)] = struct{}{}
	}

	result := append([]reading.Reading(nil), entries...)
	now := e.clock.Now()

	for i := 0; i < len(entries)-1; i++ {
		result = append(result, e.fillBetween(entries[i], entries[i+1], covered, now)...)
	}

	last := entries[len(entries)-1]
	prev := entries[len(entries)-2]
	result = append(result, e.fillTrailing(prev, last, covered, now)...)

	return result
}

// fillBetween synthesizes one estimate per calendar day strictly between a
// and b. Each carries the average daily quantity over the interval at a's
// unit cost.
func (e *Estimator) fillBetween(a, b reading.Reading, covered map[string]struct{}, now time.Time) []reading.Reading {
	days := daysBetween(a.Day(), b.Day())
	if days <= 1 {
		return nil
	}

	avgPerDay := reading.Round2((a.Quantity + b.Quantity) / float64(days+1))
	note := fmt.Sprintf("Estimated from readings on %s and %s", reading.DayKey(a.Date), reading.DayKey(b.Date))

	var estimates []reading.Reading
	for day := a.Day().AddDate(0, 0, 1); day.Before(b.Day()); day = day.AddDate(0, 0, 1) {
		if _, ok := covered[reading.DayKey(day)]; ok {
			continue
		}
		estimates = append(estimates, e.newEstimate(a, day, avgPerDay, a.UnitCost, note, now))
	}
	return estimates
}

// fillTrailing extrapolates beyond the last manual entry through yesterday
// in the reference timezone, using the average daily quantity of the last
// two entries. Nothing is generated for today or the future.
func (e *Estimator) fillTrailing(prev, last reading.Reading, covered map[string]struct{}, now time.Time) []reading.Reading {
	yesterday := e.yesterday(now)
	if !last.Day().Before(yesterday) {
		return nil
	}

	days := daysBetween(prev.Day(), last.Day())
	if days < 1 {
		days = 1
	}
	avgPerDay := reading.Round2((prev.Quantity + last.Quantity) / float64(days+1))
	note := fmt.Sprintf("Estimated from readings on %s and %s", reading.DayKey(prev.Date), reading.DayKey(last.Date))

	var estimates []reading.Reading
	for day := last.Day().AddDate(0, 0, 1); !day.After(yesterday); day = day.AddDate(0, 0, 1) {
		if _, ok := covered[reading.DayKey(day)]; ok {
			continue
		}
		estimates = append(estimates, e.newEstimate(last, day, avgPerDay, last.UnitCost, note, now))
	}
	return estimates
}

func (e *Estimator) newEstimate(base reading.Reading, day time.Time, quantity, unitCost float64, note string, now time.Time) reading.Reading {
	return reading.Reading{
		ID:        reading.NewEstimateID(now),
		SubjectID: base.SubjectID,
		Quantity:  quantity,
		UnitCost:  unitCost,
		TotalCost: reading.Round2(quantity * unitCost),
		Date:      day,
		Kind:      reading.KindEstimated,
		Odometer:  nil,
		Note:      note,
	}
}

// yesterday is the day before the current calendar date in the reference
// timezone, normalized to a UTC day to match reading.Day.
func (e *Estimator) yesterday(now time.Time) time.Time {
	local := now.In(e.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
