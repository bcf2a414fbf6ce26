package reading

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"
)

// Kind identifies how a reading entered the system.
type Kind string

const (
	KindManual    Kind = "MANUAL"
	KindImported  Kind = "IMPORTED"
	KindEstimated Kind = "ESTIMATED"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	switch k {
	case KindManual, KindImported, KindEstimated:
		return true
	default:
		return false
	}
}

// Semantics selects how a subject's quantities are interpreted.
// Additive subjects (fuel top-ups) log the consumed amount directly;
// cumulative subjects (odometer, meter registers) log a running total
// and consumption is the delta between consecutive readings.
type Semantics string

const (
	SemanticsAdditive   Semantics = "ADDITIVE"
	SemanticsCumulative Semantics = "CUMULATIVE"
)

// IsValid checks if the semantics value is supported.
func (s Semantics) IsValid() bool {
	return s == SemanticsAdditive || s == SemanticsCumulative
}

// Reading is a single fuel top-up or meter entry for a subject.
// Invariants:
// 1) At most one entry per subject has IsFirstEntry set.
// 2) ESTIMATED entries are derived state only and are never persisted.
// 3) ESTIMATED entries never share a calendar day with a MANUAL/IMPORTED
//    entry for the same subject.
type Reading struct {
	ID           string
	SubjectID    string
	Quantity     float64
	UnitCost     float64
	TotalCost    float64
	Date         time.Time
	Kind         Kind
	IsFirstEntry bool
	Odometer     *float64
	Note         string
}

// Validate ensures basic domain invariants for a persisted entry.
func (r Reading) Validate() error {
	if r.SubjectID == "" {
		return ErrEmptySubjectID
	}
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if !r.Kind.IsValid() {
		return ErrInvalidKind
	}
	if r.Kind == KindEstimated {
		return ErrEstimatedNotPersistable
	}
	if r.Quantity < 0 || r.UnitCost < 0 || r.TotalCost < 0 {
		return ErrNegativeValue
	}
	if r.Odometer != nil && *r.Odometer < 0 {
		return ErrNegativeValue
	}
	return nil
}

// Day returns the entry date truncated to day granularity in UTC.
func (r Reading) Day() time.Time {
	return Day(r.Date)
}

// Day truncates a timestamp to day granularity in UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats a timestamp as an ISO calendar date.
func DayKey(t time.Time) string {
	return Day(t).Format("2006-01-02")
}

// SortByDate orders a series ascending by date, in place.
// Ties sort estimated entries after real ones so a defensive skip in the
// estimator stays deterministic.
func SortByDate(series []Reading) {
	sort.SliceStable(series, func(i, j int) bool {
		if series[i].Date.Equal(series[j].Date) {
			return series[i].Kind != KindEstimated && series[j].Kind == KindEstimated
		}
		return series[i].Date.Before(series[j].Date)
	})
}

// Round2 rounds to two decimal places. Money and volume precision in this
// system is cosmetic, not financial-grade.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewEstimateID generates a synthetic id for an estimated entry.
// Estimated entries live only in derived in-memory state, so the id only
// needs to be unique within one regeneration pass.
func NewEstimateID(now time.Time) string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return fmt.Sprintf("est-%d-%s", now.UnixMilli(), hex.EncodeToString(buf[:]))
}
