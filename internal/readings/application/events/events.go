package events

import (
	"time"

	reading "fueltrack/internal/readings/domain"
)

// EntryAdded fires after a manual entry is persisted.
type EntryAdded struct {
	Entry      reading.Reading
	OccurredAt time.Time
}

// EntryUpdated fires after a manual entry is changed, including
// first-entry flag moves.
type EntryUpdated struct {
	Entry      reading.Reading
	OccurredAt time.Time
}

// EntryDeleted fires after a manual entry is removed.
type EntryDeleted struct {
	EntryID    string
	SubjectID  string
	OccurredAt time.Time
}

// SeriesRecalculated fires after the derived series for a subject has been
// regenerated and swapped in.
type SeriesRecalculated struct {
	SubjectID  string
	Entries    int
	Points     int
	OccurredAt time.Time
}
