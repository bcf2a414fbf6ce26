package reading

import (
	"context"
	"time"
)

// Repository persists manual and imported entries. Estimated entries never
// pass through here; they are regenerated into derived state on every
// mutation of the manual set.
type Repository interface {
	// List returns all persisted entries for a subject, ordered ascending
	// by date. A zero from/to means unbounded on that side.
	List(ctx context.Context, subjectID string, from, to time.Time) ([]Reading, error)
	Get(ctx context.Context, id string) (*Reading, error)
	Create(ctx context.Context, entry Reading) error
	Update(ctx context.Context, entry Reading) error
	Delete(ctx context.Context, id string) error
	// ClearFirstEntry unsets the first-entry flag on every entry of the
	// subject, keeping the at-most-one invariant before a new flag is set.
	ClearFirstEntry(ctx context.Context, subjectID string) error
}
