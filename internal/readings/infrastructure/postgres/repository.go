package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	reading "fueltrack/internal/readings/domain"
)

// EntryRepository persists manual and imported entries.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository constructs a repository.
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// List returns entries for a subject ordered ascending by date.
func (r *EntryRepository) List(ctx context.Context, subjectID string, from, to time.Time) ([]reading.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	if subjectID == "" {
		return nil, reading.ErrEmptySubjectID
	}
	if from.IsZero() {
		from = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, subject_id, quantity, unit_cost, total_cost, entry_date,
	kind, is_first_entry, odometer, note
FROM entries
WHERE subject_id = $1
	AND entry_date >= $2
	AND entry_date < $3
ORDER BY entry_date ASC`, subjectID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []reading.Reading
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Get fetches one entry.
func (r *EntryRepository) Get(ctx context.Context, id string) (*reading.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("entry repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, subject_id, quantity, unit_cost, total_cost, entry_date,
	kind, is_first_entry, odometer, note
FROM entries
WHERE id = $1
LIMIT 1`, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reading.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

// Create inserts an entry.
func (r *EntryRepository) Create(ctx context.Context, entry reading.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("entry repo: nil db")
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	var odometer sql.NullFloat64
	if entry.Odometer != nil {
		odometer = sql.NullFloat64{Float64: *entry.Odometer, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO entries (
	id, subject_id, quantity, unit_cost, total_cost, entry_date,
	kind, is_first_entry, odometer, note
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		entry.ID, entry.SubjectID, entry.Quantity, entry.UnitCost, entry.TotalCost,
		entry.Date.UTC(), string(entry.Kind), entry.IsFirstEntry, odometer, entry.Note)
	return err
}

// Update replaces an entry.
func (r *EntryRepository) Update(ctx context.Context, entry reading.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("entry repo: nil db")
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	var odometer sql.NullFloat64
	if entry.Odometer != nil {
		odometer = sql.NullFloat64{Float64: *entry.Odometer, Valid: true}
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE entries SET
	subject_id = $2,
	quantity = $3,
	unit_cost = $4,
	total_cost = $5,
	entry_date = $6,
	kind = $7,
	is_first_entry = $8,
	odometer = $9,
	note = $10
WHERE id = $1`,
		entry.ID, entry.SubjectID, entry.Quantity, entry.UnitCost, entry.TotalCost,
		entry.Date.UTC(), string(entry.Kind), entry.IsFirstEntry, odometer, entry.Note)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("entry repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// ClearFirstEntry unsets the first-entry flag across a subject.
func (r *EntryRepository) ClearFirstEntry(ctx context.Context, subjectID string) error {
	if r == nil || r.db == nil {
		return errors.New("entry repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
UPDATE entries SET is_first_entry = FALSE
WHERE subject_id = $1 AND is_first_entry = TRUE`, subjectID)
	return err
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return reading.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*reading.Reading, error) {
	var entry reading.Reading
	var kind string
	var odometer sql.NullFloat64
	if err := row.Scan(
		&entry.ID,
		&entry.SubjectID,
		&entry.Quantity,
		&entry.UnitCost,
		&entry.TotalCost,
		&entry.Date,
		&kind,
		&entry.IsFirstEntry,
		&odometer,
		&entry.Note,
	); err != nil {
		return nil, err
	}
	entry.Date = entry.Date.UTC()
	entry.Kind = reading.Kind(kind)
	if odometer.Valid {
		v := odometer.Float64
		entry.Odometer = &v
	}
	return &entry, nil
}
