package memory

import (
	"context"
	"sync"
	"time"

	reading "fueltrack/internal/readings/domain"
)

// EntryRepository is an in-memory implementation of the entry repository,
// used in tests and for local runs without a database.
type EntryRepository struct {
	mu      sync.RWMutex
	entries map[string]reading.Reading
}

// NewEntryRepository constructs a repository.
func NewEntryRepository() *EntryRepository {
	return &EntryRepository{entries: make(map[string]reading.Reading)}
}

// List returns entries for a subject ordered ascending by date.
func (r *EntryRepository) List(ctx context.Context, subjectID string, from, to time.Time) ([]reading.Reading, error) {
	_ = ctx
	if subjectID == "" {
		return nil, reading.ErrEmptySubjectID
	}

	r.mu.RLock()
	var entries []reading.Reading
	for _, entry := range r.entries {
		if entry.SubjectID != subjectID {
			continue
		}
		if !from.IsZero() && entry.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !entry.Date.Before(to) {
			continue
		}
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	reading.SortByDate(entries)
	return entries, nil
}

// Get fetches one entry.
func (r *EntryRepository) Get(ctx context.Context, id string) (*reading.Reading, error) {
	_ = ctx
	r.mu.RLock()
	entry, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, reading.ErrNotFound
	}
	return &entry, nil
}

// Create inserts an entry.
func (r *EntryRepository) Create(ctx context.Context, entry reading.Reading) error {
	_ = ctx
	if err := entry.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.entries[entry.ID] = entry
	r.mu.Unlock()
	return nil
}

// Update replaces an entry.
func (r *EntryRepository) Update(ctx context.Context, entry reading.Reading) error {
	_ = ctx
	if err := entry.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.ID]; !ok {
		return reading.ErrNotFound
	}
	r.entries[entry.ID] = entry
	return nil
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return reading.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

// ClearFirstEntry unsets the first-entry flag across a subject.
func (r *EntryRepository) ClearFirstEntry(ctx context.Context, subjectID string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.entries {
		if entry.SubjectID == subjectID && entry.IsFirstEntry {
			entry.IsFirstEntry = false
			r.entries[id] = entry
		}
	}
	return nil
}
