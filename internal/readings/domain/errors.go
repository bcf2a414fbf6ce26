package reading

import "errors"

var (
	ErrEmptySubjectID          = errors.New("reading: empty subject id")
	ErrInvalidDate             = errors.New("reading: invalid date")
	ErrInvalidKind             = errors.New("reading: invalid kind")
	ErrNegativeValue           = errors.New("reading: negative value")
	ErrEstimatedNotPersistable = errors.New("reading: estimated entries are not persistable")
	ErrNotFound                = errors.New("reading: entry not found")
	ErrDuplicateEntry          = errors.New("reading: duplicate entry for subject and day")
)
