package tariff

import "errors"

var (
	ErrInvalidStartDate   = errors.New("tariff: invalid start date")
	ErrEndBeforeStart     = errors.New("tariff: end date not after start date")
	ErrNegativeRate       = errors.New("tariff: negative rate")
	ErrOverlappingPeriods = errors.New("tariff: overlapping periods")
	ErrNoPeriodForDate    = errors.New("tariff: no period covers date")
	ErrNotFound           = errors.New("tariff: period not found")
)
