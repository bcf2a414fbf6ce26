package events

import "time"

// TariffChanged fires after a tariff period is saved or deleted. Derived
// series priced from tariff rates must be recomputed.
type TariffChanged struct {
	PeriodID   string
	Deleted    bool
	OccurredAt time.Time
}
