package tariff

import (
	"fueltrack/internal/consumption"
	reading "fueltrack/internal/readings/domain"
)

// CostFunc builds a consumption cost function backed by a rate lookup.
// Each daily point costs quantity * unit rate plus one day's standing
// charge, converted from pence to pounds. Entries on dates no period
// covers cost zero rather than failing the batch.
func CostFunc(periods []Period) consumption.CostFunc {
	return func(entry reading.Reading) float64 {
		period, err := RateAt(periods, entry.Date)
		if err != nil {
			return 0
		}
		pence := entry.Quantity*period.UnitRate + period.StandingCharge
		return reading.Round2(pence / 100)
	}
}
