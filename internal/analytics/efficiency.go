package analytics

import (
	"time"

	reading "fueltrack/internal/readings/domain"
)

// EfficiencyPoint is distance covered per unit of fuel between two
// consecutive readings that both carry an odometer value.
type EfficiencyPoint struct {
	Date       time.Time `json:"date"`
	Distance   float64   `json:"distance"`
	Quantity   float64   `json:"quantity"`
	Efficiency float64   `json:"efficiency"`
}

// ComputeEfficiency walks a sorted series and emits a point wherever both
// the mileage delta and the quantity are strictly positive. Entries without
// an odometer, resets and zero fills are omitted, not reported as zero.
func ComputeEfficiency(series []reading.Reading) []EfficiencyPoint {
	var points []EfficiencyPoint
	var prev *reading.Reading

	for i := range series {
		entry := series[i]
		if entry.Odometer == nil {
			continue
		}
		if prev != nil {
			distance := *entry.Odometer - *prev.Odometer
			if distance > 0 && entry.Quantity > 0 {
				points = append(points, EfficiencyPoint{
					Date:       entry.Day(),
					Distance:   reading.Round2(distance),
					Quantity:   entry.Quantity,
					Efficiency: reading.Round2(distance / entry.Quantity),
				})
			}
		}
		prev = &series[i]
	}
	return points
}
