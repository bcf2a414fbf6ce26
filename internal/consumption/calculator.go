package consumption

import (
	"log"
	"time"

	reading "fueltrack/internal/readings/domain"
)

// Point is one per-date consumption data point. Points are the direct
// input to bucketing, trend classification and export.
type Point struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
	Cost     float64   `json:"cost"`
}

// CostFunc derives the cost of a single entry. The default takes the
// pre-computed total cost carried on the entry; metered subjects use a
// tariff-backed lookup instead.
type CostFunc func(entry reading.Reading) float64

// EntryTotalCost is the default cost function for fuel top-ups.
func EntryTotalCost(entry reading.Reading) float64 {
	return reading.Round2(entry.TotalCost)
}

// Calculator turns a chronologically sorted reading series into per-date
// consumption points. The semantics parameter is fixed per subject type:
// additive subjects report the logged quantity directly, cumulative
// subjects report the odometer delta between consecutive entries.
type Calculator struct {
	semantics reading.Semantics
	cost      CostFunc
	logger    *log.Logger
}

// Option configures the calculator.
type Option func(*Calculator)

// WithCostFunc overrides the cost function.
func WithCostFunc(cost CostFunc) Option {
	return func(c *Calculator) {
		if cost != nil {
			c.cost = cost
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCalculator constructs a calculator for one subject type.
func NewCalculator(semantics reading.Semantics, opts ...Option) (*Calculator, error) {
	if !semantics.IsValid() {
		return nil, ErrInvalidSemantics
	}
	c := &Calculator{
		semantics: semantics,
		cost:      EntryTotalCost,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ComputePoints converts a sorted series into consumption points.
// The first-entry baseline contributes a zero point; every other entry
// produces one visible point (estimated entries included). Negative
// values are clamped to zero and logged, never raised.
func (c *Calculator) ComputePoints(series []reading.Reading) []Point {
	if len(series) == 0 {
		return nil
	}

	if len(series) == 1 {
		// A lone non-baseline reading has no prior point to derive
		// consumption from.
		if !series[0].IsFirstEntry {
			return nil
		}
		return []Point{{Date: series[0].Day()}}
	}

	points := make([]Point, 0, len(series))
	if series[0].IsFirstEntry {
		points = append(points, Point{Date: series[0].Day()})
	}

	for i := 1; i < len(series); i++ {
		entry := series[i]
		if entry.IsFirstEntry {
			continue
		}

		quantity := c.quantityFor(series[i-1], entry)
		points = append(points, Point{
			Date:     entry.Day(),
			Quantity: reading.Round2(quantity),
			Cost:     c.cost(entry),
		})
	}
	return points
}

func (c *Calculator) quantityFor(prev, curr reading.Reading) float64 {
	switch c.semantics {
	case reading.SemanticsCumulative:
		if prev.Odometer == nil || curr.Odometer == nil {
			return 0
		}
		delta := *curr.Odometer - *prev.Odometer
		if delta < 0 {
			// Meter reset or data error: clamp and continue.
			c.logger.Printf("consumption: negative delta clamped for subject=%s date=%s delta=%.2f", curr.SubjectID, reading.DayKey(curr.Date), delta)
			return 0
		}
		return delta
	default:
		if curr.Quantity < 0 {
			c.logger.Printf("consumption: negative quantity clamped for subject=%s date=%s", curr.SubjectID, reading.DayKey(curr.Date))
			return 0
		}
		return curr.Quantity
	}
}
