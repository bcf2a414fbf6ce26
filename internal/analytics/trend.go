package analytics

import (
	"math"

	"fueltrack/internal/consumption"
	reading "fueltrack/internal/readings/domain"
)

// Trend is the qualitative direction of a consumption series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// trendThresholdRatio is the dead band around "no change": the halves must
// differ by more than 5% of the first-half average to leave stable.
const trendThresholdRatio = 0.05

// TrendResult carries the direction and the relative change.
// ChangePercent is always |secondHalfAvg-firstHalfAvg|/firstHalfAvg*100,
// rounded to 2dp; zero when the first half averages zero.
type TrendResult struct {
	Trend         Trend   `json:"trend"`
	ChangePercent float64 `json:"change_percent"`
}

// ClassifyTrend compares the first and second half of a point series by
// average quantity. Fewer than four points is classified stable; odd-length
// series put the extra point in the second half.
func ClassifyTrend(points []consumption.Point) TrendResult {
	if len(points) < 4 {
		return TrendResult{Trend: TrendStable}
	}

	mid := len(points) / 2
	firstAvg := averageQuantity(points[:mid])
	secondAvg := averageQuantity(points[mid:])

	difference := secondAvg - firstAvg
	threshold := firstAvg * trendThresholdRatio

	result := TrendResult{Trend: TrendStable}
	if difference > threshold {
		result.Trend = TrendIncreasing
	} else if difference < -threshold {
		result.Trend = TrendDecreasing
	}
	if firstAvg > 0 {
		result.ChangePercent = reading.Round2(math.Abs(difference) / firstAvg * 100)
	}
	return result
}

func averageQuantity(points []consumption.Point) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, point := range points {
		sum += point.Quantity
	}
	return sum / float64(len(points))
}
