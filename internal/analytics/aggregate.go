package analytics

import (
	"time"

	"fueltrack/internal/consumption"
	reading "fueltrack/internal/readings/domain"
)

// Granularity is the bucketing resolution for consumption points.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// IsValid checks if the granularity is one of the supported values.
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return true
	default:
		return false
	}
}

// Bucket aggregates the points of one period.
type Bucket struct {
	Key           string  `json:"key"`
	TotalQuantity float64 `json:"total_quantity"`
	TotalCost     float64 `json:"total_cost"`
	AverageDaily  float64 `json:"average_daily"`
	Count         int     `json:"count"`
}

// BucketPoints groups consumption points by period. Buckets appear in
// first-seen key order; callers needing chronological order sort by key
// (all key formats sort lexicographically by date).
func BucketPoints(points []consumption.Point, granularity Granularity) ([]Bucket, error) {
	if !granularity.IsValid() {
		return nil, ErrInvalidGranularity
	}

	index := make(map[string]int, len(points))
	var buckets []Bucket
	for _, point := range points {
		key := bucketKey(point.Date, granularity)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[i].TotalQuantity += point.Quantity
		buckets[i].TotalCost += point.Cost
		buckets[i].Count++
	}

	for i := range buckets {
		buckets[i].TotalQuantity = reading.Round2(buckets[i].TotalQuantity)
		buckets[i].TotalCost = reading.Round2(buckets[i].TotalCost)
		if buckets[i].Count > 0 {
			buckets[i].AverageDaily = reading.Round2(buckets[i].TotalQuantity / float64(buckets[i].Count))
		}
	}
	return buckets, nil
}

func bucketKey(date time.Time, granularity Granularity) string {
	day := reading.Day(date)
	switch granularity {
	case GranularityWeekly:
		return weekStart(day).Format("2006-01-02")
	case GranularityMonthly:
		return day.Format("2006-01")
	default:
		return day.Format("2006-01-02")
	}
}

// weekStart aligns a day to the Monday that starts its week.
func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
