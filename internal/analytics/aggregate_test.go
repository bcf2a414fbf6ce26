package analytics

import (
	"testing"
	"time"

	"fueltrack/internal/consumption"
	reading "fueltrack/internal/readings/domain"
)

func point(yyyy int, mm time.Month, dd int, quantity, cost float64) consumption.Point {
	return consumption.Point{
		Date:     time.Date(yyyy, mm, dd, 0, 0, 0, 0, time.UTC),
		Quantity: quantity,
		Cost:     cost,
	}
}

func TestBucketPointsDaily(t *testing.T) {
	points := []consumption.Point{
		point(2024, time.May, 1, 10, 15),
		point(2024, time.May, 1, 5, 7.5),
		point(2024, time.May, 2, 20, 30),
	}

	buckets, err := BucketPoints(points, GranularityDaily)
	if err != nil {
		t.Fatalf("bucket points: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Key != "2024-05-01" {
		t.Fatalf("expected first-seen key ordering, got %s", buckets[0].Key)
	}
	if buckets[0].TotalQuantity != 15 || buckets[0].Count != 2 {
		t.Fatalf("unexpected first bucket: %+v", buckets[0])
	}
	if buckets[0].AverageDaily != 7.5 {
		t.Fatalf("expected average 7.5, got %v", buckets[0].AverageDaily)
	}
}

func TestBucketPointsWeeklyMondayAligned(t *testing.T) {
	// 2024-05-01 is a Wednesday; its week starts Monday 2024-04-29.
	// 2024-05-06 is the following Monday.
	points := []consumption.Point{
		point(2024, time.May, 1, 10, 0),
		point(2024, time.May, 5, 10, 0),
		point(2024, time.May, 6, 10, 0),
	}

	buckets, err := BucketPoints(points, GranularityWeekly)
	if err != nil {
		t.Fatalf("bucket points: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Key != "2024-04-29" {
		t.Fatalf("expected Monday-aligned week key, got %s", buckets[0].Key)
	}
	if buckets[1].Key != "2024-05-06" {
		t.Fatalf("expected next week key, got %s", buckets[1].Key)
	}
}

func TestBucketPointsMonthlyRoundTrip(t *testing.T) {
	points := []consumption.Point{
		point(2024, time.April, 30, 12.34, 18.51),
		point(2024, time.May, 1, 10, 15),
		point(2024, time.May, 15, 20, 30),
		point(2024, time.June, 2, 7.5, 11.25),
	}

	buckets, err := BucketPoints(points, GranularityMonthly)
	if err != nil {
		t.Fatalf("bucket points: %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}

	var wantQuantity, wantCost, gotQuantity, gotCost float64
	for _, p := range points {
		wantQuantity += p.Quantity
		wantCost += p.Cost
	}
	for _, b := range buckets {
		gotQuantity += b.TotalQuantity
		gotCost += b.TotalCost
	}
	if reading.Round2(gotQuantity) != reading.Round2(wantQuantity) {
		t.Fatalf("quantity lost across aggregation: want %v, got %v", wantQuantity, gotQuantity)
	}
	if reading.Round2(gotCost) != reading.Round2(wantCost) {
		t.Fatalf("cost lost across aggregation: want %v, got %v", wantCost, gotCost)
	}
}

func TestBucketPointsInvalidGranularity(t *testing.T) {
	if _, err := BucketPoints(nil, Granularity("hourly")); err == nil {
		t.Fatal("expected error for invalid granularity")
	}
}

func TestClassifyTrendStable(t *testing.T) {
	points := []consumption.Point{
		point(2024, time.May, 1, 10, 0),
		point(2024, time.May, 2, 10, 0),
		point(2024, time.May, 3, 10, 0),
		point(2024, time.May, 4, 10, 0),
	}
	result := ClassifyTrend(points)
	if result.Trend != TrendStable {
		t.Fatalf("expected stable, got %s", result.Trend)
	}
	if result.ChangePercent != 0 {
		t.Fatalf("expected 0%% change, got %v", result.ChangePercent)
	}
}

func TestClassifyTrendIncreasing(t *testing.T) {
	points := []consumption.Point{
		point(2024, time.May, 1, 10, 0),
		point(2024, time.May, 2, 10, 0),
		point(2024, time.May, 3, 20, 0),
		point(2024, time.May, 4, 20, 0),
	}
	result := ClassifyTrend(points)
	if result.Trend != TrendIncreasing {
		t.Fatalf("expected increasing, got %s", result.Trend)
	}
	if result.ChangePercent != 100 {
		t.Fatalf("expected 100%% change, got %v", result.ChangePercent)
	}
}

func TestClassifyTrendDecreasing(t *testing.T) {
	points := []consumption.Point{
		point(2024, time.May, 1, 20, 0),
		point(2024, time.May, 2, 20, 0),
		point(2024, time.May, 3, 10, 0),
		point(2024, time.May, 4, 10, 0),
	}
	if result := ClassifyTrend(points); result.Trend != TrendDecreasing {
		t.Fatalf("expected decreasing, got %s", result.Trend)
	}
}

func TestClassifyTrendTooFewPoints(t *testing.T) {
	points := []consumption.Point{
		point(2024, time.May, 1, 10, 0),
		point(2024, time.May, 2, 100, 0),
	}
	result := ClassifyTrend(points)
	if result.Trend != TrendStable || result.ChangePercent != 0 {
		t.Fatalf("expected stable/0 below 4 points, got %+v", result)
	}
}

func TestClassifyTrendOddLength(t *testing.T) {
	// Extra point lands in the second half: halves are [10,10] and [10,30,30].
	points := []consumption.Point{
		point(2024, time.May, 1, 10, 0),
		point(2024, time.May, 2, 10, 0),
		point(2024, time.May, 3, 10, 0),
		point(2024, time.May, 4, 30, 0),
		point(2024, time.May, 5, 30, 0),
	}
	result := ClassifyTrend(points)
	if result.Trend != TrendIncreasing {
		t.Fatalf("expected increasing, got %s", result.Trend)
	}
}

func TestComputeEfficiency(t *testing.T) {
	odo := func(v float64) *float64 { return &v }
	series := []reading.Reading{
		{SubjectID: "car-1", Date: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), Quantity: 40, Odometer: odo(1000)},
		{SubjectID: "car-1", Date: time.Date(2024, time.May, 8, 0, 0, 0, 0, time.UTC), Quantity: 35, Odometer: odo(1350)},
		// No odometer: skipped entirely.
		{SubjectID: "car-1", Date: time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC), Quantity: 10},
		// Reset: omitted, not zero.
		{SubjectID: "car-1", Date: time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC), Quantity: 30, Odometer: odo(100)},
	}

	points := ComputeEfficiency(series)
	if len(points) != 1 {
		t.Fatalf("expected 1 efficiency point, got %d", len(points))
	}
	if points[0].Efficiency != 10 {
		t.Fatalf("expected 350/35 = 10, got %v", points[0].Efficiency)
	}
}
