package pricing

import "time"

// PriceSource tags where an averaged price set came from.
type PriceSource string

const (
	// SourceManual marks the static default price set used when no
	// retailer reported usable data.
	SourceManual PriceSource = "MANUAL"
	// SourceRetailerAverage marks a live cross-retailer average.
	SourceRetailerAverage PriceSource = "RETAILER_AVERAGE"
)

// RetailerSample is one retailer's averaged prices for a single
// aggregation pass. Fields with no valid station samples are nil.
// Samples are transient and recomputed on every request.
type RetailerSample struct {
	Name          string    `json:"name"`
	Unleaded      *float64  `json:"unleaded,omitempty"`
	Diesel        *float64  `json:"diesel,omitempty"`
	SuperUnleaded *float64  `json:"super_unleaded,omitempty"`
	PremiumDiesel *float64  `json:"premium_diesel,omitempty"`
	Stations      int       `json:"stations"`
	ObservedAt    time.Time `json:"observed_at"`
}

// AveragePrices is the cross-retailer aggregate, in pence per litre.
// Fields no source reported fall back to the static defaults.
type AveragePrices struct {
	Unleaded      float64          `json:"unleaded"`
	Diesel        float64          `json:"diesel"`
	SuperUnleaded float64          `json:"super_unleaded"`
	PremiumDiesel float64          `json:"premium_diesel"`
	LastUpdated   time.Time        `json:"last_updated"`
	Source        PriceSource      `json:"source"`
	Retailers     []RetailerSample `json:"retailers,omitempty"`
}
