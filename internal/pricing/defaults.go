package pricing

import "time"

// Static fallback prices in pence per litre, used when no retailer feed
// returns usable data.
const (
	defaultUnleaded      = 145.9
	defaultDiesel        = 152.9
	defaultSuperUnleaded = 159.9
	defaultPremiumDiesel = 164.9
)

// defaultLastUpdated stamps the static price set so callers can tell a
// fallback from a live aggregate.
var defaultLastUpdated = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultPrices returns the static fallback price set.
func DefaultPrices() AveragePrices {
	return AveragePrices{
		Unleaded:      defaultUnleaded,
		Diesel:        defaultDiesel,
		SuperUnleaded: defaultSuperUnleaded,
		PremiumDiesel: defaultPremiumDiesel,
		LastUpdated:   defaultLastUpdated,
		Source:        SourceManual,
	}
}
