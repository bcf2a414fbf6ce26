package pricing

import (
	"encoding/json"
	"strconv"
)

// Retailer feeds follow the UK road fuel price open data scheme loosely at
// best; key spellings and nesting vary per retailer. Parsing is tolerant:
// invalid values are discarded per-field, never per-record.
var (
	unleadedKeys      = []string{"unleaded", "Unleaded", "E10", "e10", "petrol", "unleaded_price"}
	dieselKeys        = []string{"diesel", "Diesel", "B7", "b7", "diesel_price"}
	superUnleadedKeys = []string{"super_unleaded", "superUnleaded", "super", "E5", "e5"}
	premiumDieselKeys = []string{"premium_diesel", "premiumDiesel", "premium", "SDV", "sdv"}
)

// stationPrices holds whichever price fields one station record carried.
type stationPrices struct {
	unleaded      *float64
	diesel        *float64
	superUnleaded *float64
	premiumDiesel *float64
}

// parseStations accepts a top-level array, {"stations":[...]},
// {"data":[...]}, or a single station object.
func parseStations(body []byte) []stationPrices {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil
	}

	var records []any
	switch value := root.(type) {
	case []any:
		records = value
	case map[string]any:
		if list, ok := value["stations"].([]any); ok {
			records = list
		} else if list, ok := value["data"].([]any); ok {
			records = list
		} else {
			records = []any{value}
		}
	default:
		return nil
	}

	var stations []stationPrices
	for _, record := range records {
		fields, ok := record.(map[string]any)
		if !ok {
			continue
		}
		prices := parseRecord(fields)
		if prices != (stationPrices{}) {
			stations = append(stations, prices)
		}
	}
	return stations
}

func parseRecord(fields map[string]any) stationPrices {
	// Prices may sit on the record itself or nested under "prices".
	if nested, ok := fields["prices"].(map[string]any); ok {
		if prices := extractPrices(nested); prices != (stationPrices{}) {
			return prices
		}
	}
	return extractPrices(fields)
}

func extractPrices(fields map[string]any) stationPrices {
	return stationPrices{
		unleaded:      extractPrice(fields, unleadedKeys),
		diesel:        extractPrice(fields, dieselKeys),
		superUnleaded: extractPrice(fields, superUnleadedKeys),
		premiumDiesel: extractPrice(fields, premiumDieselKeys),
	}
}

// extractPrice tries the primary key then each alternate spelling and
// returns the first valid positive number.
func extractPrice(fields map[string]any, keys []string) *float64 {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if value, ok := asPrice(raw); ok {
			return &value
		}
	}
	return nil
}

func asPrice(raw any) (float64, bool) {
	switch value := raw.(type) {
	case float64:
		if value > 0 {
			return value, true
		}
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil && parsed > 0 {
			return parsed, true
		}
	}
	return 0, false
}
