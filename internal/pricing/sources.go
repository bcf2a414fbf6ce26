package pricing

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is one external retailer price feed.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// sourcesFile is the YAML shape for a retailer source list.
type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// DefaultSources lists the UK retailer open-data fuel price feeds.
func DefaultSources() []Source {
	return []Source{
		{Name: "applegreen", URL: "https://applegreenstores.com/fuel-prices/data.json"},
		{Name: "ascona", URL: "https://fuelprices.asconagroup.co.uk/newfuel.json"},
		{Name: "asda", URL: "https://storelocator.asda.com/fuel_prices_data.json"},
		{Name: "bp", URL: "https://www.bp.com/en_gb/united-kingdom/home/fuelprices/fuel_prices_data.json"},
		{Name: "esso", URL: "https://fuelprices.esso.co.uk/latestdata.json"},
		{Name: "jet", URL: "https://jetlocal.co.uk/fuel_prices_data.json"},
		{Name: "morrisons", URL: "https://www.morrisons.com/fuel-prices/fuel.json"},
		{Name: "moto", URL: "https://moto-way.com/fuel-price/fuel_prices.json"},
		{Name: "rontec", URL: "https://www.rontec-servicestations.co.uk/fuel-prices/data/fuel_prices_data.json"},
		{Name: "sainsburys", URL: "https://api.sainsburys.co.uk/v1/exports/latest/fuel_prices_data.json"},
		{Name: "tesco", URL: "https://www.tesco.com/fuel_prices/fuel_prices_data.json"},
	}
}

// LoadSources reads a retailer source list from a YAML file, falling back
// to the built-in defaults when no path is configured.
func LoadSources(path string) ([]Source, error) {
	if path == "" {
		return DefaultSources(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Sources) == 0 {
		return nil, errors.New("pricing: source file lists no sources")
	}
	for _, source := range file.Sources {
		if source.Name == "" || source.URL == "" {
			return nil, errors.New("pricing: source requires name and url")
		}
	}
	return file.Sources, nil
}
