package pricing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"fueltrack/internal/observability/metrics"
	reading "fueltrack/internal/readings/domain"
)

// fetchTimeout bounds each retailer request independently; one slow feed
// must not delay or abort the others.
const fetchTimeout = 5 * time.Second

// maxFeedBytes caps how much of a feed is read. The largest retailer
// feeds are station lists of a few hundred KB.
const maxFeedBytes = 8 << 20

// Clock provides time for aggregation stamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Aggregator fans out to every configured retailer feed in parallel,
// averages whatever prices come back, and degrades to the static default
// set when nothing does. It never surfaces a failure to its caller.
type Aggregator struct {
	sources []Source
	client  *http.Client
	clock   Clock
	logger  *log.Logger
}

// Option configures the aggregator.
type Option func(*Aggregator)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Aggregator) {
		if client != nil {
			a.client = client
		}
	}
}

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(a *Aggregator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAggregator constructs an aggregator over a retailer source list.
func NewAggregator(sources []Source, opts ...Option) (*Aggregator, error) {
	if len(sources) == 0 {
		return nil, errors.New("pricing: no sources configured")
	}
	a := &Aggregator{
		sources: append([]Source(nil), sources...),
		client:  &http.Client{},
		clock:   systemClock{},
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// FetchAverages queries all sources concurrently, waits for every request
// to settle, and returns the cross-retailer average. Failed sources are
// excluded from the pass; if none return usable data the static default
// set is returned verbatim.
func (a *Aggregator) FetchAverages(ctx context.Context) (result AveragePrices) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Printf("pricing: aggregation panic recovered: %v", r)
			result = DefaultPrices()
		}
	}()

	samples := a.collectSamples(ctx)
	if len(samples) == 0 {
		return DefaultPrices()
	}

	result = AveragePrices{
		Unleaded:      crossSourceMean(samples, func(s RetailerSample) *float64 { return s.Unleaded }, defaultUnleaded),
		Diesel:        crossSourceMean(samples, func(s RetailerSample) *float64 { return s.Diesel }, defaultDiesel),
		SuperUnleaded: crossSourceMean(samples, func(s RetailerSample) *float64 { return s.SuperUnleaded }, defaultSuperUnleaded),
		PremiumDiesel: crossSourceMean(samples, func(s RetailerSample) *float64 { return s.PremiumDiesel }, defaultPremiumDiesel),
		LastUpdated:   a.clock.Now(),
		Source:        SourceRetailerAverage,
		Retailers:     samples,
	}
	return result
}

// collectSamples issues one bounded request per source and waits for all
// of them to settle. Each request carries its own timeout and cancellation;
// no retries, no early exit.
func (a *Aggregator) collectSamples(ctx context.Context) []RetailerSample {
	results := make(chan *RetailerSample, len(a.sources))
	var wg sync.WaitGroup
	for _, source := range a.sources {
		wg.Add(1)
		go func(source Source) {
			defer wg.Done()
			sample, err := a.fetchSource(ctx, source)
			if err != nil {
				metrics.IncPriceFetch(source.Name, metrics.ResultError)
				a.logger.Printf("pricing: source %s skipped: %v", source.Name, err)
				results <- nil
				return
			}
			metrics.IncPriceFetch(source.Name, metrics.ResultSuccess)
			results <- sample
		}(source)
	}
	wg.Wait()
	close(results)

	var samples []RetailerSample
	for sample := range results {
		if sample != nil {
			samples = append(samples, *sample)
		}
	}
	return samples
}

func (a *Aggregator) fetchSource(ctx context.Context, source Source) (*RetailerSample, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pricing: non-2xx response %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}

	stations := parseStations(body)
	if len(stations) == 0 {
		return nil, errors.New("pricing: no station prices in feed")
	}

	sample := RetailerSample{
		Name:          source.Name,
		Unleaded:      fieldMean(stations, func(s stationPrices) *float64 { return s.unleaded }),
		Diesel:        fieldMean(stations, func(s stationPrices) *float64 { return s.diesel }),
		SuperUnleaded: fieldMean(stations, func(s stationPrices) *float64 { return s.superUnleaded }),
		PremiumDiesel: fieldMean(stations, func(s stationPrices) *float64 { return s.premiumDiesel }),
		Stations:      len(stations),
		ObservedAt:    a.clock.Now(),
	}
	if sample.Unleaded == nil && sample.Diesel == nil && sample.SuperUnleaded == nil && sample.PremiumDiesel == nil {
		return nil, errors.New("pricing: no usable price fields in feed")
	}
	return &sample, nil
}

// fieldMean averages one price field across a source's stations. A field
// with zero valid samples is omitted, not reported as zero.
func fieldMean(stations []stationPrices, field func(stationPrices) *float64) *float64 {
	var sum float64
	var count int
	for _, station := range stations {
		if value := field(station); value != nil {
			sum += *value
			count++
		}
	}
	if count == 0 {
		return nil
	}
	mean := reading.Round2(sum / float64(count))
	return &mean
}

// crossSourceMean averages one field across the sources that reported it,
// falling back to the static default when none did.
func crossSourceMean(samples []RetailerSample, field func(RetailerSample) *float64, fallback float64) float64 {
	var sum float64
	var count int
	for _, sample := range samples {
		if value := field(sample); value != nil {
			sum += *value
			count++
		}
	}
	if count == 0 {
		return fallback
	}
	return reading.Round2(sum / float64(count))
}
