package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "fueltrack_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	entryMutations *prometheus.CounterVec

	recalcTotal   *prometheus.CounterVec
	recalcLatency *prometheus.HistogramVec

	estimatesGenerated prometheus.Counter

	priceFetchTotal   *prometheus.CounterVec
	priceFetchLatency *prometheus.HistogramVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		entryMutations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "entry_mutations_total",
				Help: "Total entry mutations by operation and result",
			},
			[]string{"operation", "result"},
		)

		recalcTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "series_recalculations_total",
				Help: "Total derived series recalculations by result",
			},
			[]string{"result"},
		)
		recalcLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "series_recalculation_latency_seconds",
				Help:    "Derived series recalculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		estimatesGenerated = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "estimates_generated_total",
				Help: "Total gap-fill estimates generated",
			},
		)

		priceFetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "price_fetch_total",
				Help: "Total retailer price feed fetches by source and result",
			},
			[]string{"source", "result"},
		)
		priceFetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "price_fetch_latency_seconds",
				Help:    "Retailer price aggregation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			entryMutations,
			recalcTotal,
			recalcLatency,
			estimatesGenerated,
			priceFetchTotal,
			priceFetchLatency,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncEntryMutation increments the mutation counter for one operation.
func IncEntryMutation(operation, result string) {
	if operation == "" {
		operation = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if entryMutations != nil {
		entryMutations.WithLabelValues(operation, result).Inc()
	}
}

// ObserveRecalculation records recalculation latency and result.
func ObserveRecalculation(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if recalcTotal != nil {
		recalcTotal.WithLabelValues(result).Inc()
	}
	if recalcLatency != nil {
		recalcLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddEstimatesGenerated increments the estimate counter by count.
func AddEstimatesGenerated(count int) {
	if count <= 0 {
		return
	}
	if estimatesGenerated != nil {
		estimatesGenerated.Add(float64(count))
	}
}

// IncPriceFetch increments the per-source price fetch counter.
func IncPriceFetch(source, result string) {
	if source == "" {
		source = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if priceFetchTotal != nil {
		priceFetchTotal.WithLabelValues(source, result).Inc()
	}
}

// ObservePriceAggregation records one full aggregation pass.
func ObservePriceAggregation(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if priceFetchLatency != nil {
		priceFetchLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
