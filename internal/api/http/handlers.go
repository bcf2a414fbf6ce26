package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"fueltrack/internal/analytics"
	"fueltrack/internal/consumption"
	"fueltrack/internal/export"
	"fueltrack/internal/observability/metrics"
	"fueltrack/internal/pricing"
	"fueltrack/internal/readings/application"
	reading "fueltrack/internal/readings/domain"
)

const dayLayout = "2006-01-02"

// UsageHandler serves bucketed consumption with trend classification.
type UsageHandler struct {
	service *application.EntryService
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(service *application.EntryService) *UsageHandler {
	return &UsageHandler{service: service}
}

type usageResponse struct {
	SubjectID   string                      `json:"subject_id"`
	Granularity string                      `json:"granularity"`
	Points      []consumption.Point         `json:"points"`
	Buckets     []analytics.Bucket          `json:"buckets"`
	Trend       analytics.TrendResult       `json:"trend"`
	Efficiency  []analytics.EfficiencyPoint `json:"efficiency,omitempty"`
}

// ServeHTTP handles GET /api/v1/analytics/usage.
func (h *UsageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	subjectID := r.URL.Query().Get("subject_id")
	if subjectID == "" {
		http.Error(w, "subject_id is required", http.StatusBadRequest)
		return
	}
	granularity := analytics.Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = analytics.GranularityDaily
	}

	snapshot, err := h.service.Snapshot(r.Context(), subjectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	buckets, err := analytics.BucketPoints(snapshot.Points, granularity)
	if err != nil {
		http.Error(w, "granularity must be daily, weekly or monthly", http.StatusBadRequest)
		return
	}

	writeJSON(w, usageResponse{
		SubjectID:   subjectID,
		Granularity: string(granularity),
		Points:      snapshot.Points,
		Buckets:     buckets,
		Trend:       snapshot.Trend,
		Efficiency:  snapshot.Efficiency,
	})
}

// SeriesHandler serves the full derived series including estimates.
type SeriesHandler struct {
	service *application.EntryService
}

// NewSeriesHandler constructs a SeriesHandler.
func NewSeriesHandler(service *application.EntryService) *SeriesHandler {
	return &SeriesHandler{service: service}
}

type seriesEntry struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Quantity  float64 `json:"quantity"`
	UnitCost  float64 `json:"unit_cost,omitempty"`
	TotalCost float64 `json:"total_cost,omitempty"`
	Kind      string  `json:"kind"`
	Note      string  `json:"note,omitempty"`
}

// ServeHTTP handles GET /api/v1/analytics/series.
func (h *SeriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	subjectID := r.URL.Query().Get("subject_id")
	if subjectID == "" {
		http.Error(w, "subject_id is required", http.StatusBadRequest)
		return
	}
	snapshot, err := h.service.Snapshot(r.Context(), subjectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	payload := make([]seriesEntry, 0, len(snapshot.Series))
	for _, entry := range snapshot.Series {
		payload = append(payload, seriesEntry{
			ID:        entry.ID,
			Date:      entry.Date.Format(dayLayout),
			Quantity:  entry.Quantity,
			UnitCost:  entry.UnitCost,
			TotalCost: entry.TotalCost,
			Kind:      string(entry.Kind),
			Note:      entry.Note,
		})
	}
	writeJSON(w, payload)
}

// PricesHandler serves aggregated retailer fuel prices.
type PricesHandler struct {
	aggregator *pricing.Aggregator
}

// NewPricesHandler constructs a PricesHandler.
func NewPricesHandler(aggregator *pricing.Aggregator) *PricesHandler {
	return &PricesHandler{aggregator: aggregator}
}

// ServeHTTP handles GET /api/v1/prices.
func (h *PricesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.aggregator == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	prices := h.aggregator.FetchAverages(r.Context())
	result := metrics.ResultSuccess
	if prices.Source == pricing.SourceManual {
		result = metrics.ResultError
	}
	metrics.ObservePriceAggregation(result, time.Since(start))
	writeJSON(w, prices)
}

// ExportUsageHandler serves usage report downloads.
type ExportUsageHandler struct {
	service *application.EntryService
}

// NewExportUsageHandler constructs an ExportUsageHandler.
func NewExportUsageHandler(service *application.EntryService) *ExportUsageHandler {
	return &ExportUsageHandler{service: service}
}

// ServeHTTP handles GET /api/v1/exports/usage.{csv,xlsx,pdf}.
func (h *ExportUsageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	format := strings.TrimPrefix(r.URL.Path, "/api/v1/exports/usage.")
	subjectID := r.URL.Query().Get("subject_id")
	if subjectID == "" {
		http.Error(w, "subject_id is required", http.StatusBadRequest)
		return
	}
	granularity := analytics.Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = analytics.GranularityMonthly
	}

	start := time.Now()
	report, err := h.buildReport(r, subjectID, granularity)
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		respondReportError(w, err)
		return
	}

	var data []byte
	var contentType string
	switch format {
	case "csv":
		data, err = export.BuildCSV(*report)
		contentType = "text/csv; charset=utf-8"
	case "xlsx":
		data, err = export.BuildXLSX(*report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		data, err = export.BuildPDF(*report)
		contentType = "application/pdf"
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="usage.`+format+`"`)
	_, _ = w.Write(data)
}

func (h *ExportUsageHandler) buildReport(r *http.Request, subjectID string, granularity analytics.Granularity) (*export.Report, error) {
	snapshot, err := h.service.Snapshot(r.Context(), subjectID)
	if err != nil {
		return nil, err
	}
	buckets, err := analytics.BucketPoints(snapshot.Points, granularity)
	if err != nil {
		return nil, err
	}
	return &export.Report{
		SubjectID:   subjectID,
		Granularity: granularity,
		Points:      snapshot.Points,
		Buckets:     buckets,
		Trend:       snapshot.Trend,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func respondReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analytics.ErrInvalidGranularity):
		http.Error(w, "granularity must be daily, weekly or monthly", http.StatusBadRequest)
	case errors.Is(err, reading.ErrEmptySubjectID):
		http.Error(w, "subject_id is required", http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
