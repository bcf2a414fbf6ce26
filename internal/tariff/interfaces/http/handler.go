package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"fueltrack/internal/audit"
	"fueltrack/internal/auth"
	"fueltrack/internal/tariff/application"
	tariff "fueltrack/internal/tariff/domain"
)

const (
	basePath  = "/api/v1/tariffs"
	dayLayout = "2006-01-02"
)

// Handler provides tariff period HTTP endpoints.
type Handler struct {
	service     *application.TariffService
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *application.TariffService, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("tariffs handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

type periodPayload struct {
	ID                   string  `json:"id,omitempty"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date,omitempty"`
	UnitRate             float64 `json:"unit_rate"`
	StandingCharge       float64 `json:"standing_charge"`
	EstimatedAnnualUsage float64 `json:"estimated_annual_usage,omitempty"`
	EstimatedAnnualCost  float64 `json:"estimated_annual_cost,omitempty"`
}

// ServeHTTP routes tariff collection and item requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, basePath)
	rest = strings.Trim(rest, "/")
	switch {
	case rest == "":
		h.serveCollection(w, r)
	case !strings.Contains(rest, "/"):
		h.serveItem(w, r, rest)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) serveCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		periods, err := h.service.ListPeriods(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		payload := make([]periodPayload, 0, len(periods))
		for _, period := range periods {
			payload = append(payload, toPayload(period))
		}
		writeJSON(w, payload)
	case http.MethodPost:
		h.handleSave(w, r, "")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) serveItem(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		period, err := h.service.GetPeriod(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		writeJSON(w, toPayload(*period))
	case http.MethodPut:
		h.handleSave(w, r, id)
	case http.MethodDelete:
		if err := h.service.DeletePeriod(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.logAudit(r, "tariff.delete", id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request, id string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var payload periodPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	period, err := fromPayload(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if id != "" {
		period.ID = id
	}

	saved, err := h.service.SavePeriod(r.Context(), period)
	if err != nil {
		respondError(w, err)
		return
	}
	if id == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toPayload(*saved))
	} else {
		writeJSON(w, toPayload(*saved))
	}
	h.logAudit(r, "tariff.save", saved.ID)
}

func (h *Handler) logAudit(r *http.Request, action, periodID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.UserIDFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "tariff_period",
		ResourceID:   periodID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func toPayload(period tariff.Period) periodPayload {
	payload := periodPayload{
		ID:                   period.ID,
		StartDate:            period.StartDate.Format(dayLayout),
		UnitRate:             period.UnitRate,
		StandingCharge:       period.StandingCharge,
		EstimatedAnnualUsage: period.EstimatedAnnualUsage,
		EstimatedAnnualCost:  period.EstimatedAnnualCost,
	}
	if period.EndDate != nil {
		payload.EndDate = period.EndDate.Format(dayLayout)
	}
	return payload
}

func fromPayload(payload periodPayload) (tariff.Period, error) {
	start, err := time.Parse(dayLayout, payload.StartDate)
	if err != nil {
		return tariff.Period{}, errors.New("start_date must be YYYY-MM-DD")
	}
	period := tariff.Period{
		ID:                   payload.ID,
		StartDate:            start.UTC(),
		UnitRate:             payload.UnitRate,
		StandingCharge:       payload.StandingCharge,
		EstimatedAnnualUsage: payload.EstimatedAnnualUsage,
		EstimatedAnnualCost:  payload.EstimatedAnnualCost,
	}
	if payload.EndDate != "" {
		end, err := time.Parse(dayLayout, payload.EndDate)
		if err != nil {
			return tariff.Period{}, errors.New("end_date must be YYYY-MM-DD")
		}
		utc := end.UTC()
		period.EndDate = &utc
	}
	return period, nil
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tariff.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, tariff.ErrOverlappingPeriods):
		http.Error(w, "overlapping period", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
