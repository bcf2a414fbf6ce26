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
	"fueltrack/internal/observability/metrics"
	"fueltrack/internal/readings/application"
	reading "fueltrack/internal/readings/domain"
)

const (
	basePath  = "/api/v1/entries"
	dayLayout = "2006-01-02"
)

// Handler provides entry HTTP endpoints.
type Handler struct {
	service     *application.EntryService
	auditLogger audit.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *application.EntryService, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("entries handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

type entryPayload struct {
	ID           string   `json:"id,omitempty"`
	SubjectID    string   `json:"subject_id"`
	Quantity     float64  `json:"quantity"`
	UnitCost     float64  `json:"unit_cost,omitempty"`
	TotalCost    float64  `json:"total_cost,omitempty"`
	Date         string   `json:"date"`
	Kind         string   `json:"kind,omitempty"`
	IsFirstEntry bool     `json:"is_first_entry,omitempty"`
	Odometer     *float64 `json:"odometer,omitempty"`
	Note         string   `json:"note,omitempty"`
}

// ServeHTTP routes entry collection and item requests.
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
	case strings.HasSuffix(rest, "/first-entry"):
		h.serveFirstEntry(w, r, strings.TrimSuffix(rest, "/first-entry"))
	case !strings.Contains(rest, "/"):
		h.serveItem(w, r, rest)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) serveCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) serveItem(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, id)
	case http.MethodPut:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	subjectID := r.URL.Query().Get("subject_id")
	if subjectID == "" {
		http.Error(w, "subject_id is required", http.StatusBadRequest)
		return
	}
	from, err := parseDateQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.service.ListEntries(r.Context(), subjectID, from, to)
	if err != nil {
		respondError(w, err)
		return
	}
	payload := make([]entryPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, toPayload(entry))
	}
	writeJSON(w, payload)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	entry, err := h.service.GetEntry(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, toPayload(*entry))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	created, err := h.service.CreateEntry(r.Context(), entry)
	if err != nil {
		metrics.IncEntryMutation("create", metrics.ResultError)
		respondError(w, err)
		return
	}
	metrics.IncEntryMutation("create", metrics.ResultSuccess)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toPayload(*created))
	h.logAudit(r, "entry.create", created.ID, created.SubjectID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	entry, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	entry.ID = id
	updated, err := h.service.UpdateEntry(r.Context(), entry)
	if err != nil {
		metrics.IncEntryMutation("update", metrics.ResultError)
		respondError(w, err)
		return
	}
	metrics.IncEntryMutation("update", metrics.ResultSuccess)
	writeJSON(w, toPayload(*updated))
	h.logAudit(r, "entry.update", updated.ID, updated.SubjectID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		metrics.IncEntryMutation("delete", metrics.ResultError)
		respondError(w, err)
		return
	}
	metrics.IncEntryMutation("delete", metrics.ResultSuccess)
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "entry.delete", id, "")
}

func (h *Handler) serveFirstEntry(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	updated, err := h.service.MarkFirstEntry(r.Context(), id)
	if err != nil {
		metrics.IncEntryMutation("mark_first", metrics.ResultError)
		respondError(w, err)
		return
	}
	metrics.IncEntryMutation("mark_first", metrics.ResultSuccess)
	writeJSON(w, toPayload(*updated))
	h.logAudit(r, "entry.mark_first", updated.ID, updated.SubjectID)
}

func (h *Handler) logAudit(r *http.Request, action, entryID, subjectID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.UserIDFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "entry",
		ResourceID:   entryID,
		SubjectID:    subjectID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (reading.Reading, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return reading.Reading{}, false
	}
	defer r.Body.Close()

	var payload entryPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return reading.Reading{}, false
	}
	entry, err := fromPayload(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return reading.Reading{}, false
	}
	return entry, true
}

func toPayload(entry reading.Reading) entryPayload {
	return entryPayload{
		ID:           entry.ID,
		SubjectID:    entry.SubjectID,
		Quantity:     entry.Quantity,
		UnitCost:     entry.UnitCost,
		TotalCost:    entry.TotalCost,
		Date:         entry.Date.Format(dayLayout),
		Kind:         string(entry.Kind),
		IsFirstEntry: entry.IsFirstEntry,
		Odometer:     entry.Odometer,
		Note:         entry.Note,
	}
}

func fromPayload(payload entryPayload) (reading.Reading, error) {
	date, err := parseDate(payload.Date)
	if err != nil {
		return reading.Reading{}, err
	}
	return reading.Reading{
		ID:           payload.ID,
		SubjectID:    payload.SubjectID,
		Quantity:     payload.Quantity,
		UnitCost:     payload.UnitCost,
		TotalCost:    payload.TotalCost,
		Date:         date,
		Kind:         reading.Kind(payload.Kind),
		IsFirstEntry: payload.IsFirstEntry,
		Odometer:     payload.Odometer,
		Note:         payload.Note,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("date is required")
	}
	if parsed, err := time.Parse(dayLayout, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.New("date must be YYYY-MM-DD or RFC3339")
	}
	return parsed.UTC(), nil
}

func parseDateQuery(r *http.Request, key string) (time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := parseDate(value)
	if err != nil {
		return time.Time{}, errors.New(key + " must be YYYY-MM-DD or RFC3339")
	}
	return parsed, nil
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reading.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, reading.ErrDuplicateEntry):
		http.Error(w, "duplicate entry", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
