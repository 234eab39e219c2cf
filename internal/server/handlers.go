package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pitchlog/internal/formatter"
	"github.com/desertthunder/pitchlog/internal/metrics"
	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/session"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
)

// SnapshotProvider returns the current taxonomy snapshot; [taxonomy.Store] satisfies it.
type SnapshotProvider interface {
	Snapshot() *taxonomy.Snapshot
}

// Deps are the collaborators the HTTP surface reads from.
type Deps struct {
	Events   *session.EventLog
	Taxonomy SnapshotProvider
	Metrics  *metrics.Manager
	Logger   *log.Logger
}

// New builds the router serving health, metrics, the match log, and the taxonomy.
func New(deps Deps) *BasicRouter {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}

	r := NewBasicRouter()
	r.Use(LoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(MetricsMiddleware(deps.Metrics))
		r.Handle(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Handler(&statusHandler{taxonomy: deps.Taxonomy})
	r.Handle(http.MethodGet, "/taxonomy", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		taxonomyView(w, deps.Taxonomy)
	}))

	events := &eventsHandler{log: deps.Events, logger: deps.Logger}
	r.Handle(http.MethodGet, "/events", http.HandlerFunc(events.list))
	r.Handle(http.MethodDelete, "/events/{id}", http.HandlerFunc(events.remove))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusHandler serves liveness on /healthz and readiness on /readyz; ready means a taxonomy snapshot is loaded.
type statusHandler struct {
	taxonomy SnapshotProvider
}

func (h *statusHandler) Routes() []string {
	return []string{"GET /healthz", "GET /readyz"}
}

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var snap *taxonomy.Snapshot
	if h.taxonomy != nil {
		snap = h.taxonomy.Snapshot()
	}

	body := map[string]any{"status": "ok"}
	if !snap.Empty() {
		body["taxonomyLoadedAt"] = snap.LoadedAt.Format(time.RFC3339)
	}

	if req.URL.Path == "/readyz" && snap.Empty() {
		body["status"] = "unavailable"
		body["reason"] = "taxonomy not loaded"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

type taxonomyResponse struct {
	LoadedAt time.Time           `json:"loadedAt"`
	Labels   []models.EventLabel `json:"labels"`
	Flags    []models.Flag       `json:"flags"`
	Issues   map[string]int      `json:"issues"`
}

func taxonomyView(w http.ResponseWriter, p SnapshotProvider) {
	var snap *taxonomy.Snapshot
	if p != nil {
		snap = p.Snapshot()
	}
	if snap.Empty() {
		writeError(w, http.StatusServiceUnavailable, shared.ErrDataFetch)
		return
	}

	issues := map[string]int{}
	for sev, n := range taxonomy.CountBySeverity(snap.Issues) {
		issues[sev.String()] = n
	}
	writeJSON(w, http.StatusOK, taxonomyResponse{
		LoadedAt: snap.LoadedAt,
		Labels:   snap.Labels,
		Flags:    snap.Flags,
		Issues:   issues,
	})
}

type eventsHandler struct {
	log    *session.EventLog
	logger *log.Logger
}

// list serves the match log as JSON, or in another export format with ?format=.
func (h *eventsHandler) list(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	criteria := map[string]any{}
	if team := q.Get("team"); team != "" {
		criteria["team"] = team
	}
	if player := q.Get("player_id"); player != "" {
		criteria["player_id"] = player
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, shared.ErrInvalidArgument)
			return
		}
		criteria["limit"] = n
	}

	format := formatter.FormatJSON
	if f := q.Get("format"); f != "" {
		parsed, err := formatter.ParseFormat(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		format = parsed
	}

	events, err := h.log.Events(req.Context(), criteria)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	data, err := formatter.Export(format, "", events)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	switch format {
	case formatter.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case formatter.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
	case formatter.FormatMarkdown:
		w.Header().Set("Content-Type", "text/markdown")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write(data)
}

func (h *eventsHandler) remove(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")
	err := h.log.Remove(req.Context(), id)
	switch {
	case errors.Is(err, shared.ErrEventNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		h.logger.Error("failed to remove event", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
