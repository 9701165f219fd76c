package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SankarSivan/Healthcare/pkg/analytics/filter"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"github.com/SankarSivan/Healthcare/pkg/dashboard"
	"github.com/gorilla/mux"
)

type DashboardHandler struct {
	service *dashboard.Service
}

func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) Register(r *mux.Router) {
	r.HandleFunc("/dashboard", h.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/filters", h.handleFilters).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/kpis", h.handleKPIs).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/records", h.handleRecords).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/export", h.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/dataset/reload", h.handleReload).Methods(http.MethodPost)
}

func (h *DashboardHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	f, err := filter.Parse(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.service.Dashboard(r.Context(), f)
	if err != nil {
		writeError(w, err, "failed to compute dashboard")
		return
	}
	writeJSON(w, view)
}

func (h *DashboardHandler) handleFilters(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.Options()
	if err != nil {
		writeError(w, err, "failed to list filter options")
		return
	}
	writeJSON(w, options)
}

func (h *DashboardHandler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	f, err := filter.Parse(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kpis, err := h.service.KPIs(r.Context(), f)
	if err != nil {
		writeError(w, err, "failed to compute kpis")
		return
	}
	writeJSON(w, kpis)
}

func (h *DashboardHandler) handleRecords(w http.ResponseWriter, r *http.Request) {
	f, err := filter.Parse(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	preview, err := h.service.Records(r.Context(), r.URL.Query().Get("q"), f)
	if err != nil {
		writeError(w, err, "failed to query records")
		return
	}
	writeJSON(w, preview)
}

func (h *DashboardHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := filter.Parse(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="admissions.csv"`)
	if err := h.service.Export(r.Context(), r.URL.Query().Get("q"), f, w); err != nil {
		// Query and dataset errors are raised before any row is written.
		if errors.Is(err, dashboard.ErrInvalidQuery) || errors.Is(err, dashboard.ErrNoDataset) {
			w.Header().Del("Content-Disposition")
			writeError(w, err, "failed to export records")
			return
		}
		logger.Log.WithError(err).Error("failed to export records")
	}
}

func (h *DashboardHandler) handleReload(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Reload(r.Context())
	if err != nil {
		writeError(w, err, "failed to reload dataset")
		return
	}
	writeJSON(w, stats)
}

// writeError maps service errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, dashboard.ErrInvalidQuery):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, dashboard.ErrNoDataset):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		logger.Log.WithError(err).Error(message)
		http.Error(w, message, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.WithError(err).Error("failed to write json response")
	}
}
