package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/afrominerals/atlas/internal/geo"
	"github.com/afrominerals/atlas/internal/service"
)

// DashboardHandler serves the dashboard aggregations and the site map.
type DashboardHandler struct {
	datasetService *service.DatasetService
	insightService *service.InsightService
	logger         zerolog.Logger
}

// DashboardConfig contains configuration for the dashboard handler.
type DashboardConfig struct {
	DatasetService *service.DatasetService
	InsightService *service.InsightService
	Logger         zerolog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(cfg DashboardConfig) *DashboardHandler {
	return &DashboardHandler{
		datasetService: cfg.DatasetService,
		insightService: cfg.InsightService,
		logger:         cfg.Logger.With().Str("handler", "dashboard").Logger(),
	}
}

// RegisterSharedRoutes registers the routes every authenticated role may
// reach: the rankings, the map and the mineral filter list.
func (h *DashboardHandler) RegisterSharedRoutes(r chi.Router) {
	r.Get("/api/dashboard/minerals/top", h.handleTopMinerals)
	r.Get("/api/dashboard/countries/top", h.handleTopCountries)
	r.Get("/api/map", h.handleMap)
	r.Get("/api/minerals", h.handleMineralNames)
}

// RegisterFullRoutes registers the full dashboard routes reserved for
// Researcher and Administrator sessions.
func (h *DashboardHandler) RegisterFullRoutes(r chi.Router) {
	r.Get("/api/dashboard/summary", h.handleSummary)
	r.Get("/api/dashboard/countries/{name}", h.handleCountryProfile)
	r.Get("/api/dashboard/compare", h.handleCompare)
	r.Get("/api/dashboard/status", h.handleStatus)
	r.Get("/api/countries", h.handleCountryNames)
}

// parseLimit reads the limit query parameter, 0 meaning service default.
func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func (h *DashboardHandler) handleTopMinerals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.insightService.TopMinerals(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("top minerals failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (h *DashboardHandler) handleTopCountries(w http.ResponseWriter, r *http.Request) {
	totals, err := h.insightService.TopCountries(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("top countries failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (h *DashboardHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := h.insightService.Summary(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("summary failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (h *DashboardHandler) handleCountryProfile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	profile, err := h.insightService.CountryProfile(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *DashboardHandler) handleCompare(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("countries")
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	rows, err := h.insightService.Compare(r.Context(), names)
	if err != nil {
		h.logger.Error().Err(err).Msg("compare failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *DashboardHandler) handleMap(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("mineral")
	if filter == "" {
		filter = geo.FilterAll
	}

	model, err := h.datasetService.MapModel(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("map build failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (h *DashboardHandler) handleMineralNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.datasetService.MineralNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *DashboardHandler) handleCountryNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.insightService.CountryNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// handleStatus reports per-table load status so clients can surface
// missing or malformed source warnings.
func (h *DashboardHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := h.datasetService.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tables":    snap.Status,
		"loaded_at": snap.LoadedAt,
	})
}
