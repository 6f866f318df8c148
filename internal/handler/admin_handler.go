package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/afrominerals/atlas/internal/service"
	"github.com/afrominerals/atlas/internal/sources"
)

// AdminHandler handles user administration and source imports. Every route
// it registers is mounted behind the Administrator role gate.
type AdminHandler struct {
	userService    *service.UserService
	datasetService *service.DatasetService
	maxUploadSize  int64
	logger         zerolog.Logger
}

// AdminConfig contains configuration for the admin handler.
type AdminConfig struct {
	UserService    *service.UserService
	DatasetService *service.DatasetService
	MaxUploadSize  int64
	Logger         zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(cfg AdminConfig) *AdminHandler {
	maxUpload := cfg.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = 16 << 20
	}
	return &AdminHandler{
		userService:    cfg.UserService,
		datasetService: cfg.DatasetService,
		maxUploadSize:  maxUpload,
		logger:         cfg.Logger.With().Str("handler", "admin").Logger(),
	}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/admin/users", h.handleUserList)
	r.Delete("/api/admin/users/{id}", h.handleDeleteUser)
	r.Get("/api/admin/sources", h.handleSourceNames)
	r.Post("/api/admin/sources", h.handleImportSource)
	r.Post("/api/admin/reload", h.handleReload)
}

func (h *AdminHandler) handleUserList(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("user list failed")
		writeError(w, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	session := SessionFromContext(r.Context())
	if err := h.userService.Delete(r.Context(), session.UserID, targetID); err != nil {
		h.logger.Warn().Err(err).Int64("target_id", targetID).Msg("user delete rejected")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleSourceNames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sources.Names())
}

// handleImportSource accepts a multipart upload with a single "file" part.
// The part's filename selects which canonical source is replaced.
func (h *AdminHandler) handleImportSource(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file part"})
		return
	}
	defer file.Close()

	name := header.Filename
	if err := sources.ValidateName(name); err != nil {
		writeError(w, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read upload"})
		return
	}

	snap, err := h.datasetService.ImportSource(r.Context(), name, data)
	if err != nil {
		h.logger.Error().Err(err).Str("source", name).Msg("source import failed")
		writeError(w, err)
		return
	}

	session := SessionFromContext(r.Context())
	h.logger.Info().
		Str("source", name).
		Str("username", session.Username).
		Int("bytes", len(data)).
		Msg("source replaced")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"source":    name,
		"tables":    snap.Status,
		"loaded_at": snap.LoadedAt,
	})
}

func (h *AdminHandler) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.datasetService.Reload(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("dataset reload failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tables":    snap.Status,
		"loaded_at": snap.LoadedAt,
	})
}
