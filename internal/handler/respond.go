// Package handler provides HTTP handlers for the Minerals Atlas API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/repository"
	"github.com/afrominerals/atlas/internal/service"
)

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a service or domain error to an HTTP status and writes
// the JSON error body. Unmapped errors are reported as internal errors
// without leaking detail.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, service.ErrNoSession):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, service.ErrInvalidAdminCode),
		errors.Is(err, domain.ErrProtectedUser),
		errors.Is(err, domain.ErrSelfDelete):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, domain.ErrDuplicateUsername),
		errors.Is(err, domain.ErrDuplicateEmail):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrMissingFields),
		errors.Is(err, domain.ErrUnknownRole),
		errors.Is(err, domain.ErrInvalidSourceName):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		status = http.StatusNotFound
		message = err.Error()
	}

	writeJSON(w, status, errorResponse{Error: message})
}
