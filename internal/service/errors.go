// Package service provides business logic services for Minerals Atlas.
package service

import "errors"

// Common service errors.
var (
	// Registration errors
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrMissingFields    = errors.New("username and password are required")
	ErrInvalidAdminCode = errors.New("invalid administrator code")

	// Session errors
	ErrNoSession = errors.New("no active session")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
