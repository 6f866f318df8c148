package domain

import "errors"

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUsername indicates the username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnknownRole indicates a role outside the closed enumeration.
	ErrUnknownRole = errors.New("unknown role")

	// ErrProtectedUser indicates an attempt to delete the seeded
	// administrator account.
	ErrProtectedUser = errors.New("user account is protected")

	// ErrSelfDelete indicates a session attempted to delete its own account.
	ErrSelfDelete = errors.New("cannot delete the currently authenticated account")

	// ErrStoreCorrupt indicates the persisted user store cannot be read as
	// the expected schema. Fatal to any auth operation.
	ErrStoreCorrupt = errors.New("user store is corrupt")

	// ErrInvalidSourceName indicates an upload name outside the four
	// canonical source tables. The upload is rejected without side effects.
	ErrInvalidSourceName = errors.New("invalid source name")

	// ErrSourceNotFound indicates the source file does not exist.
	ErrSourceNotFound = errors.New("source file not found")
)
