// Package repository defines data access interfaces for Minerals Atlas.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/afrominerals/atlas/internal/domain"
)

// UserRepository defines the interface for user account access.
//
// Uniqueness of username and email is enforced here (and by the underlying
// store's constraints), not left to callers.
type UserRepository interface {
	// Create inserts a new user and assigns the next monotonic id.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by exact username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByIdentifier retrieves a user whose username or email equals the
	// identifier (exact, case-sensitive).
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// Delete removes the user with the matching id. Returns ErrNotFound
	// when no such user exists.
	Delete(ctx context.Context, id int64) error

	// List returns all users ordered by id.
	List(ctx context.Context) ([]*domain.User, error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// EnsureSeedAdmin creates the seeded administrator account when the
	// store holds no users. Idempotent; never overwrites existing accounts.
	EnsureSeedAdmin(ctx context.Context, passwordHash string) error
}

// DatabaseHealth is implemented by database handles for health endpoints.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
