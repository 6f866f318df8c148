// Package domain contains the core business entities for Minerals Atlas.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the minerals data platform.
package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles. Every role maps to an explicit
// list of reachable pages; there is no ad hoc string comparison elsewhere.
type Role string

const (
	// RoleInvestor can reach the investor dashboard only.
	RoleInvestor Role = "Investor"

	// RoleResearcher has read-only access to the full dashboard.
	RoleResearcher Role = "Researcher"

	// RoleAdministrator has full access including data import and user management.
	RoleAdministrator Role = "Administrator"
)

// Page identifies a reachable view of the dashboard.
type Page string

const (
	PageInvestor   Page = "investor"
	PageResearcher Page = "researcher"
	PageAdmin      Page = "admin"
	PageHome       Page = "home"
)

// rolePages is the exhaustive role → reachable pages table.
// "home" resolves at render time to the admin or researcher dashboard
// depending on the current role; investors never reach it.
var rolePages = map[Role][]Page{
	RoleInvestor:      {PageInvestor},
	RoleResearcher:    {PageResearcher, PageHome},
	RoleAdministrator: {PageAdmin, PageHome},
}

// ParseRole validates a role string against the closed enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleInvestor, RoleResearcher, RoleAdministrator:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Pages returns the ordered page identifiers reachable by the role.
// Unknown roles fall back to the home page only.
func (r Role) Pages() []Page {
	if pages, ok := rolePages[r]; ok {
		out := make([]Page, len(pages))
		copy(out, pages)
		return out
	}
	return []Page{PageHome}
}

// IsAdmin reports whether the role may perform privileged operations
// (source import, user deletion).
func (r Role) IsAdmin() bool {
	return r == RoleAdministrator
}

// User represents a registered account.
type User struct {
	// ID is unique and monotonically assigned; stable for the user's lifetime.
	ID int64 `json:"id"`

	// Username is the unique login name.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never exposed in API responses.
	PasswordHash string `json:"-"`

	// Role is one of the closed role enumeration.
	Role Role `json:"role"`

	// Email defaults to <username>@minerals.local when not supplied.
	Email string `json:"email"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at"`
}

// SeedAdminID is the id of the administrator account created on first
// initialization. It cannot be deleted.
const SeedAdminID int64 = 1

// DefaultEmail returns the fallback email for a username.
func DefaultEmail(username string) string {
	return username + "@minerals.local"
}

// NewUser creates a User with defaults applied. The ID is assigned by the
// repository on insert.
func NewUser(username, passwordHash string, role Role, email string) *User {
	if email == "" {
		email = DefaultEmail(username)
	}
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		Email:        email,
		CreatedAt:    time.Now().UTC(),
	}
}

// IsProtected reports whether the account must not be deleted.
func (u *User) IsProtected() bool {
	return u.ID == SeedAdminID
}
