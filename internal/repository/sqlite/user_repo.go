package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = "id, username, password_hash, role, email, created_at"

// Create inserts a new user. The id is assigned by AUTOINCREMENT, so ids
// stay monotonic even after deletions.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, password_hash, role, email, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.Email,
		user.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already exists", domain.ErrDuplicateUsername)
		}
		if isCorrupt(err) {
			return fmt.Errorf("%w: %v", domain.ErrStoreCorrupt, err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by id.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a user by exact username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// GetByIdentifier retrieves a user whose username or email equals the
// identifier. Matching is exact and case-sensitive; with unique constraints
// on both columns at most one row can match each.
func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = ? OR email = ?
		ORDER BY id
		LIMIT 1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, identifier, identifier))
}

// Delete removes the user with the matching id.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns all users ordered by id.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		if isCorrupt(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreCorrupt, err)
		}
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		var role, createdAt string
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Role = domain.Role(role)
		user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// ExistsByUsername checks if a user with the given username exists.
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT COUNT(1) FROM users WHERE username = ?`, username)
}

// ExistsByEmail checks if a user with the given email exists.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, email)
}

// EnsureSeedAdmin creates the seeded administrator when the table is empty.
func (r *userRepository) EnsureSeedAdmin(ctx context.Context, passwordHash string) error {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&count); err != nil {
		if isCorrupt(err) {
			return fmt.Errorf("%w: %v", domain.ErrStoreCorrupt, err)
		}
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin := domain.NewUser("admin", passwordHash, domain.RoleAdministrator, "admin@minerals.local")
	return r.Create(ctx, admin)
}

func (r *userRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&count); err != nil {
		if isCorrupt(err) {
			return false, fmt.Errorf("%w: %v", domain.ErrStoreCorrupt, err)
		}
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}

// rowScanner is satisfied by *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *userRepository) scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var role, createdAt string

	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.Email, &createdAt)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		if isCorrupt(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreCorrupt, err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role = domain.Role(role)
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return user, nil
}
