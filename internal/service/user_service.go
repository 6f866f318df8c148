package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/repository"
)

// UserService handles account registration, authentication and management.
type UserService struct {
	userRepo    repository.UserRepository
	adminSecret string
	logger      zerolog.Logger
}

// NewUserService creates a new UserService. adminSecret is the code that
// must accompany Administrator registrations.
func NewUserService(userRepo repository.UserRepository, adminSecret string, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo:    userRepo,
		adminSecret: adminSecret,
		logger:      logger.With().Str("service", "user").Logger(),
	}
}

// RegisterInput contains the data submitted by the registration form.
type RegisterInput struct {
	Username  string
	Password  string
	Confirm   string
	Role      string
	Email     string
	AdminCode string
}

// Register validates the input and creates the account. The caller remains
// logged out; registering never starts a session.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Password != input.Confirm {
		return nil, ErrPasswordMismatch
	}
	if input.Username == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}

	if role == domain.RoleAdministrator {
		if subtle.ConstantTimeCompare([]byte(input.AdminCode), []byte(s.adminSecret)) != 1 {
			s.logger.Warn().Str("username", input.Username).Msg("administrator registration with wrong code")
			return nil, ErrInvalidAdminCode
		}
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateUsername, input.Username)
	}

	email := input.Email
	if email == "" {
		email = domain.DefaultEmail(input.Username)
	}
	exists, err = s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateEmail, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Username, string(hash), role, email)
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("user registered")

	return user, nil
}

// Authenticate verifies credentials against the store. The identifier
// matches either the username or the email, exact and case-sensitive.
// A corrupt store is surfaced as-is; every other failure collapses to
// ErrInvalidCredentials so callers cannot probe which accounts exist.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrStoreCorrupt) {
			return nil, err
		}
		s.logger.Debug().Str("identifier", identifier).Msg("unknown identifier during authentication")
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Str("username", user.Username).Msg("invalid password during authentication")
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user authenticated")

	return user, nil
}

// Delete removes an account. The seeded administrator and the caller's own
// account are protected; deleting an id that does not exist is a no-op.
func (s *UserService) Delete(ctx context.Context, actorID, targetID int64) error {
	if targetID == domain.SeedAdminID {
		return domain.ErrProtectedUser
	}
	if targetID == actorID {
		return domain.ErrSelfDelete
	}

	err := s.userRepo.Delete(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug().Int64("user_id", targetID).Msg("delete of unknown user ignored")
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", targetID).Int64("actor_id", actorID).Msg("user deleted")
	return nil
}

// List returns all accounts ordered by id.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreCorrupt) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return users, nil
}

// EnsureSeedAdmin creates the seeded administrator account (id 1, username
// "admin") when the store is empty. Idempotent.
func (s *UserService) EnsureSeedAdmin(ctx context.Context, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: failed to hash seed password", ErrInternalError)
	}
	return s.userRepo.EnsureSeedAdmin(ctx, string(hash))
}
