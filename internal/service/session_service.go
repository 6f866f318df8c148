package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/repository"
)

// sessionKeyPrefix namespaces session tokens in the cache.
const sessionKeyPrefix = "session:"

// Session is the authenticated state for one interactive use: who is
// logged in and with which role. It is discarded wholesale on logout.
type Session struct {
	Token     string      `json:"token"`
	UserID    int64       `json:"user_id"`
	Username  string      `json:"username"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Pages returns the ordered page identifiers this session may reach.
func (s *Session) Pages() []domain.Page {
	return s.Role.Pages()
}

// SessionService is the state machine over {logged out, logged in}.
// Sessions live in the cache keyed by an opaque token; an absent token is
// the logged-out state.
type SessionService struct {
	users  *UserService
	cache  repository.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(users *UserService, cache repository.Cache, ttl time.Duration, logger zerolog.Logger) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionService{
		users:  users,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("service", "session").Logger(),
	}
}

// LoginInput contains the credentials submitted at login.
type LoginInput struct {
	Identifier string
	Password   string
}

// Login authenticates and transitions to the logged-in state. On failure
// the state is unchanged and the credential error is reported.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	user, err := s.users.Authenticate(ctx, input.Identifier, input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+session.Token, payload, s.ttl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("username", session.Username).
		Str("role", string(session.Role)).
		Msg("session started")

	return session, nil
}

// Get resolves a token to its session, or ErrNoSession when the token is
// unknown or expired.
func (s *SessionService) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	payload, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	session := &Session{}
	if err := json.Unmarshal(payload, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return session, nil
}

// Logout unconditionally returns to the logged-out state, discarding all
// session state. Logging out an unknown token succeeds.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, sessionKeyPrefix+token); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}
