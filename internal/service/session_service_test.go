package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/afrominerals/atlas/internal/cache/memory"
	"github.com/afrominerals/atlas/internal/domain"
)

func newTestSessionService(t *testing.T) (*SessionService, *UserService) {
	t.Helper()
	cache := memory.NewCache()
	t.Cleanup(cache.Stop)

	users := newTestUserService(NewMockUserRepository())
	sessions := NewSessionService(users, cache, time.Hour, zerolog.Nop())
	return sessions, users
}

func registerTestUser(t *testing.T, users *UserService, username, role string) {
	t.Helper()
	_, err := users.Register(context.Background(), RegisterInput{
		Username:  username,
		Password:  "secret",
		Confirm:   "secret",
		Role:      role,
		AdminCode: testAdminSecret,
	})
	require.NoError(t, err)
}

func TestSessionService_LoginLogout(t *testing.T) {
	sessions, users := newTestSessionService(t)
	registerTestUser(t, users, "alice", "Researcher")

	ctx := context.Background()

	session, err := sessions.Login(ctx, LoginInput{Identifier: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, "alice", session.Username)
	require.Equal(t, domain.RoleResearcher, session.Role)
	require.True(t, session.ExpiresAt.After(session.CreatedAt))

	got, err := sessions.Get(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, session.UserID, got.UserID)
	require.Equal(t, session.Role, got.Role)

	require.NoError(t, sessions.Logout(ctx, session.Token))

	_, err = sessions.Get(ctx, session.Token)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSessionService_LoginInvalidCredentials(t *testing.T) {
	sessions, users := newTestSessionService(t)
	registerTestUser(t, users, "alice", "Researcher")

	_, err := sessions.Login(context.Background(), LoginInput{Identifier: "alice", Password: "wrong"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = sessions.Login(context.Background(), LoginInput{Identifier: "nobody", Password: "secret"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSessionService_GetUnknownToken(t *testing.T) {
	sessions, _ := newTestSessionService(t)

	_, err := sessions.Get(context.Background(), "")
	require.ErrorIs(t, err, ErrNoSession)

	_, err = sessions.Get(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSessionService_LogoutUnknownToken(t *testing.T) {
	sessions, _ := newTestSessionService(t)

	// Logging out without a session is not an error.
	require.NoError(t, sessions.Logout(context.Background(), ""))
	require.NoError(t, sessions.Logout(context.Background(), "no-such-token"))
}

func TestSession_Pages(t *testing.T) {
	tests := []struct {
		role  domain.Role
		pages []domain.Page
	}{
		{domain.RoleInvestor, []domain.Page{domain.PageInvestor}},
		{domain.RoleResearcher, []domain.Page{domain.PageResearcher, domain.PageHome}},
		{domain.RoleAdministrator, []domain.Page{domain.PageAdmin, domain.PageHome}},
		{domain.Role("Visitor"), []domain.Page{domain.PageHome}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			s := &Session{Role: tt.role}
			require.Equal(t, tt.pages, s.Pages())
		})
	}
}
