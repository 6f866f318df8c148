package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/afrominerals/atlas/internal/domain"
	"github.com/afrominerals/atlas/internal/service"
)

// AuthHandler handles registration, login, logout and session lookup.
type AuthHandler struct {
	userService    *service.UserService
	sessionService *service.SessionService
	sessionTTL     time.Duration
	loginAttempts  *prometheus.CounterVec
	logger         zerolog.Logger
}

// AuthConfig contains configuration for the auth handler.
type AuthConfig struct {
	UserService    *service.UserService
	SessionService *service.SessionService
	SessionTTL     time.Duration
	LoginAttempts  *prometheus.CounterVec
	Logger         zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(cfg AuthConfig) *AuthHandler {
	return &AuthHandler{
		userService:    cfg.UserService,
		sessionService: cfg.SessionService,
		sessionTTL:     cfg.SessionTTL,
		loginAttempts:  cfg.LoginAttempts,
		logger:         cfg.Logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/logout", h.handleLogout)
	r.Get("/api/auth/session", h.handleSession)
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
	Email           string `json:"email"`
	AdminCode       string `json:"admin_code"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.userService.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Confirm:   req.ConfirmPassword,
		Role:      req.Role,
		Email:     req.Email,
		AdminCode: req.AdminCode,
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("username", req.Username).Msg("registration rejected")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	Username  string        `json:"username"`
	Role      string        `json:"role"`
	Pages     []domain.Page `json:"pages"`
	ExpiresAt time.Time     `json:"expires_at"`
}

func toSessionResponse(s *service.Session) sessionResponse {
	return sessionResponse{
		Username:  s.Username,
		Role:      string(s.Role),
		Pages:     s.Pages(),
		ExpiresAt: s.ExpiresAt,
	}
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	session, err := h.sessionService.Login(r.Context(), service.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		if h.loginAttempts != nil {
			h.loginAttempts.WithLabelValues("failure").Inc()
		}
		h.logger.Debug().Err(err).Str("identifier", req.Identifier).Msg("login failed")
		writeError(w, err)
		return
	}
	if h.loginAttempts != nil {
		h.loginAttempts.WithLabelValues("success").Inc()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.sessionTTL / time.Second),
	})

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		if err := h.sessionService.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Error().Err(err).Msg("logout failed")
			writeError(w, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		writeError(w, service.ErrNoSession)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}
