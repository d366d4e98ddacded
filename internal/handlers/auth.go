package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/tasklane/apiserver/internal/services"
	"github.com/tasklane/apiserver/types"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (int, error)
}

// AuthHandler provides registration, login and profile endpoints.
type AuthHandler struct {
	authService *services.AuthService
	logger      logrus.FieldLogger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// AuthRouter registers user routes on the given router. limiter, when
// non-nil, guards the credential endpoints.
func AuthRouter(
	r chi.Router,
	authService *services.AuthService,
	logger logrus.FieldLogger,
	limiter func(http.Handler) http.Handler,
) {
	handler := NewAuthHandler(authService, logger)

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter)
		}
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
	})
	r.With(RequireAuth(authService)).Get("/me", handler.Me)
}

// RequireAuth enforces a bearer token and injects the resolved user id
// into the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, err := verifier.VerifyToken(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}

// Register creates a new user account and returns a token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: result.Token, User: result.User})
}

// Login verifies credentials and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: result.Token, User: result.User})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

func (r *RegisterRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

type UserResponse struct {
	User types.User `json:"user"`
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
