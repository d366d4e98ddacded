package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tasklane/apiserver/internal/store"
	"github.com/tasklane/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  types.User
	Token string
}

// AuthService encapsulates registration, login and token verification.
type AuthService struct {
	repo     UserRepository
	tokens   *TokenManager
	logger   logrus.FieldLogger
	hashCost int
}

func NewAuthService(repo UserRepository, tokens *TokenManager, logger logrus.FieldLogger) *AuthService {
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates an account and issues its first token.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	switch {
	case username == "":
		return AuthResult{}, invalid("username", "is required")
	case email == "":
		return AuthResult{}, invalid("email", "is required")
	case password == "":
		return AuthResult{}, invalid("password", "is required")
	case len(password) > maxPasswordBytes:
		return AuthResult{}, invalid("password", "must be at most 72 bytes")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, errEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return AuthResult{}, errEmailTaken
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")
	return AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a fresh token. An unknown email
// and a wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return AuthResult{}, invalid("email", "is required")
	}
	if password == "" {
		return AuthResult{}, invalid("password", "is required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{User: user, Token: token}, nil
}

// VerifyToken resolves a bearer token to a user id without touching the
// store.
func (s *AuthService) VerifyToken(token string) (int, error) {
	return s.tokens.Verify(token)
}

// CurrentUser loads the user a verified token belongs to.
func (s *AuthService) CurrentUser(ctx context.Context, userID int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
