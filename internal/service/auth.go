package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/benx421/ledger-bank/internal/db"
	"github.com/benx421/ledger-bank/internal/models"
	"github.com/benx421/ledger-bank/internal/repository"
)

// LoginResult carries the issued token and the authenticated user
type LoginResult struct {
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
}

// AuthService authenticates users
type AuthService struct {
	db     *db.DB
	tokens TokenIssuer
	logger *slog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(database *db.DB, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{db: database, tokens: tokens, logger: logger}
}

// Login checks the password and issues a bearer token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	return s.performLogin(ctx, repository.NewUserRepository(s.db), email, password)
}

func (s *AuthService) performLogin(ctx context.Context, users repository.UserRepository, email, password string) (*LoginResult, error) {
	invalid := &ServiceError{Code: ErrCodeInvalidCredentials, Message: "Invalid email or password."}

	user, err := users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, internalError(fmt.Errorf("load user: %w", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected", "user_id", user.ID)
		return nil, invalid
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, internalError(fmt.Errorf("issue token: %w", err))
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
