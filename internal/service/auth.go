// Package service provides the business rules for accounts and notes,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/VoiceNotes/internal/auth"
	"github.com/atinyakov/VoiceNotes/internal/models"
	"github.com/atinyakov/VoiceNotes/internal/repository"
	"github.com/atinyakov/VoiceNotes/internal/textutil"
	"github.com/google/uuid"
)

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// UserExists returns true if a user with the given email exists.
	UserExists(ctx context.Context, email string) (bool, error)
	// CreateUser stores a new user. A duplicate email yields models.ErrConflict.
	CreateUser(ctx context.Context, u models.User) error
	// GetUserByEmail returns repository.ErrUserNotFound when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns repository.ErrUserNotFound when no user matches.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthService implements registration, login and token authentication.
type AuthService struct {
	repo   UserRepository
	tokens *auth.TokenManager
	now    func() time.Time
}

// NewAuthService constructs an AuthService using the provided repository and token manager.
func NewAuthService(repo UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, now: time.Now}
}

// Register creates an account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	email = textutil.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, fmt.Errorf("%w: email, password and name are required", models.ErrValidation)
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", models.ErrValidation, auth.MaxPasswordBytes)
	}

	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrConflict
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Login verifies credentials. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = textutil.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", models.ErrValidation)
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}
	return s.issue(*u)
}

// Authenticate resolves a bearer token to its user. Every failure wraps models.ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", models.ErrUnauthorized)
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) issue(u models.User) (*models.AuthResponse, error) {
	token, _, err := s.tokens.Generate(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &models.AuthResponse{Token: token, User: u.Public()}, nil
}
