package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/Dan9191/account-record-service/internal/auth"
	"github.com/Dan9191/account-record-service/internal/logger"
	"github.com/Dan9191/account-record-service/internal/models"
	"github.com/Dan9191/account-record-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// RegisterRequest carries the fields of a new user
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthService handles registration, login and token checks
type AuthService struct {
	users  repository.UserStore
	tokens *auth.TokenProvider
	log    logrus.FieldLogger
}

// NewAuthService initializes a new auth service
func NewAuthService(users repository.UserStore, tokens *auth.TokenProvider, log logrus.FieldLogger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

func (r RegisterRequest) validate() error {
	if n := utf8.RuneCountInString(r.Username); n < 3 || n > 50 {
		return invalid("username", "must be between 3 and 50 characters")
	}
	if n := utf8.RuneCountInString(r.Password); n < 6 || n > 100 {
		return invalid("password", "must be between 6 and 100 characters")
	}
	if r.Email == "" {
		return invalid("email", "must not be blank")
	}
	addr, err := mail.ParseAddress(r.Email)
	if err != nil || addr.Address != r.Email {
		return invalid("email", "must be a well-formed email address")
	}
	return nil
}

// Register creates a new user with hashed password
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.validate(); err != nil {
		return nil, err
	}

	if err := s.checkAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Enabled:      true,
		Roles:        []string{models.RoleUser},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent registration; find out which field collided.
			if err := s.checkAvailable(ctx, req.Username, req.Email); err != nil {
				return nil, err
			}
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	logger.FromContext(ctx, s.log).WithField("username", user.Username).Info("User registered")
	return user, nil
}

// checkAvailable returns ErrUsernameTaken or ErrEmailTaken when either is in use
func (s *AuthService) checkAvailable(ctx context.Context, username, email string) error {
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return ErrUsernameTaken
	}
	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	if username == "" || password == "" {
		return nil, invalid("credentials", "username and password are required")
	}
	user, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, ErrUserDisabled
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).WithField("username", user.Username).Info("User logged in")
	return &LoginResponse{
		Token:    token,
		Type:     "Bearer",
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// Authenticate resolves a bearer token to an enabled user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	username, err := s.tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	user, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", username, ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	if !user.Enabled {
		return nil, fmt.Errorf("user %s disabled: %w", username, ErrForbidden)
	}
	return user, nil
}
