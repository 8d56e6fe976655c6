package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dan9191/account-record-service/internal/auth"
	"github.com/Dan9191/account-record-service/internal/logger"
	"github.com/Dan9191/account-record-service/internal/models"
	"github.com/Dan9191/account-record-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *repository.MemoryRepository, *auth.TokenProvider) {
	t.Helper()
	store := repository.NewMemoryRepository()
	tokens := auth.NewTokenProvider("test-secret", time.Hour)
	return NewAuthService(store, tokens, logger.Discard()), store, tokens
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name      string
		req       RegisterRequest
		wantField string
	}{
		{"short username", RegisterRequest{Username: "ab", Email: "a@b.co", Password: "secret1"}, "username"},
		{"short password", RegisterRequest{Username: "alice", Email: "a@b.co", Password: "12345"}, "password"},
		{"blank email", RegisterRequest{Username: "alice", Password: "secret1"}, "email"},
		{"malformed email", RegisterRequest{Username: "alice", Email: "not-an-email", Password: "secret1"}, "email"},
		{"display name email", RegisterRequest{Username: "alice", Email: "Alice <a@b.co>", Password: "secret1"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAuthService(t)

			_, err := svc.Register(context.Background(), tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, store, tokens := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUser}, user.Roles)
	assert.True(t, user.Enabled)

	_, err = svc.Register(ctx, RegisterRequest{Username: "alice", Email: "x@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	_, err = svc.Register(ctx, RegisterRequest{Username: "bob", Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	resp, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.Type)
	assert.Equal(t, user.ID, resp.ID)
	assert.Equal(t, "alice@example.com", resp.Email)

	username, err := tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	_, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "carol", Email: "carol@example.com", PasswordHash: hash}))
	_, err = svc.Login(ctx, "carol", "secret1")
	assert.ErrorIs(t, err, ErrUserDisabled)
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, store, tokens := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, &models.User{Username: "dave", Email: "dave@example.com"}))

	valid, err := tokens.Issue("alice")
	require.NoError(t, err)
	user, err := svc.Authenticate(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	ghost, err := tokens.Issue("ghost")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, ghost)
	assert.ErrorIs(t, err, ErrForbidden)

	disabled, err := tokens.Issue("dave")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, disabled)
	assert.ErrorIs(t, err, ErrForbidden)
}

// racingUserStore lets a conflicting user land between the availability check and the insert.
type racingUserStore struct {
	*repository.MemoryRepository
	rival *models.User
}

func (s *racingUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if s.rival != nil {
		rival := s.rival
		s.rival = nil
		if err := s.MemoryRepository.CreateUser(ctx, rival); err != nil {
			return err
		}
	}
	return s.MemoryRepository.CreateUser(ctx, user)
}

func TestAuthService_RegisterRaceReportsCollidingField(t *testing.T) {
	tests := []struct {
		name  string
		rival *models.User
		want  error
	}{
		{"email", &models.User{Username: "mallory", Email: "alice@example.com"}, ErrEmailTaken},
		{"username", &models.User{Username: "alice", Email: "other@example.com"}, ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &racingUserStore{MemoryRepository: repository.NewMemoryRepository(), rival: tt.rival}
			svc := NewAuthService(store, auth.NewTokenProvider("test-secret", time.Hour), logger.Discard())

			_, err := svc.Register(context.Background(), RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
