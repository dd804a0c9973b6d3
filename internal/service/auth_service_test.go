package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pkbm-digital/rapor-api/internal/models"
	"github.com/pkbm-digital/rapor-api/pkg/config"
	appErrors "github.com/pkbm-digital/rapor-api/pkg/errors"
)

type mockUserReader struct {
	users     map[string]*models.User
	lastLogin map[string]time.Time
}

func (m *mockUserReader) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserReader) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if m.lastLogin == nil {
		m.lastLogin = make(map[string]time.Time)
	}
	m.lastLogin[id] = ts
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockUserReader) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &mockUserReader{
		users: map[string]*models.User{
			"user-1": {
				ID:           "user-1",
				Email:        "guru@pkbm.sch.id",
				PasswordHash: string(hash),
				FullName:     "Pak Ahmad",
				Active:       true,
			},
		},
	}
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "test"}
	return NewAuthService(users, cfg, nil, zap.NewNop()), users
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, users := newAuthFixture(t)

	result, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "guru@pkbm.sch.id",
		Password: "rahasia123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	assert.True(t, result.ExpiresAt.After(time.Now()))
	assert.Contains(t, users.lastLogin, "user-1")

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "guru@pkbm.sch.id", claims.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "guru@pkbm.sch.id",
		Password: "salah",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "tidakada@pkbm.sch.id",
		Password: "rahasia123",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, users := newAuthFixture(t)
	users.users["user-1"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "guru@pkbm.sch.id",
		Password: "rahasia123",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
