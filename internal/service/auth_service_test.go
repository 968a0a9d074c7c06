package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixhub-dev/fixhub-api/internal/models"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	emailIndex    map[string]string
	refreshTokens map[string]*models.RefreshToken
	revokedAll    []string
	passwordSet   map[string]string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         make(map[string]*models.User),
		emailIndex:    make(map[string]string),
		refreshTokens: make(map[string]*models.RefreshToken),
		passwordSet:   make(map[string]string),
	}
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if id, ok := m.emailIndex[email]; ok {
		cp := *m.users[id]
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwordSet[id] = passwordHash
	if user, ok := m.users[id]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	cp := *token
	m.refreshTokens[token.Token] = &cp
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := m.refreshTokens[token]; ok {
		cp := *stored
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, stored := range m.refreshTokens {
		if stored.ID == id {
			stored.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func (m *mockAuthRepo) addUser(id, email, password string, role models.UserRole, active bool) {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	m.users[id] = &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test User",
		Role:         role,
		Active:       active,
	}
	m.emailIndex[email] = id
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "fixhub-api",
	}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser("u1", "admin@example.com", "secret123", models.RoleAdmin, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.Len(t, repo.refreshTokens, 1)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser("u1", "admin@example.com", "secret123", models.RoleAdmin, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser("u1", "off@example.com", "secret123", models.RoleTechnician, false)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "off@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser("u1", "admin@example.com", "secret123", models.RoleAdmin, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)

	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked, "used refresh token must be revoked")

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err, "revoked token cannot be reused")
}

func TestAuthServiceLogout(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser("u1", "admin@example.com", "secret123", models.RoleAdmin, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "u1"))
	assert.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	err = svc.Logout(context.Background(), login.RefreshToken, "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser("u1", "admin@example.com", "secret123", models.RoleAdmin, true)
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "newsecret",
	})
	require.Error(t, err)

	err = svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "newsecret",
	})
	require.NoError(t, err)

	assert.Contains(t, repo.revokedAll, "u1")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordSet["u1"]), []byte("newsecret")))
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newMockAuthRepo(), validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
