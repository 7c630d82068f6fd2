package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ilumap/pqr-api/internal/models"
	"github.com/ilumap/pqr-api/internal/repository"
	appErrors "github.com/ilumap/pqr-api/pkg/errors"
)

type mockAuthRepo struct {
	users     map[string]*models.User
	findErr   error
	createErr error
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{users: make(map[string]*models.User)}
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	user.ID = "user-" + user.Email
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "ilumap"})
}

func TestRegisterDefaultsToOperator(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Ana", Email: " Ana@Ilumap.com ", Password: "secret1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOperator, resp.User.Role)
	assert.Equal(t, "ana@ilumap.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)

	stored := repo.users[resp.User.ID]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, models.RoleOperator, claims.Role)
	assert.Equal(t, "ilumap", claims.Issuer)
}

func TestRegisterElevatedRoleRequiresAdmin(t *testing.T) {
	svc := newAuthService(newMockAuthRepo())
	req := models.RegisterRequest{Name: "Tec", Email: "tec@ilumap.com", Password: "secret1", Role: models.RoleTechnician}

	_, err := svc.Register(context.Background(), req, nil)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Register(context.Background(), req, &models.JWTClaims{UserID: "op", Role: models.RoleOperator})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	resp, err := svc.Register(context.Background(), req, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTechnician, resp.User.Role)
}

func TestRegisterValidationAndConflict(t *testing.T) {
	svc := newAuthService(newMockAuthRepo())

	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "A", Email: "a@ilumap.com", Password: "123"}, nil)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Register(context.Background(), models.RegisterRequest{Name: "A", Email: "a@ilumap.com", Password: "123456", Role: "ROOT"}, nil)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Register(context.Background(), models.RegisterRequest{Name: "A", Email: "a@ilumap.com", Password: "123456"}, nil)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), models.RegisterRequest{Name: "B", Email: "A@ilumap.com", Password: "123456"}, nil)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestLogin(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)
	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Ana", Email: "ana@ilumap.com", Password: "secret1"}, nil)
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ANA@ilumap.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", resp.User.Name)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ana@ilumap.com", Password: "wrong"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@ilumap.com", Password: "secret1"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	repo.findErr = errors.New("db down")
	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ana@ilumap.com", Password: "secret1"})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestMe(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)
	resp, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Ana", Email: "ana@ilumap.com", Password: "secret1"}, nil)
	require.NoError(t, err)

	me, err := svc.Me(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@ilumap.com", me.Email)

	_, err = svc.Me(context.Background(), "ghost")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)
	resp, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Ana", Email: "ana@ilumap.com", Password: "secret1"}, nil)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(resp.Token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	other := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "other"})
	_, err = other.ValidateToken(resp.Token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.JWTClaims{UserID: "x"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(unsigned)
	assert.Error(t, err)

	_, err = svc.ValidateToken(strings.Repeat("a", 10))
	assert.Error(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo)

	user, created, err := svc.EnsureAdmin(context.Background(), "Administrador", "admin@ilumap.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, user.Role)

	again, created, err := svc.EnsureAdmin(context.Background(), "Administrador", "admin@ilumap.com", "admin123")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
}
