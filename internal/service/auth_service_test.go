package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/proasset-api/internal/models"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type mockAuthStore struct {
	users       map[string]models.User
	registered  []models.User
	registerErr error
	logs        []models.ActivityLog
}

func newMockAuthStore(users ...models.User) *mockAuthStore {
	m := &mockAuthStore{users: map[string]models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockAuthStore) User(id string) (models.User, bool) {
	u, ok := m.users[id]
	return u, ok
}

func (m *mockAuthStore) UserByUsername(username string) (models.User, bool) {
	for _, u := range m.users {
		if u.Username == username {
			return u, true
		}
	}
	return models.User{}, false
}

func (m *mockAuthStore) Register(ctx context.Context, user models.User) (models.User, error) {
	if m.registerErr != nil {
		return models.User{}, m.registerErr
	}
	user.ID = "new"
	user.Status = models.UserStatusPending
	m.registered = append(m.registered, user)
	return user, nil
}

func (m *mockAuthStore) ChangePassword(ctx context.Context, id, passwordHash, actor string) error {
	u := m.users[id]
	u.PasswordHash = passwordHash
	m.users[id] = u
	return nil
}

func (m *mockAuthStore) Log(ctx context.Context, action models.ActivityAction, target, details, actor string) models.ActivityLog {
	entry := models.ActivityLog{Action: action, Target: target, Details: details, User: actor}
	m.logs = append(m.logs, entry)
	return entry
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(store authStore) *AuthService {
	return NewAuthService(store, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "proasset-api",
		BcryptCost:        bcrypt.MinCost,
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	store := newMockAuthStore(models.User{ID: "u1", Username: "admin", PasswordHash: hashed(t, "admin123"), Role: models.RoleSuperAdmin, Status: models.UserStatusActive})
	svc := newTestAuthService(store)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, models.RoleSuperAdmin, res.User.Role)

	require.Len(t, store.logs, 1)
	assert.Equal(t, models.ActionUpdate, store.logs[0].Action)
	assert.Equal(t, "System", store.logs[0].Target)
	assert.Equal(t, "User logged in: admin", store.logs[0].Details)
}

func TestAuthServiceLoginOutcomes(t *testing.T) {
	store := newMockAuthStore(
		models.User{ID: "u1", Username: "pending", PasswordHash: hashed(t, "secret1"), Status: models.UserStatusPending},
		models.User{ID: "u2", Username: "rejected", PasswordHash: hashed(t, "secret1"), Status: models.UserStatusRejected},
	)
	svc := newTestAuthService(store)

	cases := []struct {
		name     string
		username string
		password string
		code     string
	}{
		{name: "unknown user", username: "ghost", password: "secret1", code: appErrors.ErrInvalidCredentials.Code},
		{name: "wrong password", username: "pending", password: "nope", code: appErrors.ErrInvalidCredentials.Code},
		{name: "pending", username: "pending", password: "secret1", code: appErrors.ErrAccountPending.Code},
		{name: "rejected", username: "rejected", password: "secret1", code: appErrors.ErrAccountRejected.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), models.LoginRequest{Username: tc.username, Password: tc.password})
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
	assert.Empty(t, store.logs)
}

func TestAuthServiceRegisterCreatesPendingStaff(t *testing.T) {
	store := newMockAuthStore()
	svc := newTestAuthService(store)

	user, err := svc.Register(context.Background(), models.RegisterRequest{Username: "siti", Password: "secret1", Name: "Siti"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, user.Role)
	assert.Equal(t, models.UserStatusPending, user.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.registered[0].PasswordHash), []byte("secret1")))

	_, err = svc.Register(context.Background(), models.RegisterRequest{Username: "x", Password: "1", Name: ""})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterIgnoresRequestedRole(t *testing.T) {
	store := newMockAuthStore()
	svc := newTestAuthService(store)

	var req models.RegisterRequest
	require.NoError(t, json.Unmarshal([]byte(`{"username":"eko","password":"secret1","name":"Eko","role":"SUPER_ADMIN"}`), &req))

	user, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, user.Role)
	require.Len(t, store.registered, 1)
	assert.Equal(t, models.RoleStaff, store.registered[0].Role)
	assert.Equal(t, models.UserStatusPending, user.Status)
}

func TestAuthServiceChangePassword(t *testing.T) {
	store := newMockAuthStore(models.User{ID: "u1", Username: "budi", PasswordHash: hashed(t, "old-pass"), Status: models.UserStatusActive})
	svc := newTestAuthService(store)
	claims := &models.JWTClaims{UserID: "u1", Username: "budi"}

	err := svc.ChangePassword(context.Background(), claims, models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.ChangePassword(context.Background(), claims, models.ChangePasswordRequest{OldPassword: "old-pass", NewPassword: "newpassword"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(store.users["u1"].PasswordHash), []byte("newpassword")))
}

func TestValidateTokenAndAuthenticate(t *testing.T) {
	user := models.User{ID: "u1", Username: "budi", Role: models.RoleStaff, Status: models.UserStatusActive}
	store := newMockAuthStore(user)
	svc := newTestAuthService(store)

	token, _, err := svc.generateAccessToken(&user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "budi", claims.Actor())

	promoted := store.users["u1"]
	promoted.Role = models.RoleManager
	store.users["u1"] = promoted
	claims, err = svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, claims.Role)

	delete(store.users, "u1")
	_, err = svc.Authenticate(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestLogoutRecordsActor(t *testing.T) {
	store := newMockAuthStore()
	svc := newTestAuthService(store)

	svc.Logout(context.Background(), &models.JWTClaims{Username: "budi"})
	require.Len(t, store.logs, 1)
	assert.Equal(t, "User logged out: budi", store.logs[0].Details)
	assert.Equal(t, "budi", store.logs[0].User)
}
