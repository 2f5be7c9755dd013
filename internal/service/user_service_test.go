package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/store"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type mockUserStore struct {
	users   []models.User
	deleted []string
	actors  []string
}

func (m *mockUserStore) Users() []models.User { return m.users }

func (m *mockUserStore) User(id string) (models.User, bool) {
	for _, u := range m.users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func (m *mockUserStore) UserByUsername(username string) (models.User, bool) {
	for _, u := range m.users {
		if store.UsernameKey(u.Username) == store.UsernameKey(username) {
			return u, true
		}
	}
	return models.User{}, false
}

func (m *mockUserStore) AddUser(ctx context.Context, user models.User, actor string) (models.User, error) {
	if _, ok := m.UserByUsername(user.Username); ok {
		return models.User{}, store.ErrDuplicateUsername
	}
	user.ID = user.Username + "-id"
	m.users = append(m.users, user)
	m.actors = append(m.actors, actor)
	return user, nil
}

func (m *mockUserStore) UpdateUser(ctx context.Context, user models.User, actor string) (models.User, error) {
	for i := range m.users {
		if m.users[i].ID == user.ID {
			m.users[i] = user
			return user, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (m *mockUserStore) DeleteUser(ctx context.Context, id, actor string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserStore) ApproveUser(ctx context.Context, id, actor string) (models.User, error) {
	return m.setStatus(id, models.UserStatusActive)
}

func (m *mockUserStore) RejectUser(ctx context.Context, id, actor string) (models.User, error) {
	return m.setStatus(id, models.UserStatusRejected)
}

func (m *mockUserStore) setStatus(id string, status models.UserStatus) (models.User, error) {
	for i := range m.users {
		if m.users[i].ID == id {
			m.users[i].Status = status
			return m.users[i], nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func newUserFixture() (*UserService, *mockUserStore) {
	st := &mockUserStore{users: []models.User{
		{ID: "u1", Username: "admin", Name: "Administrator", Role: models.RoleSuperAdmin, Status: models.UserStatusActive},
		{ID: "u2", Username: "budi", Name: "Budi Santoso", Role: models.RoleStaff, Status: models.UserStatusPending},
		{ID: "u3", Username: "sari", Name: "Sari", Role: models.RoleAuditor, Status: models.UserStatusActive},
	}}
	svc := NewUserService(st, nil, nil, "admin")
	svc.cost = bcrypt.MinCost
	return svc, st
}

func TestUserServiceListFilters(t *testing.T) {
	svc, _ := newUserFixture()

	pending := models.UserStatusPending
	users, pagination := svc.List(models.UserFilter{Status: &pending})
	require.Len(t, users, 1)
	assert.Equal(t, "budi", users[0].Username)
	assert.Equal(t, 1, pagination.TotalCount)

	users, _ = svc.List(models.UserFilter{Search: "SAN"})
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)

	users, pagination = svc.List(models.UserFilter{Page: 2, PageSize: 2})
	require.Len(t, users, 1)
	assert.Equal(t, "u3", users[0].ID)
	assert.Equal(t, 3, pagination.TotalCount)

	users, _ = svc.List(models.UserFilter{Page: 5, PageSize: 2})
	assert.Empty(t, users)
}

func TestUserServiceCreate(t *testing.T) {
	svc, st := newUserFixture()
	claims := &models.JWTClaims{Username: "admin"}

	user, err := svc.Create(context.Background(), claims, CreateUserRequest{
		Username: "dewi", Name: "Dewi", Role: models.RoleManager, Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	assert.Equal(t, []string{"admin"}, st.actors)

	_, err = svc.Create(context.Background(), claims, CreateUserRequest{
		Username: "DEWI", Name: "Other", Role: models.RoleViewer, Password: "secret1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(context.Background(), claims, CreateUserRequest{
		Username: "eko", Name: "Eko", Role: "ROOT", Password: "secret1",
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceUpdate(t *testing.T) {
	svc, _ := newUserFixture()
	claims := &models.JWTClaims{Username: "admin"}

	user, err := svc.Update(context.Background(), claims, "u3", UpdateUserRequest{Name: "Sari W", Role: models.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, "Sari W", user.Name)
	assert.Equal(t, models.RoleManager, user.Role)

	_, err = svc.Update(context.Background(), claims, "u1", UpdateUserRequest{Name: "Admin", Role: models.RoleViewer})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Update(context.Background(), claims, "missing", UpdateUserRequest{Name: "X", Role: models.RoleViewer})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceDeleteProtectsAdmin(t *testing.T) {
	svc, st := newUserFixture()
	claims := &models.JWTClaims{Username: "admin"}

	err := svc.Delete(context.Background(), claims, "u1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, st.deleted)

	require.NoError(t, svc.Delete(context.Background(), claims, "u3"))
	assert.Equal(t, []string{"u3"}, st.deleted)
}

func TestUserServiceApproveReject(t *testing.T) {
	svc, _ := newUserFixture()
	claims := &models.JWTClaims{Username: "admin"}

	user, err := svc.Approve(context.Background(), claims, "u2")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusActive, user.Status)

	user, err = svc.Reject(context.Background(), claims, "u2")
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusRejected, user.Status)

	_, err = svc.Approve(context.Background(), claims, "nope")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceEnsureAdmin(t *testing.T) {
	st := &mockUserStore{}
	svc := NewUserService(st, nil, nil, "admin")
	svc.cost = bcrypt.MinCost

	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin123", "Administrator"))
	require.Len(t, st.users, 1)
	assert.Equal(t, models.RoleSuperAdmin, st.users[0].Role)
	assert.Equal(t, []string{models.ActorSystem}, st.actors)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "other", "Other"))
	assert.Len(t, st.users, 1)
}
