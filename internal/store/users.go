package store

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/cases"

	"github.com/noah-isme/proasset-api/internal/models"
)

// UsernameKey folds a username for case-insensitive comparison.
func UsernameKey(username string) string {
	return cases.Fold().String(username)
}

// Users returns a copy of every user in registration order.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

// User returns the user with id.
func (s *Store) User(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.userIndex(id)
	if idx < 0 {
		return models.User{}, false
	}
	return s.users[idx], true
}

// UserByUsername looks a user up case-insensitively.
func (s *Store) UserByUsername(username string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.usernameIndex(username)
	if idx < 0 {
		return models.User{}, false
	}
	return s.users[idx], true
}

// Register stores a self-registered account awaiting approval.
func (s *Store) Register(ctx context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Status = models.UserStatusPending
	user, err := s.insertUser(ctx, user)
	if errors.Is(err, ErrDuplicateUsername) {
		return models.User{}, err
	}
	s.appendLog(ctx, models.ActionCreate, "User", fmt.Sprintf("New registration: %s", user.Username), models.ActorSystem)
	return user, err
}

// AddUser stores an account created by an administrator.
func (s *Store) AddUser(ctx context.Context, user models.User, actor string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	user, err := s.insertUser(ctx, user)
	if errors.Is(err, ErrDuplicateUsername) {
		return models.User{}, err
	}
	s.appendLog(ctx, models.ActionCreate, "User Management", fmt.Sprintf("Created user %s", user.Username), actor)
	return user, err
}

// UpdateUser replaces the stored user with the same id.
func (s *Store) UpdateUser(ctx context.Context, user models.User, actor string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(user.ID)
	if idx < 0 {
		return models.User{}, ErrNotFound
	}
	if other := s.usernameIndex(user.Username); other >= 0 && other != idx {
		return models.User{}, ErrDuplicateUsername
	}
	user.CreatedAt = s.users[idx].CreatedAt
	s.users[idx] = user

	err := s.persist("update user", s.repos.Users.Update(ctx, &user))
	s.appendLog(ctx, models.ActionUpdate, "User Management", fmt.Sprintf("Updated user %s", user.Username), actor)
	return user, err
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(ctx context.Context, id, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.users = append(s.users[:idx:idx], s.users[idx+1:]...)

	err := s.persist("delete user", s.repos.Users.Delete(ctx, id))
	s.appendLog(ctx, models.ActionDelete, "User Management", fmt.Sprintf("Deleted user %s", id), actor)
	return err
}

// ApproveUser activates a registration.
func (s *Store) ApproveUser(ctx context.Context, id, actor string) (models.User, error) {
	return s.setUserStatus(ctx, id, models.UserStatusActive, models.ActionApprove, "User approved: %s", actor)
}

// RejectUser rejects a registration.
func (s *Store) RejectUser(ctx context.Context, id, actor string) (models.User, error) {
	return s.setUserStatus(ctx, id, models.UserStatusRejected, models.ActionReject, "User rejected: %s", actor)
}

// ChangePassword stores a new password hash for the user.
func (s *Store) ChangePassword(ctx context.Context, id, passwordHash, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	user := s.users[idx]
	user.PasswordHash = passwordHash
	s.users[idx] = user

	err := s.persist("change password", s.repos.Users.Update(ctx, &user))
	s.appendLog(ctx, models.ActionUpdate, "User", "Password changed", actor)
	return err
}

func (s *Store) setUserStatus(ctx context.Context, id string, status models.UserStatus, action models.ActivityAction, details, actor string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(id)
	if idx < 0 {
		return models.User{}, ErrNotFound
	}
	user := s.users[idx]
	user.Status = status
	s.users[idx] = user

	err := s.persist("update user status", s.repos.Users.Update(ctx, &user))
	s.appendLog(ctx, action, "User", fmt.Sprintf(details, id), actor)
	return user, err
}

// insertUser must be called with the write lock held.
func (s *Store) insertUser(ctx context.Context, user models.User) (models.User, error) {
	if s.usernameIndex(user.Username) >= 0 {
		return models.User{}, ErrDuplicateUsername
	}
	if user.ID == "" {
		user.ID = s.newID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	s.users = append(s.users, user)
	return user, s.persist("create user", s.repos.Users.Create(ctx, &user))
}

func (s *Store) userIndex(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) usernameIndex(username string) int {
	key := UsernameKey(username)
	for i := range s.users {
		if UsernameKey(s.users[i].Username) == key {
			return i
		}
	}
	return -1
}
