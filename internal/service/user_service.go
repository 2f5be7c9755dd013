package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/store"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type userStore interface {
	Users() []models.User
	User(id string) (models.User, bool)
	UserByUsername(username string) (models.User, bool)
	AddUser(ctx context.Context, user models.User, actor string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User, actor string) (models.User, error)
	DeleteUser(ctx context.Context, id, actor string) error
	ApproveUser(ctx context.Context, id, actor string) (models.User, error)
	RejectUser(ctx context.Context, id, actor string) (models.User, error)
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,min=3,max=64"`
	Name     string          `json:"name" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPER_ADMIN MANAGER STAFF AUDITOR VIEWER"`
	Password string          `json:"password" validate:"required,min=6"`
	Avatar   *string         `json:"avatar"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	Name   string          `json:"name" validate:"required"`
	Role   models.UserRole `json:"role" validate:"required,oneof=SUPER_ADMIN MANAGER STAFF AUDITOR VIEWER"`
	Avatar *string         `json:"avatar"`
}

// UserService handles user management workflows.
type UserService struct {
	store     userStore
	validator *validator.Validate
	logger    *zap.Logger
	protected string
	cost      int
}

// NewUserService creates an instance of UserService. protectedUsername names the account that can
// never be deleted.
func NewUserService(store userStore, validate *validator.Validate, logger *zap.Logger, protectedUsername string) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{store: store, validator: validate, logger: logger, protected: protectedUsername, cost: bcrypt.DefaultCost}
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(filter models.UserFilter) ([]models.User, *models.Pagination) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]models.User, 0)
	for _, user := range s.store.Users() {
		if filter.Status != nil && user.Status != *filter.Status {
			continue
		}
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(user.Username), search) && !strings.Contains(strings.ToLower(user.Name), search) {
			continue
		}
		matched = append(matched, user)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: len(matched)}

	start := (page - 1) * size
	if start >= len(matched) {
		return []models.User{}, pagination
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], pagination
}

// Get returns a user by id.
func (s *UserService) Get(id string) (*models.User, error) {
	user, ok := s.store.User(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return &user, nil
}

// Create adds an active account on behalf of an administrator.
func (s *UserService) Create(ctx context.Context, claims *models.JWTClaims, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid user payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user, err := s.store.AddUser(ctx, models.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		Avatar:       normalizeOptional(req.Avatar),
		Status:       models.UserStatusActive,
	}, claims.Actor())
	if err != nil {
		return nil, mapStoreError(err, "user not found")
	}
	return &user, nil
}

// Update changes a user's name, role and avatar.
func (s *UserService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid user payload")
	}
	user, ok := s.store.User(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	if s.isProtected(user) && req.Role != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "the built-in administrator must stay SUPER_ADMIN")
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Role = req.Role
	user.Avatar = normalizeOptional(req.Avatar)
	updated, err := s.store.UpdateUser(ctx, user, claims.Actor())
	if err != nil {
		return nil, mapStoreError(err, "user not found")
	}
	return &updated, nil
}

// Delete removes a user. The built-in administrator cannot be deleted.
func (s *UserService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	user, ok := s.store.User(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	if s.isProtected(user) {
		return appErrors.Clone(appErrors.ErrForbidden, "the built-in administrator cannot be deleted")
	}
	return mapStoreError(s.store.DeleteUser(ctx, id, claims.Actor()), "user not found")
}

// Approve activates a pending registration.
func (s *UserService) Approve(ctx context.Context, claims *models.JWTClaims, id string) (*models.User, error) {
	user, err := s.store.ApproveUser(ctx, id, claims.Actor())
	if err != nil {
		return nil, mapStoreError(err, "user not found")
	}
	return &user, nil
}

// Reject refuses a pending registration.
func (s *UserService) Reject(ctx context.Context, claims *models.JWTClaims, id string) (*models.User, error) {
	user, err := s.store.RejectUser(ctx, id, claims.Actor())
	if err != nil {
		return nil, mapStoreError(err, "user not found")
	}
	return &user, nil
}

// EnsureAdmin creates the built-in administrator when no account with that username exists.
func (s *UserService) EnsureAdmin(ctx context.Context, password, name string) error {
	if _, ok := s.store.UserByUsername(s.protected); ok {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	_, err = s.store.AddUser(ctx, models.User{
		Username:     s.protected,
		PasswordHash: string(hash),
		Name:         name,
		Role:         models.RoleSuperAdmin,
		Status:       models.UserStatusActive,
	}, models.ActorSystem)
	if err != nil {
		return mapStoreError(err, "user not found")
	}
	s.logger.Info("seeded administrator account", zap.String("username", s.protected))
	return nil
}

func (s *UserService) isProtected(user models.User) bool {
	return s.protected != "" && store.UsernameKey(user.Username) == store.UsernameKey(s.protected)
}
