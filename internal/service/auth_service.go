package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/proasset-api/internal/models"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type authStore interface {
	User(id string) (models.User, bool)
	UserByUsername(username string) (models.User, bool)
	Register(ctx context.Context, user models.User) (models.User, error)
	ChangePassword(ctx context.Context, id, passwordHash, actor string) error
	Log(ctx context.Context, action models.ActivityAction, target, details, actor string) models.ActivityLog
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	BcryptCost        int
}

// AuthService provides authentication use cases.
type AuthService struct {
	store     authStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(store authStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{store: store, validator: validate, logger: logger, config: config}
}

// Login authenticates a user. A wrong password is reported before the account status.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}

	user, ok := s.store.UserByUsername(req.Username)
	if !ok {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	switch user.Status {
	case models.UserStatusPending:
		return nil, appErrors.ErrAccountPending
	case models.UserStatusRejected:
		return nil, appErrors.ErrAccountRejected
	}

	accessToken, _, err := s.generateAccessToken(&user)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	s.store.Log(ctx, models.ActionUpdate, models.ActorSystem, fmt.Sprintf("User logged in: %s", user.Username), user.Username)
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("ip", req.IP))

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    time.Now().UTC(),
		User:        userInfo(user),
	}, nil
}

// Register creates a pending STAFF account that an administrator must approve.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid registration payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user, err := s.store.Register(ctx, models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         models.RoleStaff,
	})
	if err != nil {
		return nil, mapStoreError(err, "user not found")
	}
	return &user, nil
}

// Logout records the logout. Access tokens are stateless and expire on their own.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) {
	s.store.Log(ctx, models.ActionUpdate, models.ActorSystem, fmt.Sprintf("User logged out: %s", claims.Actor()), claims.Actor())
}

// ChangePassword changes the caller's password after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, claims *models.JWTClaims, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid change password payload")
	}

	user, ok := s.store.User(claims.UserID)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.config.BcryptCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.store.ChangePassword(ctx, user.ID, string(newHash), claims.Actor()); err != nil {
		return mapStoreError(err, "user not found")
	}
	return nil
}

// Me returns the account behind the claims.
func (s *AuthService) Me(claims *models.JWTClaims) (*models.UserInfo, error) {
	user, ok := s.store.User(claims.UserID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
	}
	info := userInfo(user)
	return &info, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// Authenticate validates the token and refreshes the claims from the current account so role
// changes and deletions take effect before the token expires.
func (s *AuthService) Authenticate(tokenString string) (*models.JWTClaims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, ok := s.store.User(claims.UserID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
	}
	if user.Status != models.UserStatusActive {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account is not active")
	}
	claims.Username = user.Username
	claims.Name = user.Name
	claims.Role = user.Role
	return claims, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func userInfo(user models.User) models.UserInfo {
	return models.UserInfo{ID: user.ID, Username: user.Username, Name: user.Name, Role: user.Role}
}
