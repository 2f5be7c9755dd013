package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
	"github.com/noah-isme/proasset-api/pkg/response"
)

// PermissionChecker evaluates the live role permission table.
type PermissionChecker interface {
	HasPermission(role models.UserRole, feature permission.Feature, action permission.Action, field ...string) bool
}

// Requirement is one feature/action pair a route needs.
type Requirement struct {
	Feature permission.Feature
	Action  permission.Action
}

// Can builds a Requirement.
func Can(feature permission.Feature, action permission.Action) Requirement {
	return Requirement{Feature: feature, Action: action}
}

// RequirePermission allows the request only when the caller's role satisfies every requirement.
// Permissions are read per request so edits apply without a new token.
func RequirePermission(checker PermissionChecker, required ...Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, req := range required {
			if !checker.HasPermission(claims.Role, req.Feature, req.Action) {
				response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing "+string(req.Feature)+":"+string(req.Action)+" permission"))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// RequireRoles enforces a fixed role allow-list.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
