package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
	"github.com/noah-isme/proasset-api/internal/service"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type fakePermissionSrv struct {
	table       *permission.Table
	lastRole    models.UserRole
	lastFeature permission.Feature
	lastReq     service.UpdatePermissionRequest
	updateErr   error
}

func (f *fakePermissionSrv) Catalog() service.PermissionCatalog {
	return service.PermissionCatalog{Roles: models.Roles}
}

func (f *fakePermissionSrv) Snapshot() map[models.UserRole]permission.RoleConfig {
	return f.table.Snapshot()
}

func (f *fakePermissionSrv) ForRole(role models.UserRole) (permission.RoleConfig, error) {
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "role not found")
	}
	return f.table.Role(role), nil
}

func (f *fakePermissionSrv) Update(_ context.Context, _ *models.JWTClaims, role models.UserRole, feature permission.Feature, req service.UpdatePermissionRequest) (permission.FeaturePermission, error) {
	f.lastRole, f.lastFeature, f.lastReq = role, feature, req
	if f.updateErr != nil {
		return permission.FeaturePermission{}, f.updateErr
	}
	return permission.FeaturePermission{View: *req.View, Edit: *req.Edit}, nil
}

func TestPermissionHandlerMine(t *testing.T) {
	handler := NewPermissionHandler(&fakePermissionSrv{table: permission.NewDefaultTable()})
	c, rec := newTestContext(http.MethodGet, "/permissions/me", nil, &models.JWTClaims{Username: "viewer", Role: models.RoleViewer})

	handler.Mine(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var cfg permission.RoleConfig
	envelope := decodeEnvelope(t, rec, &cfg)
	assert.Equal(t, "VIEWER", envelope.Meta["role"])
	assert.False(t, cfg[permission.FeatureAssets].Edit)
}

func TestPermissionHandlerRoleUnknown(t *testing.T) {
	handler := NewPermissionHandler(&fakePermissionSrv{table: permission.NewDefaultTable()})
	c, rec := newTestContext(http.MethodGet, "/permissions/GUEST", nil, adminClaims())
	c.Params = gin.Params{{Key: "role", Value: "GUEST"}}

	handler.Role(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPermissionHandlerUpdate(t *testing.T) {
	srv := &fakePermissionSrv{table: permission.NewDefaultTable()}
	handler := NewPermissionHandler(srv)
	c, rec := newTestContext(http.MethodPut, "/permissions/STAFF/assets", map[string]bool{"view": true, "edit": false}, adminClaims())
	c.Params = gin.Params{{Key: "role", Value: "STAFF"}, {Key: "feature", Value: "assets"}}

	handler.Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleStaff, srv.lastRole)
	assert.Equal(t, permission.FeatureAssets, srv.lastFeature)
	require.NotNil(t, srv.lastReq.Edit)
	assert.False(t, *srv.lastReq.Edit)
}

func TestPermissionHandlerUpdateForbidden(t *testing.T) {
	srv := &fakePermissionSrv{table: permission.NewDefaultTable(), updateErr: appErrors.Clone(appErrors.ErrForbidden, "only super admins may edit permissions")}
	handler := NewPermissionHandler(srv)
	c, rec := newTestContext(http.MethodPut, "/permissions/STAFF/assets", map[string]bool{"view": true, "edit": true}, &models.JWTClaims{Username: "manager", Role: models.RoleManager})
	c.Params = gin.Params{{Key: "role", Value: "STAFF"}, {Key: "feature", Value: "assets"}}

	handler.Update(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
