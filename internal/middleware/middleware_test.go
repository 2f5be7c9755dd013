package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type fakeAuthenticator map[string]*models.JWTClaims

func (f fakeAuthenticator) Authenticate(token string) (*models.JWTClaims, error) {
	claims, ok := f[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return claims, nil
}

type observedRequest struct {
	method, path string
	status       int
}

type fakeObserver struct{ requests []observedRequest }

func (f *fakeObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	f.requests = append(f.requests, observedRequest{method: method, path: path, status: status})
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": Claims(c).Username})
	})
	r.GET("/assets/:id", handlers...)
	return r
}

func doRequest(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	auth := fakeAuthenticator{"good": {Username: "sari", Role: models.RoleAuditor}}
	r := newTestRouter(JWT(auth))

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/assets/1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/assets/1", "bad").Code)

	req := httptest.NewRequest(http.MethodGet, "/assets/1", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(r, "/assets/1", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sari")
}

func TestRequirePermission(t *testing.T) {
	table := permission.NewDefaultTable()
	auth := fakeAuthenticator{
		"manager": {Username: "m", Role: models.RoleManager},
		"staff":   {Username: "s", Role: models.RoleStaff},
	}
	r := newTestRouter(JWT(auth), RequirePermission(table, Can(permission.FeatureAssets, permission.ActionEdit), Can(permission.FeatureApprovals, permission.ActionEdit)))

	assert.Equal(t, http.StatusOK, doRequest(r, "/assets/1", "manager").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/assets/1", "staff").Code)

	require.NoError(t, table.Update(models.RoleStaff, permission.FeatureAssets, permission.FeaturePermission{View: true, Edit: true}))
	require.NoError(t, table.Update(models.RoleStaff, permission.FeatureApprovals, permission.FeaturePermission{View: true, Edit: true}))
	assert.Equal(t, http.StatusOK, doRequest(r, "/assets/1", "staff").Code)
}

func TestRequireRoles(t *testing.T) {
	auth := fakeAuthenticator{
		"admin":  {Username: "admin", Role: models.RoleSuperAdmin},
		"viewer": {Username: "v", Role: models.RoleViewer},
	}
	r := newTestRouter(JWT(auth), RequireRoles(models.RoleSuperAdmin))

	assert.Equal(t, http.StatusOK, doRequest(r, "/assets/1", "admin").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/assets/1", "viewer").Code)

	unauthenticated := newTestRouter(RequireRoles(models.RoleSuperAdmin))
	assert.Equal(t, http.StatusUnauthorized, doRequest(unauthenticated, "/assets/1", "").Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &fakeObserver{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/assets/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	doRequest(r, "/assets/42", "")
	doRequest(r, "/nowhere", "")

	require.Len(t, observer.requests, 2)
	assert.Equal(t, observedRequest{method: http.MethodGet, path: "/assets/:id", status: http.StatusNoContent}, observer.requests[0])
	assert.Equal(t, "unmatched", observer.requests[1].path)
	assert.Equal(t, http.StatusNotFound, observer.requests[1].status)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))

	SetCacheHit(c, true)
	SetMeta(c, "generated_at", "now")
	assert.Equal(t, map[string]interface{}{"cache_hit": true, "generated_at": "now"}, ExtractMeta(c))
}
