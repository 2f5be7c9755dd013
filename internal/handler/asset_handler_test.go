package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proasset-api/internal/models"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type fakeAssetSrv struct {
	assets     []models.AssetView
	lastFilter models.AssetFilter
	lastReq    models.AssetRequest
	err        error
	approved   string
}

func (f *fakeAssetSrv) List(_ models.UserRole, filter models.AssetFilter) []models.AssetView {
	f.lastFilter = filter
	return f.assets
}

func (f *fakeAssetSrv) PendingDeletion(models.UserRole) []models.AssetView {
	return f.assets
}

func (f *fakeAssetSrv) Get(_ models.UserRole, id string) (*models.AssetView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.AssetView{ID: id}, nil
}

func (f *fakeAssetSrv) Create(_ context.Context, _ *models.JWTClaims, req models.AssetRequest) (*models.AssetView, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.AssetView{ID: "a-new", Name: req.Name, Status: req.Status}, nil
}

func (f *fakeAssetSrv) Update(_ context.Context, _ *models.JWTClaims, id string, req models.AssetRequest) (*models.AssetView, error) {
	f.lastReq = req
	return &models.AssetView{ID: id, Name: req.Name}, f.err
}

func (f *fakeAssetSrv) Delete(context.Context, *models.JWTClaims, string) error {
	return f.err
}

func (f *fakeAssetSrv) RequestDelete(_ context.Context, _ *models.JWTClaims, id string) (*models.AssetView, error) {
	if f.err != nil {
		return nil, f.err
	}
	pending := models.DeletionStatusPending
	return &models.AssetView{ID: id, DeletionStatus: &pending}, nil
}

func (f *fakeAssetSrv) ApproveDelete(_ context.Context, _ *models.JWTClaims, id string) error {
	f.approved = id
	return f.err
}

func (f *fakeAssetSrv) RejectDelete(_ context.Context, _ *models.JWTClaims, id string) (*models.AssetView, error) {
	return &models.AssetView{ID: id}, f.err
}

func TestAssetHandlerListParsesFilter(t *testing.T) {
	srv := &fakeAssetSrv{assets: []models.AssetView{{ID: "a1"}, {ID: "a2"}}}
	handler := NewAssetHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/assets?search=laptop&status=Rusak&include_pending=true", nil, adminClaims())

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "laptop", srv.lastFilter.Search)
	require.NotNil(t, srv.lastFilter.Status)
	assert.Equal(t, models.AssetStatusDamaged, *srv.lastFilter.Status)
	assert.True(t, srv.lastFilter.IncludePending)

	var assets []models.AssetView
	envelope := decodeEnvelope(t, rec, &assets)
	assert.Len(t, assets, 2)
	assert.EqualValues(t, 2, envelope.Meta["total"])
}

func TestAssetHandlerCreateInvalidBody(t *testing.T) {
	handler := NewAssetHandler(&fakeAssetSrv{})
	c, rec := newTestContext(http.MethodPost, "/assets", "not-json", adminClaims())

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssetHandlerCreate(t *testing.T) {
	srv := &fakeAssetSrv{}
	handler := NewAssetHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/assets", map[string]interface{}{
		"name":        "Proyektor",
		"category":    "Elektronik",
		"location_id": "l1",
		"status":      "Baik",
	}, adminClaims())

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Proyektor", srv.lastReq.Name)
	var asset models.AssetView
	decodeEnvelope(t, rec, &asset)
	assert.Equal(t, "a-new", asset.ID)
}

func TestAssetHandlerGetNotFound(t *testing.T) {
	handler := NewAssetHandler(&fakeAssetSrv{err: appErrors.Clone(appErrors.ErrNotFound, "asset not found")})
	c, rec := newTestContext(http.MethodGet, "/assets/missing", nil, adminClaims())
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	require.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec, nil)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestAssetHandlerRequestDeleteConflict(t *testing.T) {
	handler := NewAssetHandler(&fakeAssetSrv{err: appErrors.Clone(appErrors.ErrConflict, "deletion already requested")})
	c, rec := newTestContext(http.MethodPost, "/assets/a1/deletion-request", nil, adminClaims())
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	handler.RequestDelete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAssetHandlerApprove(t *testing.T) {
	srv := &fakeAssetSrv{}
	handler := NewAssetHandler(srv)
	c, _ := newTestContext(http.MethodPost, "/approvals/a1/approve", nil, adminClaims())
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	handler.Approve(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "a1", srv.approved)
}

func TestAssetHandlerPendingRequiresClaims(t *testing.T) {
	handler := NewAssetHandler(&fakeAssetSrv{})
	c, rec := newTestContext(http.MethodGet, "/approvals", nil, nil)

	handler.Pending(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
