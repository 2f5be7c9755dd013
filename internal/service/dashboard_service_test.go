package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type fakeDashboardStore struct {
	assets  []models.Asset
	session *models.AuditSession
	logs    []models.ActivityLog
	perms   *permission.Table
	reads   int
}

func (f *fakeDashboardStore) Assets() []models.Asset {
	f.reads++
	return f.assets
}

func (f *fakeDashboardStore) CurrentAudit() (models.AuditSession, bool) {
	if f.session == nil {
		return models.AuditSession{}, false
	}
	return *f.session, true
}

func (f *fakeDashboardStore) RecentLogs(n int) []models.ActivityLog {
	if n < len(f.logs) {
		return f.logs[:n]
	}
	return f.logs
}

func (f *fakeDashboardStore) HasPermission(role models.UserRole, feature permission.Feature, action permission.Action, field ...string) bool {
	return f.perms.HasPermission(role, feature, action, field...)
}

type memoryCacheRepo struct {
	values map[string]interface{}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.AssetSummary) = value.(models.AssetSummary)
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.values = map[string]interface{}{}
	return nil
}

func dashboardAssets() []models.Asset {
	pending := models.DeletionStatusPending
	return []models.Asset{
		{ID: "a1", Status: models.AssetStatusGood, Price: 1000, PurchaseDate: "2026-10-14", UsefulLife: 4},
		{ID: "a2", Status: models.AssetStatusDamaged, Price: 500, PurchaseDate: "2026-10-14", UsefulLife: 4},
		{ID: "a3", Status: models.AssetStatusLost, Price: 200, PurchaseDate: "2026-10-14", UsefulLife: 4},
		{ID: "a4", Status: models.AssetStatusLost, Price: 900, PurchaseDate: "2026-10-14", UsefulLife: 4, DeletionStatus: &pending},
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	summary := Summarize(dashboardAssets(), now)

	assert.Equal(t, 3, summary.TotalActive)
	assert.Equal(t, 1, summary.PendingApprovals)
	assert.Equal(t, 2, summary.NeedsAttention)
	assert.Equal(t, 1700.0, summary.TotalBookValue)
	assert.Equal(t, map[string]int{"Baik": 1, "Rusak": 1, "Hilang": 1}, summary.ByStatus)
}

func TestDashboardStatsMasksBookValue(t *testing.T) {
	st := &fakeDashboardStore{
		assets: dashboardAssets(),
		perms:  permission.NewDefaultTable(),
		session: &models.AuditSession{
			ID: "s1", TotalAssetsToCheck: 4, ScannedAssets: []string{"a1"}, AuditorName: "Sari",
		},
	}
	svc := NewDashboardService(st, nil, DashboardServiceConfig{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC) }

	managerView := svc.Stats(context.Background(), models.RoleManager)
	require.NotNil(t, managerView.TotalBookValue)
	assert.Equal(t, 1700.0, *managerView.TotalBookValue)
	require.NotNil(t, managerView.ActiveAudit)
	assert.Equal(t, 25.0, managerView.ActiveAudit.Accuracy)

	staffView := svc.Stats(context.Background(), models.RoleStaff)
	assert.Nil(t, staffView.TotalBookValue)
	assert.Equal(t, 3, staffView.TotalActive)
}

func TestDashboardStatsUsesCache(t *testing.T) {
	st := &fakeDashboardStore{assets: dashboardAssets(), perms: permission.NewDefaultTable()}
	repo := &memoryCacheRepo{values: map[string]interface{}{}}
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := NewDashboardService(st, cache, DashboardServiceConfig{CacheTTL: time.Minute}, nil)

	first := svc.Stats(context.Background(), models.RoleManager)
	assert.False(t, first.Cached)
	second := svc.Stats(context.Background(), models.RoleManager)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, st.reads)

	require.NoError(t, cache.InvalidateDashboard(context.Background()))
	third := svc.Stats(context.Background(), models.RoleManager)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, st.reads)
}
