package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/opname"
	"github.com/noah-isme/proasset-api/internal/permission"
)

const defaultRecentActivity = 5

type dashboardStore interface {
	Assets() []models.Asset
	CurrentAudit() (models.AuditSession, bool)
	RecentLogs(n int) []models.ActivityLog
	HasPermission(role models.UserRole, feature permission.Feature, action permission.Action, field ...string) bool
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL       time.Duration
	RecentActivity int
}

// DashboardService composes the landing page statistics.
type DashboardService struct {
	store  dashboardStore
	cache  dashboardCache
	cfg    DashboardServiceConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs a DashboardService. cache may be nil.
func NewDashboardService(store dashboardStore, cache dashboardCache, cfg DashboardServiceConfig, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecentActivity <= 0 {
		cfg.RecentActivity = defaultRecentActivity
	}
	return &DashboardService{store: store, cache: cache, cfg: cfg, logger: logger, now: time.Now}
}

// Stats returns the dashboard for role. Asset aggregates come from the cache when fresh; the
// active audit and recent activity are always read live.
func (s *DashboardService) Stats(ctx context.Context, role models.UserRole) models.DashboardStats {
	summary, cached := s.summary(ctx)

	stats := models.DashboardStats{
		TotalActive:      summary.TotalActive,
		PendingApprovals: summary.PendingApprovals,
		NeedsAttention:   summary.NeedsAttention,
		ByStatus:         summary.ByStatus,
		RecentActivity:   s.store.RecentLogs(s.cfg.RecentActivity),
		GeneratedAt:      summary.GeneratedAt,
		Cached:           cached,
	}
	if s.store.HasPermission(role, permission.FeatureAssets, permission.ActionView, permission.FieldPrice) {
		value := summary.TotalBookValue
		stats.TotalBookValue = &value
	}
	if session, ok := s.store.CurrentAudit(); ok {
		stats.ActiveAudit = &models.AuditProgress{
			SessionID:   session.ID,
			Scanned:     len(session.ScannedAssets),
			Total:       session.TotalAssetsToCheck,
			Progress:    opname.Progress(session),
			Accuracy:    opname.Accuracy(session),
			AuditorName: session.AuditorName,
		}
	}
	return stats
}

func (s *DashboardService) summary(ctx context.Context) (models.AssetSummary, bool) {
	if s.cache != nil {
		var cached models.AssetSummary
		hit, err := s.cache.Get(ctx, dashboardAssetsKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		if hit {
			return cached, true
		}
	}

	summary := Summarize(s.store.Assets(), s.now())
	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardAssetsKey, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false
}

// Summarize aggregates assets at now. Assets pending deletion only count towards
// PendingApprovals.
func Summarize(assets []models.Asset, now time.Time) models.AssetSummary {
	summary := models.AssetSummary{
		ByStatus:    make(map[string]int),
		GeneratedAt: now.UTC(),
	}
	for _, asset := range assets {
		if asset.PendingDeletion() {
			summary.PendingApprovals++
			continue
		}
		summary.TotalActive++
		summary.ByStatus[string(asset.Status)]++
		if asset.Status == models.AssetStatusDamaged || asset.Status == models.AssetStatusLost {
			summary.NeedsAttention++
		}
	}
	summary.TotalBookValue = BookValue(assets, now)
	return summary
}
