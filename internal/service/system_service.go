package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/models"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
)

type systemStore interface {
	Reset(ctx context.Context, actor string) error
	Import(ctx context.Context, locations []models.Location, assets []models.Asset, actor string) error
}

type backupWriter interface {
	SaveBackup(reason string) (string, error)
}

type dashboardInvalidator interface {
	InvalidateDashboard(ctx context.Context) error
}

type keepWarmPinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// ImportRequest is the body of a JSON restore. Users are never imported.
type ImportRequest struct {
	Assets    []models.Asset    `json:"assets"`
	Locations []models.Location `json:"locations"`
}

// ReadinessReport lists the state of every dependency.
type ReadinessReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SystemService runs destructive maintenance and health probes.
type SystemService struct {
	store   systemStore
	backups backupWriter
	cache   dashboardInvalidator
	pinger  keepWarmPinger
	checks  map[string]HealthCheck
	logger  *zap.Logger
	timeout time.Duration
}

// NewSystemService constructs a SystemService. checks are probed by Ready.
func NewSystemService(store systemStore, backups backupWriter, cache dashboardInvalidator, pinger keepWarmPinger, checks map[string]HealthCheck, logger *zap.Logger) *SystemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemService{
		store:   store,
		backups: backups,
		cache:   cache,
		pinger:  pinger,
		checks:  checks,
		logger:  logger,
		timeout: 3 * time.Second,
	}
}

// Reset writes a backup and then clears assets, locations, the activity log and audit sessions.
// A failed backup aborts the reset.
func (s *SystemService) Reset(ctx context.Context, claims *models.JWTClaims) (string, error) {
	backup, err := s.backup("reset")
	if err != nil {
		return "", err
	}
	if err := s.store.Reset(ctx, claims.Actor()); err != nil {
		return backup, mapStoreError(err, "")
	}
	s.invalidate(ctx)
	s.logger.Warn("factory reset performed", zap.String("actor", claims.Actor()), zap.String("backup", backup))
	return backup, nil
}

// Import replaces assets and locations with the payload after writing a backup.
func (s *SystemService) Import(ctx context.Context, claims *models.JWTClaims, req ImportRequest) (string, error) {
	if err := validateImport(req); err != nil {
		return "", err
	}
	backup, err := s.backup("import")
	if err != nil {
		return "", err
	}
	if err := s.store.Import(ctx, req.Locations, req.Assets, claims.Actor()); err != nil {
		return backup, mapStoreError(err, "")
	}
	s.invalidate(ctx)
	s.logger.Info("data imported",
		zap.String("actor", claims.Actor()),
		zap.Int("assets", len(req.Assets)),
		zap.Int("locations", len(req.Locations)),
	)
	return backup, nil
}

// Ping runs the keep-warm query against the database.
func (s *SystemService) Ping(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	if err := s.pinger.Ping(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "database unreachable")
	}
	return nil
}

// Ready probes every registered dependency. The error is non-nil when any probe fails.
func (s *SystemService) Ready(ctx context.Context) (ReadinessReport, error) {
	report := ReadinessReport{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.checks[name](probeCtx)
		cancel()
		if err != nil {
			report.Checks[name] = err.Error()
			failed = append(failed, name)
			continue
		}
		report.Checks[name] = "ok"
	}
	if len(failed) > 0 {
		report.Status = "unavailable"
		return report, appErrors.Clone(appErrors.ErrUnavailable, "unavailable: "+strings.Join(failed, ", "))
	}
	return report, nil
}

func (s *SystemService) backup(reason string) (string, error) {
	if s.backups == nil {
		return "", nil
	}
	return s.backups.SaveBackup(reason)
}

func (s *SystemService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDashboard(ctx); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func validateImport(req ImportRequest) error {
	locations := make(map[string]struct{}, len(req.Locations))
	for i, loc := range req.Locations {
		if strings.TrimSpace(loc.Name) == "" {
			return appErrors.Validation(nil, "locations["+strconv.Itoa(i)+"].name is required")
		}
		if loc.ID == "" {
			continue
		}
		if _, dup := locations[loc.ID]; dup {
			return appErrors.Validation(nil, "locations["+strconv.Itoa(i)+"].id is duplicated")
		}
		locations[loc.ID] = struct{}{}
	}
	assets := make(map[string]struct{}, len(req.Assets))
	for i, asset := range req.Assets {
		if asset.ID != "" {
			if _, dup := assets[asset.ID]; dup {
				return appErrors.Validation(nil, "assets["+strconv.Itoa(i)+"].id is duplicated")
			}
			assets[asset.ID] = struct{}{}
		}
		if strings.TrimSpace(asset.Name) == "" {
			return appErrors.Validation(nil, "assets["+strconv.Itoa(i)+"].name is required")
		}
		if asset.Price < 0 {
			return appErrors.Validation(nil, "assets["+strconv.Itoa(i)+"].price must not be negative")
		}
		if _, ok := locations[asset.LocationID]; asset.LocationID != "" && !ok {
			return appErrors.Validation(nil, "assets["+strconv.Itoa(i)+"].location_id does not match an imported location")
		}
		switch asset.Status {
		case models.AssetStatusGood, models.AssetStatusUnderRepair, models.AssetStatusDamaged, models.AssetStatusLost:
		default:
			return appErrors.Validation(nil, "assets["+strconv.Itoa(i)+"].status is invalid")
		}
		if asset.DeletionStatus != nil && *asset.DeletionStatus != models.DeletionStatusPending {
			return appErrors.Validation(nil, "assets["+strconv.Itoa(i)+"].deletion_status is invalid")
		}
		// a deletion request date is present exactly when the deletion is pending
		if asset.PendingDeletion() != (asset.DeletionRequestDate != nil) {
			return appErrors.Validation(nil, "assets["+strconv.Itoa(i)+"].deletion_status and deletion_request_date disagree")
		}
	}
	return nil
}
