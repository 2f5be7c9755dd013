// Package store holds the in-memory application state and writes every change through to the
// repositories.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/opname"
	"github.com/noah-isme/proasset-api/internal/permission"
	"github.com/noah-isme/proasset-api/pkg/jobs"
)

type assetRepository interface {
	List(ctx context.Context) ([]models.Asset, error)
	Create(ctx context.Context, asset *models.Asset) error
	Update(ctx context.Context, asset *models.Asset) error
	Delete(ctx context.Context, id string) error
}

type locationRepository interface {
	List(ctx context.Context) ([]models.Location, error)
	Create(ctx context.Context, location *models.Location) error
	Delete(ctx context.Context, id string) error
}

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type activityLogRepository interface {
	List(ctx context.Context) ([]models.ActivityLog, error)
	Create(ctx context.Context, entry *models.ActivityLog) error
}

type auditSessionRepository interface {
	List(ctx context.Context) ([]models.AuditSession, error)
	Save(ctx context.Context, session *models.AuditSession) error
}

type rolePermissionRepository interface {
	List(ctx context.Context) ([]models.RolePermission, error)
	Upsert(ctx context.Context, perm *models.RolePermission) error
}

type systemRepository interface {
	Reset(ctx context.Context) error
	Import(ctx context.Context, locations []models.Location, assets []models.Asset) error
}

type opnameStateRepository interface {
	Current(ctx context.Context) (string, error)
	SetCurrent(ctx context.Context, id string) error
}

// Repositories bundles the persistence backends the store writes through to.
type Repositories struct {
	Assets        assetRepository
	Locations     locationRepository
	Users         userRepository
	ActivityLogs  activityLogRepository
	AuditSessions auditSessionRepository
	Permissions   rolePermissionRepository
	System        systemRepository
	OpnameState   opnameStateRepository
}

const activityJobType = "activity_log"

// Store is the application context. All collections live in memory behind one lock.
type Store struct {
	mu sync.RWMutex

	repos Repositories

	assets    []models.Asset
	locations []models.Location
	users     []models.User
	logs      []models.ActivityLog

	tracker *opname.Tracker
	perms   *permission.Table

	activity        *jobs.Queue
	activityWorkers int
	activityBuffer  int
	errs            chan error

	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithActivityWorkers persists activity log entries asynchronously on a worker queue. Each entry
// gets a single attempt. Without this option entries are written synchronously.
func WithActivityWorkers(workers, buffer int) Option {
	return func(s *Store) {
		s.activityWorkers = workers
		s.activityBuffer = buffer
		if s.activityWorkers <= 0 {
			s.activityWorkers = 1
		}
	}
}

// WithErrorBuffer sets the capacity of the error channel.
func WithErrorBuffer(size int) Option {
	return func(s *Store) {
		if size > 0 {
			s.errs = make(chan error, size)
		}
	}
}

// New constructs an empty store. Call Load to populate it from the repositories.
func New(repos Repositories, opts ...Option) *Store {
	s := &Store{
		repos:  repos,
		perms:  permission.NewDefaultTable(),
		errs:   make(chan error, 64),
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.activityWorkers > 0 {
		s.activity = jobs.NewQueue(activityJobType, s.handleActivityJob, jobs.QueueConfig{
			Workers:    s.activityWorkers,
			BufferSize: s.activityBuffer,
			MaxRetries: 0,
			OnFailure: func(job jobs.Job, err error) {
				s.publish(&PersistError{Op: "activity log", Err: err})
			},
			Logger: s.logger,
		})
	}
	s.tracker = opname.NewTracker(opname.WithClock(s.now), opname.WithIDGenerator(s.newID))
	return s
}

// Start launches the asynchronous activity writer when configured.
func (s *Store) Start(ctx context.Context) {
	if s.activity != nil {
		s.activity.Start(ctx)
	}
}

// Close flushes pending activity entries.
func (s *Store) Close() {
	if s.activity != nil {
		s.activity.Stop()
	}
}

// Errors delivers persistence failures. Failures are dropped when nobody drains the channel.
func (s *Store) Errors() <-chan error {
	return s.errs
}

// Load replaces the in-memory state with the persisted collections.
func (s *Store) Load(ctx context.Context) error {
	assets, err := s.repos.Assets.List(ctx)
	if err != nil {
		return fmt.Errorf("load assets: %w", err)
	}
	locations, err := s.repos.Locations.List(ctx)
	if err != nil {
		return fmt.Errorf("load locations: %w", err)
	}
	users, err := s.repos.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	logs, err := s.repos.ActivityLogs.List(ctx)
	if err != nil {
		return fmt.Errorf("load activity logs: %w", err)
	}
	sessions, err := s.repos.AuditSessions.List(ctx)
	if err != nil {
		return fmt.Errorf("load audit sessions: %w", err)
	}
	overrides, err := s.repos.Permissions.List(ctx)
	if err != nil {
		return fmt.Errorf("load role permissions: %w", err)
	}

	currentID := ""
	if s.repos.OpnameState != nil {
		if currentID, err = s.repos.OpnameState.Current(ctx); err != nil {
			s.logger.Warn("current audit pointer unavailable", zap.Error(err))
			currentID = ""
		}
	}

	table := permission.NewDefaultTable()
	for _, row := range overrides {
		var cfg permission.FeaturePermission
		if err := json.Unmarshal(row.Config, &cfg); err != nil {
			s.logger.Warn("skip malformed role permission", zap.String("role", string(row.Role)), zap.String("feature", row.Feature), zap.Error(err))
			continue
		}
		if err := table.Update(row.Role, permission.Feature(row.Feature), cfg); err != nil {
			s.logger.Warn("skip unknown role permission", zap.String("role", string(row.Role)), zap.String("feature", row.Feature), zap.Error(err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets = assets
	s.locations = locations
	s.users = users
	s.logs = logs
	s.tracker.Load(sessions, currentID)
	s.perms = table

	s.logger.Info("store loaded",
		zap.Int("assets", len(assets)),
		zap.Int("locations", len(locations)),
		zap.Int("users", len(users)),
		zap.Int("activity_logs", len(logs)),
		zap.Int("audit_sessions", len(sessions)),
	)
	return nil
}

// persist wraps a failed write, logs it and publishes it on the error channel.
func (s *Store) persist(op string, err error) error {
	if err == nil {
		return nil
	}
	var perr *PersistError
	if !errors.As(err, &perr) {
		perr = &PersistError{Op: op, Err: err}
	}
	s.publish(perr)
	return perr
}

func (s *Store) publish(err *PersistError) {
	s.logger.Error("store write failed", zap.String("op", err.Op), zap.Error(err.Err))
	select {
	case s.errs <- err:
	default:
		s.logger.Warn("store error channel full, dropping failure", zap.String("op", err.Op))
	}
}
