package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/noah-isme/proasset-api/internal/models"
)

var errBackend = errors.New("backend unavailable")

type fakeAssetRepo struct {
	mu      sync.Mutex
	rows    map[string]models.Asset
	seed    []models.Asset
	failing bool
}

func (r *fakeAssetRepo) List(ctx context.Context) ([]models.Asset, error) { return r.seed, nil }

func (r *fakeAssetRepo) Create(ctx context.Context, asset *models.Asset) error {
	return r.put(*asset)
}

func (r *fakeAssetRepo) Update(ctx context.Context, asset *models.Asset) error {
	return r.put(*asset)
}

func (r *fakeAssetRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errBackend
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeAssetRepo) put(asset models.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errBackend
	}
	if r.rows == nil {
		r.rows = map[string]models.Asset{}
	}
	r.rows[asset.ID] = asset
	return nil
}

type fakeLocationRepo struct {
	seed    []models.Location
	created []models.Location
	deleted []string
}

func (r *fakeLocationRepo) List(ctx context.Context) ([]models.Location, error) { return r.seed, nil }

func (r *fakeLocationRepo) Create(ctx context.Context, location *models.Location) error {
	r.created = append(r.created, *location)
	return nil
}

func (r *fakeLocationRepo) Delete(ctx context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeUserRepo struct {
	seed    []models.User
	updated []models.User
}

func (r *fakeUserRepo) List(ctx context.Context) ([]models.User, error) { return r.seed, nil }
func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	return nil
}
func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.updated = append(r.updated, *user)
	return nil
}
func (r *fakeUserRepo) Delete(ctx context.Context, id string) error { return nil }

type fakeActivityRepo struct {
	mu      sync.Mutex
	rows    []models.ActivityLog
	failing bool
}

func (r *fakeActivityRepo) List(ctx context.Context) ([]models.ActivityLog, error) { return nil, nil }

func (r *fakeActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errBackend
	}
	r.rows = append(r.rows, *entry)
	return nil
}

func (r *fakeActivityRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeSessionRepo struct {
	seed  []models.AuditSession
	saved []models.AuditSession
}

func (r *fakeSessionRepo) List(ctx context.Context) ([]models.AuditSession, error) {
	return r.seed, nil
}
func (r *fakeSessionRepo) Save(ctx context.Context, session *models.AuditSession) error {
	r.saved = append(r.saved, session.Clone())
	return nil
}

type fakePermissionRepo struct {
	seed  []models.RolePermission
	saved []models.RolePermission
}

func (r *fakePermissionRepo) List(ctx context.Context) ([]models.RolePermission, error) {
	return r.seed, nil
}
func (r *fakePermissionRepo) Upsert(ctx context.Context, perm *models.RolePermission) error {
	r.saved = append(r.saved, *perm)
	return nil
}

type fakeSystemRepo struct {
	resets  int
	imports int
}

func (r *fakeSystemRepo) Reset(ctx context.Context) error {
	r.resets++
	return nil
}
func (r *fakeSystemRepo) Import(ctx context.Context, locations []models.Location, assets []models.Asset) error {
	r.imports++
	return nil
}

type fakeOpnameState struct {
	current string
}

func (r *fakeOpnameState) Current(ctx context.Context) (string, error) { return r.current, nil }
func (r *fakeOpnameState) SetCurrent(ctx context.Context, id string) error {
	r.current = id
	return nil
}

type fixture struct {
	store       *Store
	assets      *fakeAssetRepo
	locations   *fakeLocationRepo
	users       *fakeUserRepo
	activity    *fakeActivityRepo
	sessions    *fakeSessionRepo
	permissions *fakePermissionRepo
	system      *fakeSystemRepo
	pointer     *fakeOpnameState
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		assets:      &fakeAssetRepo{},
		locations:   &fakeLocationRepo{},
		users:       &fakeUserRepo{},
		activity:    &fakeActivityRepo{},
		sessions:    &fakeSessionRepo{},
		permissions: &fakePermissionRepo{},
		system:      &fakeSystemRepo{},
		pointer:     &fakeOpnameState{},
	}
	seq := 0
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	base := []Option{
		WithClock(func() time.Time { return clock }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	}
	f.store = New(Repositories{
		Assets:        f.assets,
		Locations:     f.locations,
		Users:         f.users,
		ActivityLogs:  f.activity,
		AuditSessions: f.sessions,
		Permissions:   f.permissions,
		System:        f.system,
		OpnameState:   f.pointer,
	}, append(base, opts...)...)
	return f
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	if err := f.store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func strPtr(s string) *string { return &s }
