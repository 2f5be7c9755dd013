package service

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
	"github.com/noah-isme/proasset-api/internal/store"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
	"github.com/noah-isme/proasset-api/pkg/storage"
)

type fakeExportStore struct {
	assets    []models.Asset
	locations []models.Location
	users     []models.User
	logs      []models.ActivityLog
	perms     *permission.Table
}

func (f *fakeExportStore) Assets() []models.Asset { return f.assets }

func (f *fakeExportStore) RecentLogs(n int) []models.ActivityLog { return f.logs }

func (f *fakeExportStore) Snapshot() store.Snapshot {
	return store.Snapshot{
		Assets:     f.assets,
		Locations:  f.locations,
		Users:      f.users,
		ExportDate: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeExportStore) HasPermission(role models.UserRole, feature permission.Feature, action permission.Action, field ...string) bool {
	return f.perms.HasPermission(role, feature, action, field...)
}

type fakeFileStorage struct {
	dir      string
	saved    map[string][]byte
	order    []string
	saveErr  error
	cleanups int
}

func (f *fakeFileStorage) Save(filename string, data []byte) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved[filename] = data
	f.order = append(f.order, filename)
	if f.dir != "" {
		if err := os.WriteFile(filepath.Join(f.dir, filename), data, 0o600); err != nil {
			return "", err
		}
	}
	return filename, nil
}

func (f *fakeFileStorage) Open(filename string) (*os.File, error) {
	if _, ok := f.saved[filename]; !ok {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(f.dir, filename))
}

func (f *fakeFileStorage) List() ([]string, error) {
	return f.order, nil
}

func (f *fakeFileStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	f.cleanups++
	return nil, nil
}

func newExportFixture() (*ExportService, *fakeExportStore, *fakeFileStorage) {
	st := &fakeExportStore{
		assets: []models.Asset{
			{ID: "a1", Name: "Laptop, 14 inch", Category: "Elektronik", LocationID: "l1", Price: 15000000, PurchaseDate: "2024-01-10", Status: models.AssetStatusGood, Barcode: strPtr("BC-1")},
		},
		locations: []models.Location{{ID: "l1", Name: "Gedung A"}},
		users:     []models.User{{ID: "u1", Username: "admin", PasswordHash: "$2a$secret", Role: models.RoleSuperAdmin}},
		logs: []models.ActivityLog{
			{ID: "log1", Action: models.ActionCreate, Target: "Laptop", Details: `Added new asset "Laptop"`, User: "admin", Timestamp: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)},
		},
		perms: permission.NewDefaultTable(),
	}
	files := &fakeFileStorage{saved: map[string][]byte{}}
	svc := NewExportService(st, files, storage.NewSignedURLSigner("test-secret", time.Hour), ExportConfig{BackupRetention: time.Hour, APIPrefix: "/api/v1"}, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }
	return svc, st, files
}

func TestExportAssetsCSV(t *testing.T) {
	svc, _, _ := newExportFixture()

	out, name, err := svc.AssetsCSV(models.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, "assets-export-2026-10-14.csv", name)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Name,Category,LocationID,Price,PurchaseDate,Status,Barcode", lines[0])
	assert.Equal(t, `a1,"Laptop, 14 inch",Elektronik,l1,15000000,2024-01-10,Baik,BC-1`, lines[1])

	out, _, err = svc.AssetsCSV(models.RoleStaff)
	require.NoError(t, err)
	assert.Contains(t, string(out), `a1,"Laptop, 14 inch",Elektronik,l1,,2024-01-10,Baik,BC-1`)
}

func TestExportActivityLogCSV(t *testing.T) {
	svc, _, _ := newExportFixture()
	out, name, err := svc.ActivityLogCSV()
	require.NoError(t, err)
	assert.Equal(t, "audit_logs_2026-10-14.csv", name)
	assert.Contains(t, string(out), `log1,2026-10-14T08:00:00Z,CREATE,Laptop,"Added new asset ""Laptop""",admin`)
}

func TestExportBackupOmitsPasswordHashes(t *testing.T) {
	svc, _, _ := newExportFixture()
	payload, name, err := svc.Backup()
	require.NoError(t, err)
	assert.Equal(t, "proasset-backup-2026-10-14.json", name)
	assert.NotContains(t, string(payload), "secret")

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Contains(t, decoded, "assets")
	assert.Contains(t, decoded, "locations")
	assert.Contains(t, decoded, "users")
	assert.Contains(t, decoded, "export_date")
}

func TestExportSaveBackup(t *testing.T) {
	svc, _, files := newExportFixture()
	name, err := svc.SaveBackup("reset")
	require.NoError(t, err)
	assert.Equal(t, "proasset-reset-20261014T093000Z.json", name)
	assert.Contains(t, files.saved, name)
	assert.Equal(t, 1, files.cleanups)

	files.saveErr = errors.New("disk full")
	_, err = svc.SaveBackup("reset")
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	noStorage := NewExportService(&fakeExportStore{perms: permission.NewDefaultTable()}, nil, nil, ExportConfig{}, nil, nil)
	name, err = noStorage.SaveBackup("reset")
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestExportBackupLinkRoundTrip(t *testing.T) {
	svc, _, files := newExportFixture()
	files.dir = t.TempDir()

	name, err := svc.SaveBackup("import")
	require.NoError(t, err)

	link, err := svc.BackupLink(name)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, name, link.File)
	assert.True(t, strings.HasPrefix(link.URL, "/api/v1/settings/backups/"))

	token := strings.TrimPrefix(link.URL, "/api/v1/settings/backups/")
	download, err := svc.OpenBackup(token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, name, download.Filename)
	assert.Equal(t, int64(len(files.saved[name])), download.Size)

	_, err = svc.OpenBackup(token + "x")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportBackupsNewestFirst(t *testing.T) {
	svc, _, files := newExportFixture()
	files.order = []string{"proasset-reset-1.json", "proasset-import-2.json"}

	links, err := svc.Backups()
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "proasset-import-2.json", links[0].File)
	assert.Equal(t, "proasset-reset-1.json", links[1].File)
	assert.True(t, strings.HasPrefix(links[0].URL, "/api/v1/settings/backups/"))
}
