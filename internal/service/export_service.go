package service

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
	"github.com/noah-isme/proasset-api/internal/store"
	appErrors "github.com/noah-isme/proasset-api/pkg/errors"
	"github.com/noah-isme/proasset-api/pkg/export"
)

type exportStore interface {
	Assets() []models.Asset
	RecentLogs(n int) []models.ActivityLog
	Snapshot() store.Snapshot
	HasPermission(role models.UserRole, feature permission.Feature, action permission.Action, field ...string) bool
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	List() ([]string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type backupSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (id, relPath string, expiresAt time.Time, err error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	BackupRetention time.Duration
	APIPrefix       string
}

// BackupLink is a signed, expiring download link for a stored backup.
type BackupLink struct {
	File      string    `json:"file"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BackupDownload is an opened backup ready to stream.
type BackupDownload struct {
	File     *os.File
	Filename string
	Size     int64
}

const backupTokenID = "backup"

var (
	assetExportHeaders    = []string{"ID", "Name", "Category", "LocationID", "Price", "PurchaseDate", "Status", "Barcode"}
	activityExportHeaders = []string{"ID", "Timestamp", "Action", "Target", "Details", "User"}
)

// ExportService renders downloads and writes JSON backups.
type ExportService struct {
	store   exportStore
	storage fileStorage
	signer  backupSigner
	csv     csvRenderer
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService. storage may be nil, in which case backups are
// only rendered, never written. Without a signer stored backups get no download link.
func NewExportService(store exportStore, storage fileStorage, signer backupSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &ExportService{store: store, storage: storage, signer: signer, csv: csv, logger: logger, cfg: cfg, now: time.Now}
}

// AssetsCSV renders every asset. The price column is blank for roles that may not view it.
func (s *ExportService) AssetsCSV(role models.UserRole) ([]byte, string, error) {
	showPrice := s.store.HasPermission(role, permission.FeatureAssets, permission.ActionView, permission.FieldPrice)
	showDate := s.store.HasPermission(role, permission.FeatureAssets, permission.ActionView, permission.FieldPurchaseDate)

	assets := s.store.Assets()
	rows := make([]map[string]string, 0, len(assets))
	for _, asset := range assets {
		row := map[string]string{
			"ID":         asset.ID,
			"Name":       asset.Name,
			"Category":   asset.Category,
			"LocationID": asset.LocationID,
			"Status":     string(asset.Status),
		}
		if showPrice {
			row["Price"] = strconv.FormatFloat(asset.Price, 'f', -1, 64)
		}
		if showDate {
			row["PurchaseDate"] = asset.PurchaseDate
		}
		if asset.Barcode != nil {
			row["Barcode"] = *asset.Barcode
		}
		rows = append(rows, row)
	}

	out, err := s.csv.Render(export.Dataset{Headers: assetExportHeaders, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to render asset export")
	}
	return out, fmt.Sprintf("assets-export-%s.csv", s.today()), nil
}

// ActivityLogCSV renders the whole activity log, newest first.
func (s *ExportService) ActivityLogCSV() ([]byte, string, error) {
	logs := s.store.RecentLogs(math.MaxInt32)
	rows := make([]map[string]string, 0, len(logs))
	for _, entry := range logs {
		rows = append(rows, map[string]string{
			"ID":        entry.ID,
			"Timestamp": entry.Timestamp.UTC().Format(time.RFC3339),
			"Action":    string(entry.Action),
			"Target":    entry.Target,
			"Details":   entry.Details,
			"User":      entry.User,
		})
	}
	out, err := s.csv.Render(export.Dataset{Headers: activityExportHeaders, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to render activity log export")
	}
	return out, fmt.Sprintf("audit_logs_%s.csv", s.today()), nil
}

// Backup renders the assets, locations and users as an indented JSON document.
func (s *ExportService) Backup() ([]byte, string, error) {
	payload, err := json.MarshalIndent(s.store.Snapshot(), "", "  ")
	if err != nil {
		return nil, "", appErrors.Internal(err, "failed to encode backup")
	}
	return payload, fmt.Sprintf("proasset-backup-%s.json", s.today()), nil
}

// SaveBackup writes a backup into storage and prunes backups past the retention window. It
// returns the stored file name.
func (s *ExportService) SaveBackup(reason string) (string, error) {
	if s.storage == nil {
		return "", nil
	}
	payload, _, err := s.Backup()
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("proasset-%s-%s.json", reason, s.now().UTC().Format("20060102T150405Z"))
	stored, err := s.storage.Save(name, payload)
	if err != nil {
		return "", appErrors.Internal(err, "failed to write backup")
	}
	s.logger.Info("backup written", zap.String("file", stored), zap.String("reason", reason))

	if s.cfg.BackupRetention > 0 {
		removed, err := s.storage.CleanupOlderThan(s.cfg.BackupRetention)
		if err != nil {
			s.logger.Warn("backup cleanup failed", zap.Error(err))
		} else if len(removed) > 0 {
			s.logger.Info("expired backups removed", zap.Int("count", len(removed)))
		}
	}
	return stored, nil
}

// BackupLink signs a download link for a stored backup.
func (s *ExportService) BackupLink(name string) (*BackupLink, error) {
	if s.signer == nil || name == "" {
		return nil, nil
	}
	token, expiresAt, err := s.signer.Generate(backupTokenID, name)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to generate download token")
	}
	base := strings.TrimRight(s.cfg.APIPrefix, "/")
	if base == "" {
		base = "/api/v1"
	}
	return &BackupLink{
		File:      name,
		URL:       fmt.Sprintf("%s/settings/backups/%s", base, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Backups lists stored backups newest first, each with a fresh download link.
func (s *ExportService) Backups() ([]BackupLink, error) {
	if s.storage == nil {
		return []BackupLink{}, nil
	}
	names, err := s.storage.List()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list backups")
	}
	links := make([]BackupLink, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		link, err := s.BackupLink(names[i])
		if err != nil {
			return nil, err
		}
		if link == nil {
			link = &BackupLink{File: names[i]}
		}
		links = append(links, *link)
	}
	return links, nil
}

// OpenBackup validates a download token and opens the backup it names. The caller closes the file.
func (s *ExportService) OpenBackup(token string) (*BackupDownload, error) {
	if s.signer == nil || s.storage == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "backups are not stored")
	}
	id, relPath, _, err := s.signer.Parse(token, false)
	if err != nil || id != backupTokenID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "backup not found")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Internal(err, "failed to read backup metadata")
	}
	return &BackupDownload{File: file, Filename: filepath.Base(relPath), Size: info.Size()}, nil
}

func (s *ExportService) today() string {
	return s.now().UTC().Format(purchaseDateLayout)
}
