package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/service"
	"github.com/noah-isme/proasset-api/pkg/response"
)

type settingsExporter interface {
	AssetsCSV(role models.UserRole) ([]byte, string, error)
	ActivityLogCSV() ([]byte, string, error)
	Backup() ([]byte, string, error)
	BackupLink(name string) (*service.BackupLink, error)
	Backups() ([]service.BackupLink, error)
	OpenBackup(token string) (*service.BackupDownload, error)
}

type settingsMaintainer interface {
	Reset(ctx context.Context, claims *models.JWTClaims) (string, error)
	Import(ctx context.Context, claims *models.JWTClaims, req service.ImportRequest) (string, error)
}

type activityLister interface {
	List(filter models.ActivityLogFilter) ([]models.ActivityLog, *models.Pagination)
}

// SettingsHandler serves exports, backups, the activity log and destructive maintenance.
type SettingsHandler struct {
	exports  settingsExporter
	system   settingsMaintainer
	activity activityLister
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(exports settingsExporter, system settingsMaintainer, activity activityLister) *SettingsHandler {
	return &SettingsHandler{exports: exports, system: system, activity: activity}
}

// Logs godoc
// @Summary Activity log
// @Description Paginated activity log, newest first.
// @Tags Settings
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param action query string false "Action filter"
// @Success 200 {object} response.Envelope
// @Router /settings/logs [get]
func (h *SettingsHandler) Logs(c *gin.Context) {
	filter := models.ActivityLogFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 50),
	}
	if action := c.Query("action"); action != "" {
		a := models.ActivityAction(action)
		filter.Action = &a
	}
	logs, pagination := h.activity.List(filter)
	response.JSON(c, http.StatusOK, logs, pagination)
}

// ExportLogs godoc
// @Summary Export activity log
// @Tags Settings
// @Produce text/csv
// @Success 200 {file} file
// @Router /settings/logs/export [get]
func (h *SettingsHandler) ExportLogs(c *gin.Context) {
	data, filename, err := h.exports.ActivityLogCSV()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "text/csv", data)
}

// ExportAssets godoc
// @Summary Export assets
// @Description CSV of every asset. Restricted columns are blank for roles that may not view them.
// @Tags Settings
// @Produce text/csv
// @Success 200 {file} file
// @Router /settings/export/assets [get]
func (h *SettingsHandler) ExportAssets(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	data, filename, err := h.exports.AssetsCSV(claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "text/csv", data)
}

// Backup godoc
// @Summary Download backup
// @Description JSON snapshot of assets, locations and users.
// @Tags Settings
// @Produce json
// @Success 200 {file} file
// @Router /settings/backup [get]
func (h *SettingsHandler) Backup(c *gin.Context) {
	data, filename, err := h.exports.Backup()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "application/json", data)
}

// Backups godoc
// @Summary Stored backups
// @Description Backups written before resets and imports, newest first, with signed download links.
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/backups [get]
func (h *SettingsHandler) Backups(c *gin.Context) {
	links, err := h.exports.Backups()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links, nil)
}

// DownloadBackup godoc
// @Summary Download stored backup
// @Description Stream a backup written before a reset or import. The signed token authorises the download.
// @Tags Settings
// @Produce json
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /settings/backups/{token} [get]
func (h *SettingsHandler) DownloadBackup(c *gin.Context) {
	download, err := h.exports.OpenBackup(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", "attachment; filename=\""+download.Filename+"\"")
	c.DataFromReader(http.StatusOK, download.Size, "application/json", download.File, nil)
}

// Import godoc
// @Summary Import data
// @Description Replace assets and locations with the payload. A backup is written first.
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.ImportRequest true "Backup document"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/import [post]
func (h *SettingsHandler) Import(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.ImportRequest
	if !bindJSON(c, &req, "invalid backup document") {
		return
	}

	backup, err := h.system.Import(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondWithBackup(c, backup, map[string]interface{}{
		"assets":    len(req.Assets),
		"locations": len(req.Locations),
	})
}

// Reset godoc
// @Summary Factory reset
// @Description Clear assets, locations, the activity log and audit sessions. Users are kept.
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/reset [post]
func (h *SettingsHandler) Reset(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	backup, err := h.system.Reset(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondWithBackup(c, backup, map[string]interface{}{})
}

func (h *SettingsHandler) respondWithBackup(c *gin.Context, backup string, data map[string]interface{}) {
	if backup != "" {
		link, err := h.exports.BackupLink(backup)
		if err != nil {
			response.Error(c, err)
			return
		}
		if link != nil {
			data["backup"] = link
		}
	}
	response.JSON(c, http.StatusOK, data, nil)
}
