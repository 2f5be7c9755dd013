// Package router assembles the gin engine and maps every route to its permission requirement.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/handler"
	"github.com/noah-isme/proasset-api/internal/middleware"
	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/permission"
	"github.com/noah-isme/proasset-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/proasset-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/proasset-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Assets      *handler.AssetHandler
	Locations   *handler.LocationHandler
	Audit       *handler.AuditHandler
	Users       *handler.UserHandler
	Permissions *handler.PermissionHandler
	Settings    *handler.SettingsHandler
	Dashboard   *handler.DashboardHandler
	System      *handler.MetricsHandler
}

// Config carries the router options.
type Config struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Auth           middleware.TokenAuthenticator
	Permissions    middleware.PermissionChecker
	Metrics        middleware.RequestObserver
}

// New builds the engine with global middleware and every route registered.
func New(cfg Config, h Handlers) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))

	r.GET("/health", h.System.Health)
	r.GET("/ready", h.System.Ready)
	r.GET("/metrics", h.System.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/system/ping", h.System.Ping)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/register", h.Auth.Register)
	api.GET("/settings/backups/:token", h.Settings.DownloadBackup)

	secured := api.Group("")
	secured.Use(middleware.JWT(cfg.Auth))

	can := func(feature permission.Feature, action permission.Action) gin.HandlerFunc {
		return middleware.RequirePermission(cfg.Permissions, middleware.Can(feature, action))
	}
	view := permission.ActionView
	edit := permission.ActionEdit

	auth := secured.Group("/auth")
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)
	auth.POST("/change-password", h.Auth.ChangePassword)

	secured.GET("/dashboard", can(permission.FeatureDashboard, view), h.Dashboard.Stats)

	assets := secured.Group("/assets")
	assets.GET("", can(permission.FeatureAssets, view), h.Assets.List)
	assets.GET("/:id", can(permission.FeatureAssets, view), h.Assets.Get)
	assets.POST("", can(permission.FeatureAssets, edit), h.Assets.Create)
	assets.PUT("/:id", can(permission.FeatureAssets, edit), h.Assets.Update)
	assets.POST("/:id/deletion-request", can(permission.FeatureAssets, edit), h.Assets.RequestDelete)
	assets.DELETE("/:id", middleware.RequirePermission(cfg.Permissions,
		middleware.Can(permission.FeatureAssets, edit),
		middleware.Can(permission.FeatureApprovals, edit),
	), h.Assets.Delete)

	approvals := secured.Group("/approvals")
	approvals.GET("", can(permission.FeatureApprovals, view), h.Assets.Pending)
	approvals.POST("/:id/approve", can(permission.FeatureApprovals, edit), h.Assets.Approve)
	approvals.POST("/:id/reject", can(permission.FeatureApprovals, edit), h.Assets.Reject)

	locations := secured.Group("/locations")
	locations.GET("", can(permission.FeatureLocations, view), h.Locations.List)
	locations.GET("/tree", can(permission.FeatureLocations, view), h.Locations.Tree)
	locations.GET("/:id", can(permission.FeatureLocations, view), h.Locations.Get)
	locations.POST("", can(permission.FeatureLocations, edit), h.Locations.Create)
	locations.DELETE("/:id", can(permission.FeatureLocations, edit), h.Locations.Delete)

	audit := secured.Group("/audit")
	audit.GET("/current", can(permission.FeatureAudit, view), h.Audit.Current)
	audit.POST("/current/scan", can(permission.FeatureAudit, edit), h.Audit.Scan)
	audit.POST("/current/complete", can(permission.FeatureAudit, edit), h.Audit.Complete)
	audit.POST("/current/cancel", can(permission.FeatureAudit, edit), h.Audit.Cancel)
	audit.GET("/sessions", can(permission.FeatureAudit, view), h.Audit.Sessions)
	audit.POST("/sessions", can(permission.FeatureAudit, edit), h.Audit.Start)
	audit.GET("/sessions/:id/report", can(permission.FeatureAudit, view), h.Audit.Report)

	users := secured.Group("/users")
	users.GET("", can(permission.FeatureUsers, view), h.Users.List)
	users.GET("/:id", can(permission.FeatureUsers, view), h.Users.Get)
	users.POST("", can(permission.FeatureUsers, edit), h.Users.Create)
	users.PUT("/:id", can(permission.FeatureUsers, edit), h.Users.Update)
	users.DELETE("/:id", can(permission.FeatureUsers, edit), h.Users.Delete)
	users.POST("/:id/approve", can(permission.FeatureUsers, edit), h.Users.Approve)
	users.POST("/:id/reject", can(permission.FeatureUsers, edit), h.Users.Reject)

	secured.GET("/permissions/me", h.Permissions.Mine)
	perms := secured.Group("/permissions")
	perms.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	perms.GET("", h.Permissions.List)
	perms.GET("/:role", h.Permissions.Role)
	perms.PUT("/:role/:feature", h.Permissions.Update)

	settings := secured.Group("/settings")
	settings.GET("/logs", can(permission.FeatureSettings, view), h.Settings.Logs)
	settings.GET("/logs/export", can(permission.FeatureSettings, view), h.Settings.ExportLogs)
	settings.GET("/export/assets", can(permission.FeatureSettings, view), h.Settings.ExportAssets)
	settings.GET("/backup", can(permission.FeatureSettings, view), h.Settings.Backup)
	settings.GET("/backups", can(permission.FeatureSettings, view), h.Settings.Backups)
	settings.POST("/import", can(permission.FeatureSettings, edit), h.Settings.Import)
	settings.POST("/reset", can(permission.FeatureSettings, edit), h.Settings.Reset)

	return r
}
