package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/handler"
	"github.com/noah-isme/proasset-api/internal/migrations"
	"github.com/noah-isme/proasset-api/internal/repository"
	"github.com/noah-isme/proasset-api/internal/router"
	"github.com/noah-isme/proasset-api/internal/service"
	"github.com/noah-isme/proasset-api/internal/store"
	"github.com/noah-isme/proasset-api/pkg/cache"
	"github.com/noah-isme/proasset-api/pkg/config"
	"github.com/noah-isme/proasset-api/pkg/database"
	"github.com/noah-isme/proasset-api/pkg/logger"
	"github.com/noah-isme/proasset-api/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

var autoMigrate bool

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Apply pending migrations before serving")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
		gin.DefaultWriter = io.Discard
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if autoMigrate {
		if err := migrations.Up(ctx, db.DB, logr); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()

	st := store.New(newRepositories(db, redisClient),
		store.WithLogger(logr.Named("store")),
		store.WithActivityWorkers(cfg.Activity.Workers, cfg.Activity.BufferSize),
	)
	if err := st.Load(ctx); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	st.Start(ctx)
	defer st.Close()
	go drainStoreErrors(ctx, st, metrics, logr)

	engine, err := buildEngine(cfg, db, redisClient, st, metrics, logr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}

func newRepositories(db *sqlx.DB, redisClient *redis.Client) store.Repositories {
	repos := store.Repositories{
		Assets:        repository.NewAssetRepository(db),
		Locations:     repository.NewLocationRepository(db),
		Users:         repository.NewUserRepository(db),
		ActivityLogs:  repository.NewActivityLogRepository(db),
		AuditSessions: repository.NewAuditSessionRepository(db),
		Permissions:   repository.NewRolePermissionRepository(db),
		System:        repository.NewSystemRepository(db),
	}
	if redisClient != nil {
		repos.OpnameState = repository.NewOpnameStateRepository(redisClient)
	}
	return repos
}

func buildEngine(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, st *store.Store, metrics *service.MetricsService, logr *zap.Logger) (*gin.Engine, error) {
	validate := validator.New()

	backups, err := storage.NewBackupDir(cfg.Backup.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare backups: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Backup.URLSecret, cfg.Backup.URLTTL)

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(st, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(st, validate, logr, cfg.Admin.Username)
	if err := userSvc.EnsureAdmin(context.Background(), cfg.Admin.Password, cfg.Admin.Name); err != nil {
		return nil, fmt.Errorf("failed to seed administrator: %w", err)
	}

	checks := map[string]service.HealthCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	exportSvc := service.NewExportService(st, backups, signer, service.ExportConfig{
		BackupRetention: cfg.Backup.Retention,
		APIPrefix:       cfg.APIPrefix,
	}, logr, nil)
	systemSvc := service.NewSystemService(st, exportSvc, cacheSvc, repository.NewSystemRepository(db), checks, logr)
	dashboardSvc := service.NewDashboardService(st, cacheSvc, service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL}, logr)

	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Assets:      handler.NewAssetHandler(service.NewAssetService(st, cacheSvc, validate, logr)),
		Locations:   handler.NewLocationHandler(service.NewLocationService(st, validate, logr)),
		Audit:       handler.NewAuditHandler(service.NewAuditService(st, metrics, validate, logr)),
		Users:       handler.NewUserHandler(userSvc),
		Permissions: handler.NewPermissionHandler(service.NewPermissionService(st, validate, logr)),
		Settings:    handler.NewSettingsHandler(exportSvc, systemSvc, service.NewActivityService(st)),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		System:      handler.NewMetricsHandler(metrics.Handler(), systemSvc),
	}

	return router.New(router.Config{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Auth:           authSvc,
		Permissions:    st,
		Metrics:        metrics,
	}, handlers), nil
}

// drainStoreErrors logs and counts write-through failures until ctx ends.
func drainStoreErrors(ctx context.Context, st *store.Store, metrics *service.MetricsService, logr *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-st.Errors():
			if err == nil {
				continue
			}
			metrics.RecordStoreFailure(err)
			logr.Error("persistence failed", zap.Error(err))
		}
	}
}
