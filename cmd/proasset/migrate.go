package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/migrations"
	"github.com/noah-isme/proasset-api/pkg/config"
	"github.com/noah-isme/proasset-api/pkg/database"
	"github.com/noah-isme/proasset-api/pkg/logger"
)

var migrateSteps int

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL schema migrations.`,
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, db *sql.DB, log *zap.Logger) error {
				log.Info("rolling back migrations", zap.Int("steps", migrateSteps))
				return migrations.Down(ctx, db, migrateSteps, log)
			})
		},
	}
	down.Flags().IntVarP(&migrateSteps, "steps", "n", 1, "Number of migrations to rollback")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), func(ctx context.Context, db *sql.DB, log *zap.Logger) error {
					log.Info("running up migrations")
					if err := migrations.Up(ctx, db, log); err != nil {
						return err
					}
					log.Info("migrations completed")
					return nil
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), func(ctx context.Context, db *sql.DB, log *zap.Logger) error {
					return migrations.Status(ctx, db, log)
				})
			},
		},
	)
	return cmd
}

func withDatabase(ctx context.Context, fn func(ctx context.Context, db *sql.DB, log *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	return fn(ctx, db.DB, logr)
}
