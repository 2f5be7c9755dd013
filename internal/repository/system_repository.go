package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/proasset-api/internal/models"
)

// resetTables are cleared by a factory reset. Users and role permissions survive.
var resetTables = []string{"assets", "locations", "audit_logs", "audit_sessions"}

// SystemRepository groups whole-database maintenance queries.
type SystemRepository struct {
	db *sqlx.DB
}

// NewSystemRepository creates a new instance of SystemRepository.
func NewSystemRepository(db *sqlx.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

// Ping runs the lightweight keep-warm query. An empty locations table is not an error.
func (r *SystemRepository) Ping(ctx context.Context) error {
	const query = `SELECT id FROM locations LIMIT 1`
	var id string
	if err := r.db.GetContext(ctx, &id, query); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Reset clears every resettable table in one transaction.
func (r *SystemRepository) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset tx: %w", err)
	}
	if err := clearTables(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset tx: %w", err)
	}
	return nil
}

// Import clears the resettable tables and inserts the given locations and assets in one transaction.
func (r *SystemRepository) Import(ctx context.Context, locations []models.Location, assets []models.Asset) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import tx: %w", err)
	}
	if err := clearTables(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	now := time.Now().UTC()
	for i := range locations {
		if locations[i].CreatedAt.IsZero() {
			locations[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insertLocationQuery, locations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("import location %s: %w", locations[i].ID, err)
		}
	}
	for i := range assets {
		if assets[i].CreatedAt.IsZero() {
			assets[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insertAssetQuery, assets[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("import asset %s: %w", assets[i].ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}
	return nil
}

func clearTables(ctx context.Context, tx *sqlx.Tx) error {
	for _, table := range resetTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
