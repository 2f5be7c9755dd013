package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/proasset-api/internal/models"
)

// AuditSessionRepository persists stock opname sessions.
type AuditSessionRepository struct {
	db *sqlx.DB
}

// NewAuditSessionRepository creates a new instance of AuditSessionRepository.
func NewAuditSessionRepository(db *sqlx.DB) *AuditSessionRepository {
	return &AuditSessionRepository{db: db}
}

// List returns every session, oldest first.
func (r *AuditSessionRepository) List(ctx context.Context) ([]models.AuditSession, error) {
	const query = `SELECT id, name, start_date, end_date, status, total_assets_to_check, scanned_assets, missing_assets, auditor_name FROM audit_sessions ORDER BY start_date, id`
	var sessions []models.AuditSession
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list audit sessions: %w", err)
	}
	return sessions, nil
}

// Save inserts the session or overwrites the stored row with the same id.
func (r *AuditSessionRepository) Save(ctx context.Context, session *models.AuditSession) error {
	const query = `INSERT INTO audit_sessions (id, name, start_date, end_date, status, total_assets_to_check, scanned_assets, missing_assets, auditor_name)
VALUES (:id, :name, :start_date, :end_date, :status, :total_assets_to_check, :scanned_assets, :missing_assets, :auditor_name)
ON CONFLICT (id) DO UPDATE SET end_date = EXCLUDED.end_date, status = EXCLUDED.status, scanned_assets = EXCLUDED.scanned_assets, missing_assets = EXCLUDED.missing_assets`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("save audit session: %w", err)
	}
	return nil
}
