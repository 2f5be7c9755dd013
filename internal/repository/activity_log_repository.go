package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/proasset-api/internal/models"
)

// ActivityLogRepository persists the append-only activity trail.
type ActivityLogRepository struct {
	db *sqlx.DB
}

// NewActivityLogRepository creates a new instance of ActivityLogRepository.
func NewActivityLogRepository(db *sqlx.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// List returns every entry, newest first.
func (r *ActivityLogRepository) List(ctx context.Context) ([]models.ActivityLog, error) {
	const query = `SELECT id, action, target, details, "user", created_at FROM audit_logs ORDER BY created_at DESC, id DESC`
	var logs []models.ActivityLog
	if err := r.db.SelectContext(ctx, &logs, query); err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	return logs, nil
}

// Create stores an activity log entry.
func (r *ActivityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, action, target, details, "user", created_at) VALUES (:id, :action, :target, :details, :user, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}
