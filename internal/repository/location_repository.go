package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/proasset-api/internal/models"
)

const insertLocationQuery = `INSERT INTO locations (id, name, parent_id, created_at) VALUES (:id, :name, :parent_id, :created_at)`

// LocationRepository provides database access for storage locations.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository creates a new instance of LocationRepository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// List returns every location in insertion order.
func (r *LocationRepository) List(ctx context.Context) ([]models.Location, error) {
	const query = `SELECT id, name, parent_id, created_at FROM locations ORDER BY created_at, id`
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// Create inserts a new location.
func (r *LocationRepository) Create(ctx context.Context, location *models.Location) error {
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	if location.CreatedAt.IsZero() {
		location.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, insertLocationQuery, location); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// Delete removes a location.
func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM locations WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}
