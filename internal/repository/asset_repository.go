package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/proasset-api/internal/models"
)

const (
	assetColumns     = `id, name, category, location_id, price, purchase_date, useful_life, status, barcode, image, deletion_status, deletion_request_date, created_at`
	insertAssetQuery = `INSERT INTO assets (id, name, category, location_id, price, purchase_date, useful_life, status, barcode, image, deletion_status, deletion_request_date, created_at) VALUES (:id, :name, :category, :location_id, :price, :purchase_date, :useful_life, :status, :barcode, :image, :deletion_status, :deletion_request_date, :created_at)`
)

// AssetRepository provides database access for tracked assets.
type AssetRepository struct {
	db *sqlx.DB
}

// NewAssetRepository creates a new instance of AssetRepository.
func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// List returns every asset, newest first.
func (r *AssetRepository) List(ctx context.Context) ([]models.Asset, error) {
	query := fmt.Sprintf("SELECT %s FROM assets ORDER BY created_at DESC, id", assetColumns)
	var assets []models.Asset
	if err := r.db.SelectContext(ctx, &assets, query); err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// Create inserts a new asset.
func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, insertAssetQuery, asset); err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of an asset.
func (r *AssetRepository) Update(ctx context.Context, asset *models.Asset) error {
	const query = `UPDATE assets SET name = :name, category = :category, location_id = :location_id, price = :price, purchase_date = :purchase_date, useful_life = :useful_life, status = :status, barcode = :barcode, image = :image, deletion_status = :deletion_status, deletion_request_date = :deletion_request_date WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, asset); err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return nil
}

// Delete removes an asset permanently.
func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM assets WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}
