package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proasset-api/internal/models"
)

var assetRowColumns = []string{"id", "name", "category", "location_id", "price", "purchase_date", "useful_life", "status", "barcode", "image", "deletion_status", "deletion_request_date", "created_at"}

func TestListAssets(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(assetRowColumns).
		AddRow("a1", "Laptop", "IT", "l1", 15000000.0, "2022-01-10", 4, "Baik", "B-001", nil, nil, nil, now).
		AddRow("a2", "Meja", "Furniture", "l1", 2000000.0, "2020-05-01", 8, "Rusak", nil, nil, "pending", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM assets ORDER BY created_at DESC, id")).WillReturnRows(rows)

	assets, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	require.NotNil(t, assets[0].Barcode)
	assert.Equal(t, "B-001", *assets[0].Barcode)
	assert.False(t, assets[0].PendingDeletion())
	assert.True(t, assets[1].PendingDeletion())
	assert.NotNil(t, assets[1].DeletionRequestDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAsset(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectExec("INSERT INTO assets").WillReturnResult(sqlmock.NewResult(1, 1))

	asset := &models.Asset{Name: "Proyektor", Category: "IT", LocationID: "l1", Price: 5000000, PurchaseDate: "2023-02-01", UsefulLife: 5, Status: models.AssetStatusGood}
	require.NoError(t, repo.Create(context.Background(), asset))
	assert.NotEmpty(t, asset.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAssetWrapsError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectExec("UPDATE assets SET").WillReturnError(errors.New("connection reset"))

	err := repo.Update(context.Background(), &models.Asset{ID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update asset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAsset(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssetRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assets WHERE id = $1")).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
