package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proasset-api/internal/models"
)

func TestPingToleratesEmptyTable(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSystemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM locations LIMIT 1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	require.NoError(t, repo.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPingReportsFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSystemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM locations LIMIT 1")).WillReturnError(errors.New("down"))

	require.Error(t, repo.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetClearsTablesInTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSystemRepository(db)

	mock.ExpectBegin()
	for _, table := range resetTables {
		mock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 3))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.Reset(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSystemRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM assets").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := repo.Reset(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear assets")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportInsertsLocationsThenAssets(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSystemRepository(db)

	mock.ExpectBegin()
	for _, table := range resetTables {
		mock.ExpectExec("DELETE FROM " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("INSERT INTO locations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO assets").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Import(context.Background(),
		[]models.Location{{ID: "l1", Name: "Gedung A"}},
		[]models.Asset{{ID: "a1", Name: "Laptop", LocationID: "l1", UsefulLife: 4, Status: models.AssetStatusGood}},
	)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpnameStateWithoutRedis(t *testing.T) {
	repo := NewOpnameStateRepository(nil)
	id, err := repo.Current(context.Background())
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.NoError(t, repo.SetCurrent(context.Background(), "s1"))
}
