package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/proasset-api/internal/models"
)

func TestListLocations(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLocationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "parent_id", "created_at"}).
		AddRow("l1", "Gedung A", nil, now).
		AddRow("l2", "Ruang 101", "l1", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, parent_id, created_at FROM locations ORDER BY created_at, id")).
		WillReturnRows(rows)

	locations, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Nil(t, locations[0].ParentID)
	require.NotNil(t, locations[1].ParentID)
	assert.Equal(t, "l1", *locations[1].ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAndDeleteLocation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLocationRepository(db)

	mock.ExpectExec("INSERT INTO locations").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM locations WHERE id = $1")).
		WithArgs("l9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	loc := &models.Location{ID: "l9", Name: "Gudang"}
	require.NoError(t, repo.Create(context.Background(), loc))
	assert.False(t, loc.CreatedAt.IsZero())
	require.NoError(t, repo.Delete(context.Background(), "l9"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
