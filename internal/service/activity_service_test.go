package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/proasset-api/internal/models"
)

type fakeActivityStore struct{ last models.ActivityLogFilter }

func (f *fakeActivityStore) Logs(filter models.ActivityLogFilter) ([]models.ActivityLog, int) {
	f.last = filter
	return []models.ActivityLog{{ID: "log2"}, {ID: "log1"}}, 7
}

func TestActivityServiceListNormalisesPaging(t *testing.T) {
	st := &fakeActivityStore{}
	svc := NewActivityService(st)

	logs, pagination := svc.List(models.ActivityLogFilter{})
	assert.Len(t, logs, 2)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 7}, pagination)

	_, pagination = svc.List(models.ActivityLogFilter{Page: 3, PageSize: 9000})
	assert.Equal(t, 500, st.last.PageSize)
	assert.Equal(t, 3, pagination.Page)
}
