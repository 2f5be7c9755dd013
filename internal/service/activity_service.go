package service

import "github.com/noah-isme/proasset-api/internal/models"

const (
	defaultActivityPageSize = 50
	maxActivityPageSize     = 500
)

type activityStore interface {
	Logs(filter models.ActivityLogFilter) ([]models.ActivityLog, int)
}

// ActivityService reads the activity log.
type ActivityService struct {
	store activityStore
}

// NewActivityService constructs an ActivityService.
func NewActivityService(store activityStore) *ActivityService {
	return &ActivityService{store: store}
}

// List returns one page of the log, newest first.
func (s *ActivityService) List(filter models.ActivityLogFilter) ([]models.ActivityLog, *models.Pagination) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultActivityPageSize
	}
	if filter.PageSize > maxActivityPageSize {
		filter.PageSize = maxActivityPageSize
	}
	logs, total := s.store.Logs(filter)
	return logs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
}
