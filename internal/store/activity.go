package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/pkg/jobs"
)

const (
	defaultLogPageSize = 50
	maxLogPageSize     = 500
)

// Log appends an activity entry. Persistence failures are published, never returned.
func (s *Store) Log(ctx context.Context, action models.ActivityAction, target, details, actor string) models.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLog(ctx, action, target, details, actor)
}

// appendLog must be called with the write lock held.
func (s *Store) appendLog(ctx context.Context, action models.ActivityAction, target, details, actor string) models.ActivityLog {
	if actor == "" {
		actor = models.ActorSystem
	}
	entry := models.ActivityLog{
		ID:        s.newID(),
		Action:    action,
		Target:    target,
		Details:   details,
		User:      actor,
		Timestamp: s.now().UTC(),
	}
	s.logs = append([]models.ActivityLog{entry}, s.logs...)

	if s.activity != nil {
		if err := s.activity.Enqueue(jobs.Job{ID: entry.ID, Type: activityJobType, Payload: entry}); err != nil {
			s.publish(&PersistError{Op: "activity log", Err: err})
		}
		return entry
	}
	row := entry
	if err := s.repos.ActivityLogs.Create(ctx, &row); err != nil {
		s.publish(&PersistError{Op: "activity log", Err: err})
	}
	return entry
}

func (s *Store) handleActivityJob(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.ActivityLog)
	if !ok {
		return fmt.Errorf("unexpected activity payload %T", job.Payload)
	}
	if err := s.repos.ActivityLogs.Create(ctx, &entry); err != nil {
		return err
	}
	s.logger.Debug("activity log persisted", zap.String("id", entry.ID), zap.String("action", string(entry.Action)))
	return nil
}

// Logs returns a newest-first page of the activity log and the number of matching entries.
func (s *Store) Logs(filter models.ActivityLogFilter) ([]models.ActivityLog, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.ActivityLog, 0, len(s.logs))
	for _, entry := range s.logs {
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		matched = append(matched, entry)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = defaultLogPageSize
	}
	if size > maxLogPageSize {
		size = maxLogPageSize
	}
	start := (page - 1) * size
	if start >= len(matched) {
		return []models.ActivityLog{}, len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched)
}

// RecentLogs returns the newest n entries.
func (s *Store) RecentLogs(n int) []models.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.logs) {
		n = len(s.logs)
	}
	out := make([]models.ActivityLog, n)
	copy(out, s.logs[:n])
	return out
}
