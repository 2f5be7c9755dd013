package store

import (
	"context"

	"github.com/noah-isme/proasset-api/internal/models"
	"github.com/noah-isme/proasset-api/internal/opname"
)

// StartAudit opens a stock opname session over the current asset collection.
func (s *Store) StartAudit(ctx context.Context, auditorName, actor string) (models.AuditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.tracker.Start(auditorName, len(s.assets))
	if err != nil {
		return models.AuditSession{}, err
	}

	err = s.persist("create audit session", s.repos.AuditSessions.Save(ctx, &session))
	s.savePointer(ctx, session.ID)
	s.appendLog(ctx, models.ActionAuditStart, "Stock Opname", "Started new audit session", actor)
	return session, err
}

// ScanAudit records a scanned barcode or asset id against the current session. An unknown
// identifier yields a result with Found false and no error.
func (s *Store) ScanAudit(ctx context.Context, identifier, actor string) (opname.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, changed, err := s.tracker.Scan(identifier, s.assets)
	if err != nil || !changed {
		return result, err
	}

	session, _ := s.tracker.Current()
	err = s.persist("update audit session", s.repos.AuditSessions.Save(ctx, &session))
	s.appendLog(ctx, models.ActionAuditScan, result.Asset.Name, "Scanned asset", actor)
	return result, err
}

// CompleteAudit closes the current session, recording unscanned assets as missing.
func (s *Store) CompleteAudit(ctx context.Context, actor string) (models.AuditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.tracker.Complete(s.assets)
	if err != nil {
		return models.AuditSession{}, err
	}

	err = s.persist("complete audit session", s.repos.AuditSessions.Save(ctx, &session))
	s.savePointer(ctx, "")
	s.appendLog(ctx, models.ActionAuditComplete, "Stock Opname", "Completed audit.", actor)
	return session, err
}

// CancelAudit drops the current-session pointer and leaves the session record untouched.
func (s *Store) CancelAudit(ctx context.Context) (models.AuditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.tracker.Cancel()
	if err != nil {
		return models.AuditSession{}, err
	}
	s.savePointer(ctx, "")
	return session, nil
}

// CurrentAudit returns the in-progress session, if any.
func (s *Store) CurrentAudit() (models.AuditSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Current()
}

// AuditSession returns the session with id.
func (s *Store) AuditSession(id string) (models.AuditSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Get(id)
}

// AuditSessions returns every session, newest first.
func (s *Store) AuditSessions() []models.AuditSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Sessions()
}

// savePointer mirrors the current-session pointer. A failure only costs restart recovery.
func (s *Store) savePointer(ctx context.Context, id string) {
	if s.repos.OpnameState == nil {
		return
	}
	if err := s.repos.OpnameState.SetCurrent(ctx, id); err != nil {
		s.publish(&PersistError{Op: "audit pointer", Err: err})
	}
}
