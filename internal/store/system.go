package store

import (
	"context"
	"time"

	"github.com/noah-isme/proasset-api/internal/models"
)

// Snapshot is a point-in-time copy of the exportable collections.
type Snapshot struct {
	Assets     []models.Asset    `json:"assets"`
	Locations  []models.Location `json:"locations"`
	Users      []models.User     `json:"users"`
	ExportDate time.Time         `json:"export_date"`
}

// Snapshot copies the assets, locations and users. Password hashes never serialise.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Assets:     make([]models.Asset, len(s.assets)),
		Locations:  make([]models.Location, len(s.locations)),
		Users:      make([]models.User, len(s.users)),
		ExportDate: s.now().UTC(),
	}
	copy(snap.Assets, s.assets)
	copy(snap.Locations, s.locations)
	copy(snap.Users, s.users)
	return snap
}

// Reset clears assets, locations, the activity log and every audit session. Users are kept.
func (s *Store) Reset(ctx context.Context, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear(ctx)
	err := s.persist("reset", s.repos.System.Reset(ctx))
	s.appendLog(ctx, models.ActionReset, "System", "Factory reset performed", actor)
	return err
}

// Import resets the store and loads the given locations and assets.
func (s *Store) Import(ctx context.Context, locations []models.Location, assets []models.Asset, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear(ctx)
	now := s.now().UTC()
	for i := range locations {
		if locations[i].ID == "" {
			locations[i].ID = s.newID()
		}
		if locations[i].CreatedAt.IsZero() {
			locations[i].CreatedAt = now
		}
	}
	for i := range assets {
		if assets[i].ID == "" {
			assets[i].ID = s.newID()
		}
		if assets[i].CreatedAt.IsZero() {
			assets[i].CreatedAt = now
		}
	}
	s.locations = append([]models.Location(nil), locations...)
	s.assets = append([]models.Asset(nil), assets...)

	err := s.persist("import", s.repos.System.Import(ctx, locations, assets))
	s.appendLog(ctx, models.ActionReset, "System", "Data imported", actor)
	return err
}

// clear must be called with the write lock held.
func (s *Store) clear(ctx context.Context) {
	s.assets = nil
	s.locations = nil
	s.logs = nil
	s.tracker.Reset()
	s.savePointer(ctx, "")
}
