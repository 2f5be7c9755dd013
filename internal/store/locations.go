package store

import (
	"context"
	"fmt"

	"github.com/noah-isme/proasset-api/internal/models"
)

// Locations returns a copy of every location in creation order.
func (s *Store) Locations() []models.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Location, len(s.locations))
	copy(out, s.locations)
	return out
}

// Location returns the location with id.
func (s *Store) Location(id string) (models.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.locationIndex(id)
	if idx < 0 {
		return models.Location{}, false
	}
	return s.locations[idx], true
}

// AddLocation appends a location. A parent, when given, must already exist.
func (s *Store) AddLocation(ctx context.Context, location models.Location, actor string) (models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if location.ParentID != nil && *location.ParentID == "" {
		location.ParentID = nil
	}
	if location.ParentID != nil && s.locationIndex(*location.ParentID) < 0 {
		return models.Location{}, ErrParentNotFound
	}
	if location.ID == "" {
		location.ID = s.newID()
	}
	if location.CreatedAt.IsZero() {
		location.CreatedAt = s.now().UTC()
	}
	s.locations = append(s.locations, location)

	err := s.persist("create location", s.repos.Locations.Create(ctx, &location))
	s.appendLog(ctx, models.ActionCreate, location.Name, fmt.Sprintf("Created location %s", location.Name), actor)
	return location, err
}

// DeleteLocation removes a location that has no children and no assets.
func (s *Store) DeleteLocation(ctx context.Context, id, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.locationIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	for _, loc := range s.locations {
		if loc.ParentID != nil && *loc.ParentID == id {
			return ErrLocationHasChild
		}
	}
	for _, asset := range s.assets {
		if asset.LocationID == id {
			return ErrLocationInUse
		}
	}
	s.locations = append(s.locations[:idx:idx], s.locations[idx+1:]...)

	err := s.persist("delete location", s.repos.Locations.Delete(ctx, id))
	s.appendLog(ctx, models.ActionDelete, "Location", fmt.Sprintf("Deleted location %s", id), actor)
	return err
}

func (s *Store) locationIndex(id string) int {
	for i := range s.locations {
		if s.locations[i].ID == id {
			return i
		}
	}
	return -1
}
