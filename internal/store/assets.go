package store

import (
	"context"
	"fmt"

	"github.com/noah-isme/proasset-api/internal/models"
)

// Assets returns a copy of every asset, newest first.
func (s *Store) Assets() []models.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// Asset returns the asset with id.
func (s *Store) Asset(id string) (models.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.assetIndex(id)
	if idx < 0 {
		return models.Asset{}, false
	}
	return s.assets[idx], true
}

// AddAsset stores a new asset at the head of the collection.
func (s *Store) AddAsset(ctx context.Context, asset models.Asset, actor string) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if asset.ID == "" {
		asset.ID = s.newID()
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = s.now().UTC()
	}
	s.assets = append([]models.Asset{asset}, s.assets...)

	err := s.persist("create asset", s.repos.Assets.Create(ctx, &asset))
	s.appendLog(ctx, models.ActionCreate, asset.Name, fmt.Sprintf("Added new asset %s", asset.Name), actor)
	return asset, err
}

// UpdateAsset replaces the stored asset with the same id.
func (s *Store) UpdateAsset(ctx context.Context, asset models.Asset, actor string) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.assetIndex(asset.ID)
	if idx < 0 {
		return models.Asset{}, ErrNotFound
	}
	asset.CreatedAt = s.assets[idx].CreatedAt
	s.assets[idx] = asset

	err := s.persist("update asset", s.repos.Assets.Update(ctx, &asset))
	s.appendLog(ctx, models.ActionUpdate, asset.Name, fmt.Sprintf("Updated details for %s", asset.Name), actor)
	return asset, err
}

// DeleteAsset removes an asset regardless of its deletion state.
func (s *Store) DeleteAsset(ctx context.Context, id, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.assetIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.removeAsset(idx)

	err := s.persist("delete asset", s.repos.Assets.Delete(ctx, id))
	s.appendLog(ctx, models.ActionDelete, "Asset", fmt.Sprintf("Deleted asset %s", id), actor)
	return err
}

// RequestDelete moves an active asset to pending deletion. No activity entry is written.
func (s *Store) RequestDelete(ctx context.Context, id string) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.assetIndex(id)
	if idx < 0 {
		return models.Asset{}, ErrNotFound
	}
	asset := s.assets[idx]
	if asset.PendingDeletion() {
		return asset, ErrWrongState
	}
	status := models.DeletionStatusPending
	requested := s.now().UTC()
	asset.DeletionStatus = &status
	asset.DeletionRequestDate = &requested
	s.assets[idx] = asset

	return asset, s.persist("request asset deletion", s.repos.Assets.Update(ctx, &asset))
}

// ApproveDelete removes a pending asset.
func (s *Store) ApproveDelete(ctx context.Context, id, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.assetIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	if !s.assets[idx].PendingDeletion() {
		return ErrWrongState
	}
	s.removeAsset(idx)

	err := s.persist("approve asset deletion", s.repos.Assets.Delete(ctx, id))
	s.appendLog(ctx, models.ActionApprove, "Asset", fmt.Sprintf("Approved deletion of asset %s", id), actor)
	return err
}

// RejectDelete returns a pending asset to active. No activity entry is written.
func (s *Store) RejectDelete(ctx context.Context, id string) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.assetIndex(id)
	if idx < 0 {
		return models.Asset{}, ErrNotFound
	}
	asset := s.assets[idx]
	if !asset.PendingDeletion() {
		return asset, ErrWrongState
	}
	asset.DeletionStatus = nil
	asset.DeletionRequestDate = nil
	s.assets[idx] = asset

	return asset, s.persist("reject asset deletion", s.repos.Assets.Update(ctx, &asset))
}

func (s *Store) assetIndex(id string) int {
	for i := range s.assets {
		if s.assets[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeAsset(idx int) {
	s.assets = append(s.assets[:idx:idx], s.assets[idx+1:]...)
}
