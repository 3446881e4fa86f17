package store

import (
	"context"
	"time"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// ============================================
// FALLBACK SOURCE OPERATIONS
// ============================================

func (s *GORMStore) GetFallbackSource(ctx context.Context, name string) (*models.FallbackSource, error) {
	return getByField[models.FallbackSource](s.db, ctx, "name", name, models.ErrSourceNotFound)
}

func (s *GORMStore) ListFallbackSources(ctx context.Context) ([]*models.FallbackSource, error) {
	var sources []*models.FallbackSource
	err := s.db.WithContext(ctx).
		Order("priority ASC, name ASC").
		Find(&sources).Error
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *GORMStore) ListEnabledFallbackSources(ctx context.Context) ([]*models.FallbackSource, error) {
	var sources []*models.FallbackSource
	err := s.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("priority ASC, name ASC").
		Find(&sources).Error
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *GORMStore) CreateFallbackSource(ctx context.Context, src *models.FallbackSource) (string, error) {
	src.CreatedAt = time.Now()
	return createWithID(s.db, ctx, src, func(f *models.FallbackSource, id string) { f.ID = id }, src.ID, models.ErrDuplicateSource)
}

func (s *GORMStore) UpsertFallbackSource(ctx context.Context, src *models.FallbackSource) error {
	result := s.db.WithContext(ctx).
		Model(&models.FallbackSource{}).
		Where("name = ?", src.Name).
		Updates(map[string]any{
			"endpoint": src.Endpoint,
			"token":    src.Token,
			"priority": src.Priority,
			"enabled":  src.Enabled,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	_, err := s.CreateFallbackSource(ctx, src)
	return err
}

func (s *GORMStore) UpdateFallbackSource(ctx context.Context, src *models.FallbackSource) error {
	result := s.db.WithContext(ctx).
		Model(&models.FallbackSource{}).
		Where("name = ?", src.Name).
		Updates(map[string]any{
			"endpoint": src.Endpoint,
			"token":    src.Token,
			"priority": src.Priority,
			"enabled":  src.Enabled,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrSourceNotFound
	}
	return nil
}

func (s *GORMStore) DeleteFallbackSource(ctx context.Context, name string) error {
	return deleteByField[models.FallbackSource](s.db, ctx, "name", name, models.ErrSourceNotFound)
}
