package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// ============================================
// LFS BOOKKEEPING OPERATIONS
// ============================================

func (s *GORMStore) RecordLFSObject(ctx context.Context, repoID, oid, path string, size int64) error {
	now := time.Now()
	row := models.LFSObjectHistory{
		ID:        uuid.New().String(),
		RepoID:    repoID,
		OID:       oid,
		Path:      path,
		Size:      size,
		CreatedAt: now,
	}

	// Re-referencing the same object at the same path refreshes the row so
	// version ordering tracks the latest commit.
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "repo_id"}, {Name: "oid"}, {Name: "path"}},
		DoUpdates: clause.Assignments(map[string]any{"size": size, "created_at": now}),
	}).Create(&row).Error
}

func (s *GORMStore) ListLFSHistory(ctx context.Context, repoID string) ([]*models.LFSObjectHistory, error) {
	return listByField[models.LFSObjectHistory](s.db, ctx, "repo_id", repoID, "created_at DESC")
}

func (s *GORMStore) ListLFSHistoryByPath(ctx context.Context, repoID, path string) ([]*models.LFSObjectHistory, error) {
	var rows []*models.LFSObjectHistory
	err := s.db.WithContext(ctx).
		Where("repo_id = ? AND path = ?", repoID, path).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GORMStore) CountLFSRefs(ctx context.Context, oid string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.LFSObjectHistory{}).
		Where("oid = ?", oid).
		Count(&count).Error
	return count, err
}

func (s *GORMStore) DeleteLFSRows(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.LFSObjectHistory{}).Error
}

func (s *GORMStore) DeleteLFSHistoryByRepo(ctx context.Context, repoID string) error {
	return s.db.WithContext(ctx).
		Where("repo_id = ?", repoID).
		Delete(&models.LFSObjectHistory{}).Error
}

// ============================================
// STORAGE RESERVATION OPERATIONS
// ============================================

func (s *GORMStore) CreateReservation(ctx context.Context, resv *models.StorageReservation) (string, error) {
	if resv.ID == "" {
		resv.ID = uuid.New().String()
	}
	resv.CreatedAt = time.Now()
	if err := s.db.WithContext(ctx).Create(resv).Error; err != nil {
		return "", err
	}
	return resv.ID, nil
}

func (s *GORMStore) ReleaseReservations(ctx context.Context, repoID, oid string) error {
	return s.db.WithContext(ctx).
		Where("repo_id = ? AND oid = ?", repoID, oid).
		Delete(&models.StorageReservation{}).Error
}

func (s *GORMStore) SumActiveReservations(ctx context.Context, namespace, visibility string, now time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.StorageReservation{}).
		Where("namespace = ? AND visibility = ? AND expires_at > ?", namespace, visibility, now).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).Error
	return total, err
}

func (s *GORMStore) PurgeExpiredReservations(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.StorageReservation{})
	return result.RowsAffected, result.Error
}
