package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// ============================================
// REPOSITORY OPERATIONS
// ============================================

func (s *GORMStore) GetRepo(ctx context.Context, repoType models.RepoType, fullID string) (*models.Repository, error) {
	var repo models.Repository
	err := s.db.WithContext(ctx).
		Where("repo_type = ? AND full_id = ?", string(repoType), fullID).
		First(&repo).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrRepoNotFound)
	}
	return &repo, nil
}

func (s *GORMStore) GetRepoByID(ctx context.Context, id string) (*models.Repository, error) {
	return getByField[models.Repository](s.db, ctx, "id", id, models.ErrRepoNotFound)
}

func (s *GORMStore) ListRepos(ctx context.Context, filter RepoFilter) ([]*models.Repository, error) {
	q := s.db.WithContext(ctx).Model(&models.Repository{})

	if filter.Type != "" {
		q = q.Where("repo_type = ?", filter.Type)
	}
	if filter.Namespace != "" {
		q = q.Where("namespace = ?", filter.Namespace)
	}
	if !filter.AllPrivate {
		if len(filter.PrivateFor) > 0 {
			q = q.Where("private = ? OR namespace IN ?", false, filter.PrivateFor)
		} else {
			q = q.Where("private = ?", false)
		}
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var repos []*models.Repository
	if err := q.Order("created_at DESC").Find(&repos).Error; err != nil {
		return nil, err
	}
	return repos, nil
}

func (s *GORMStore) CreateRepo(ctx context.Context, repo *models.Repository) (string, error) {
	repo.CreatedAt = time.Now()
	return createWithID(s.db, ctx, repo, func(r *models.Repository, id string) { r.ID = id }, repo.ID, models.ErrDuplicateRepo)
}

func (s *GORMStore) UpdateRepo(ctx context.Context, repo *models.Repository) error {
	var existing models.Repository
	if err := s.db.WithContext(ctx).Where("id = ?", repo.ID).First(&existing).Error; err != nil {
		return convertNotFoundError(err, models.ErrRepoNotFound)
	}

	// Select includes the nullable LFS settings so nil clears them.
	return s.db.WithContext(ctx).
		Model(&existing).
		Select("Private", "LFSThresholdBytes", "LFSKeepVersions", "LFSSuffixRules").
		Updates(repo).Error
}

func (s *GORMStore) MoveRepo(ctx context.Context, repoType models.RepoType, fromFullID, toNamespace, toName string) (*models.Repository, error) {
	var moved *models.Repository
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var repo models.Repository
		if err := tx.Where("repo_type = ? AND full_id = ?", string(repoType), fromFullID).
			First(&repo).Error; err != nil {
			return convertNotFoundError(err, models.ErrRepoNotFound)
		}

		repo.Namespace = toNamespace
		repo.Name = toName
		repo.FullID = toNamespace + "/" + toName
		if err := tx.Model(&models.Repository{}).Where("id = ?", repo.ID).
			Updates(map[string]any{
				"namespace": repo.Namespace,
				"name":      repo.Name,
				"full_id":   repo.FullID,
			}).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.ErrDuplicateRepo
			}
			return err
		}
		moved = &repo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

func (s *GORMStore) DeleteRepo(ctx context.Context, repoType models.RepoType, fullID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var repo models.Repository
		if err := tx.Where("repo_type = ? AND full_id = ?", string(repoType), fullID).
			First(&repo).Error; err != nil {
			return convertNotFoundError(err, models.ErrRepoNotFound)
		}

		if err := tx.Where("repo_id = ?", repo.ID).Delete(&models.CommitLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("repo_id = ?", repo.ID).Delete(&models.LFSObjectHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("repo_id = ?", repo.ID).Delete(&models.StorageReservation{}).Error; err != nil {
			return err
		}

		return tx.Delete(&repo).Error
	})
}

// ============================================
// COMMIT LOG OPERATIONS
// ============================================

func (s *GORMStore) RecordCommit(ctx context.Context, commit *models.CommitLog) (string, error) {
	if commit.ID == "" {
		commit.ID = uuid.New().String()
	}
	commit.CreatedAt = time.Now()
	if err := s.db.WithContext(ctx).Create(commit).Error; err != nil {
		return "", err
	}
	return commit.ID, nil
}

func (s *GORMStore) ListCommits(ctx context.Context, repoID, branch string, limit, offset int) ([]*models.CommitLog, error) {
	q := s.db.WithContext(ctx).
		Where("repo_id = ? AND branch = ?", repoID, branch).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var commits []*models.CommitLog
	if err := q.Find(&commits).Error; err != nil {
		return nil, err
	}
	return commits, nil
}

func (s *GORMStore) GetCommit(ctx context.Context, repoID, commitID string) (*models.CommitLog, error) {
	var commit models.CommitLog
	err := s.db.WithContext(ctx).
		Where("repo_id = ? AND commit_id = ?", repoID, commitID).
		First(&commit).Error
	if err != nil {
		// Commits made outside the hub have no log row; that is not an error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commit, nil
}
