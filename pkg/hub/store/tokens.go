package store

import (
	"context"
	"time"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// ============================================
// TOKEN OPERATIONS
// ============================================

func (s *GORMStore) CreateToken(ctx context.Context, token *models.Token) (string, error) {
	token.CreatedAt = time.Now()
	return createWithID(s.db, ctx, token, func(t *models.Token, id string) { t.ID = id }, token.ID, models.ErrDuplicateToken)
}

func (s *GORMStore) GetTokenByHash(ctx context.Context, hash string) (*models.Token, error) {
	return getByField[models.Token](s.db, ctx, "token_hash", hash, models.ErrTokenNotFound)
}

func (s *GORMStore) ListTokens(ctx context.Context, userID string) ([]*models.Token, error) {
	return listByField[models.Token](s.db, ctx, "user_id", userID, "created_at DESC")
}

func (s *GORMStore) DeleteToken(ctx context.Context, userID, tokenID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", tokenID, userID).
		Delete(&models.Token{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrTokenNotFound
	}
	return nil
}

func (s *GORMStore) TouchToken(ctx context.Context, tokenID string, timestamp time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("id = ?", tokenID).
		Update("last_used", timestamp).Error
}

// ============================================
// SSH KEY OPERATIONS
// ============================================

func (s *GORMStore) CreateSSHKey(ctx context.Context, key *models.SSHKey) (string, error) {
	key.CreatedAt = time.Now()
	return createWithID(s.db, ctx, key, func(k *models.SSHKey, id string) { k.ID = id }, key.ID, models.ErrDuplicateSSHKey)
}

func (s *GORMStore) GetSSHKey(ctx context.Context, userID, fingerprint string) (*models.SSHKey, error) {
	var key models.SSHKey
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND fingerprint = ?", userID, fingerprint).
		First(&key).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrSSHKeyNotFound)
	}
	return &key, nil
}

func (s *GORMStore) ListSSHKeys(ctx context.Context, userID string) ([]*models.SSHKey, error) {
	return listByField[models.SSHKey](s.db, ctx, "user_id", userID, "created_at DESC")
}

func (s *GORMStore) DeleteSSHKey(ctx context.Context, userID, keyID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", keyID, userID).
		Delete(&models.SSHKey{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrSSHKeyNotFound
	}
	return nil
}

func (s *GORMStore) TouchSSHKey(ctx context.Context, keyID string, timestamp time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.SSHKey{}).
		Where("id = ?", keyID).
		Update("last_used", timestamp).Error
}
