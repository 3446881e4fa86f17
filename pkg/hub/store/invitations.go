package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// ============================================
// INVITATION OPERATIONS
// ============================================

func (s *GORMStore) CreateInvitation(ctx context.Context, inv *models.Invitation) (string, error) {
	inv.CreatedAt = time.Now()
	return createWithID(s.db, ctx, inv, func(i *models.Invitation, id string) { i.ID = id }, inv.ID, models.ErrDuplicateInvitation)
}

func (s *GORMStore) GetInvitation(ctx context.Context, token string) (*models.Invitation, error) {
	return getByField[models.Invitation](s.db, ctx, "token", token, models.ErrInvitationNotFound)
}

func (s *GORMStore) ConsumeInvitation(ctx context.Context, token string, now time.Time) (*models.Invitation, error) {
	// Single conditional UPDATE so exactly one of N concurrent accepts
	// claims the last remaining use.
	result := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("token = ? AND (max_uses = ? OR used_count < max_uses) AND (expires_at IS NULL OR expires_at > ?)", token, models.UnlimitedUses, now).
		Update("used_count", gorm.Expr("used_count + 1"))

	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish why the claim failed.
		inv, err := s.GetInvitation(ctx, token)
		if err != nil {
			return nil, err
		}
		if err := inv.Usable(now); err != nil {
			return nil, err
		}
		// Raced with a concurrent delete/update; report exhaustion.
		return nil, models.ErrInvitationExhausted
	}

	return s.GetInvitation(ctx, token)
}

func (s *GORMStore) ListInvitations(ctx context.Context) ([]*models.Invitation, error) {
	return listAll[models.Invitation](s.db, ctx)
}

func (s *GORMStore) DeleteInvitation(ctx context.Context, token string) error {
	return deleteByField[models.Invitation](s.db, ctx, "token", token, models.ErrInvitationNotFound)
}
