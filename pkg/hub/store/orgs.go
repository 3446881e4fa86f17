package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// ============================================
// ORGANIZATION OPERATIONS
// ============================================

func (s *GORMStore) GetOrg(ctx context.Context, name string) (*models.Organization, error) {
	return getByField[models.Organization](s.db, ctx, "name", name, models.ErrOrgNotFound, "Members")
}

func (s *GORMStore) ListOrgs(ctx context.Context) ([]*models.Organization, error) {
	return listAll[models.Organization](s.db, ctx)
}

func (s *GORMStore) CreateOrg(ctx context.Context, org *models.Organization, creator *models.User) (string, error) {
	// Usernames and organization names share one namespace.
	var userCount int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", org.Name).Count(&userCount).Error; err != nil {
		return "", err
	}
	if userCount > 0 {
		return "", models.ErrNamespaceNameConflict
	}

	var id string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org.CreatedAt = time.Now()
		createdID, err := createWithID(tx, ctx, org, func(o *models.Organization, id string) { o.ID = id }, org.ID, models.ErrDuplicateOrg)
		if err != nil {
			return err
		}
		id = createdID

		// The creator starts as the organization's super-admin.
		membership := &models.Membership{
			OrgID:    id,
			UserID:   creator.ID,
			Role:     string(models.RoleSuperAdmin),
			Username: creator.Username,
			OrgName:  org.Name,
		}
		return tx.Create(membership).Error
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *GORMStore) UpdateOrg(ctx context.Context, org *models.Organization) error {
	result := s.db.WithContext(ctx).
		Model(&models.Organization{}).
		Where("name = ?", org.Name).
		Update("description", org.Description)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrOrgNotFound
	}
	return nil
}

func (s *GORMStore) DeleteOrg(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.Where("name = ?", name).First(&org).Error; err != nil {
			return convertNotFoundError(err, models.ErrOrgNotFound)
		}

		if err := tx.Where("org_id = ?", org.ID).Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		return tx.Delete(&org).Error
	})
}

// ============================================
// MEMBERSHIP OPERATIONS
// ============================================

func (s *GORMStore) GetMembership(ctx context.Context, orgName, username string) (*models.Membership, error) {
	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("org_name = ? AND username = ?", orgName, username).
		First(&membership).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrMembershipNotFound)
	}
	return &membership, nil
}

func (s *GORMStore) ListMembers(ctx context.Context, orgName string) ([]*models.Membership, error) {
	if _, err := s.GetOrg(ctx, orgName); err != nil {
		return nil, err
	}
	return listByField[models.Membership](s.db, ctx, "org_name", orgName, "created_at ASC")
}

func (s *GORMStore) ListUserMemberships(ctx context.Context, username string) ([]*models.Membership, error) {
	return listByField[models.Membership](s.db, ctx, "username", username, "created_at ASC")
}

func (s *GORMStore) AddMember(ctx context.Context, orgName, username string, role models.OrgRole) error {
	org, err := s.GetOrg(ctx, orgName)
	if err != nil {
		return err
	}
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return err
	}

	membership := &models.Membership{
		OrgID:    org.ID,
		UserID:   user.ID,
		Role:     string(role),
		Username: user.Username,
		OrgName:  org.Name,
	}
	if err := s.db.WithContext(ctx).Create(membership).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrDuplicateMembership
		}
		return err
	}
	return nil
}

func (s *GORMStore) UpdateMemberRole(ctx context.Context, orgName, username string, role models.OrgRole) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership models.Membership
		if err := tx.Where("org_name = ? AND username = ?", orgName, username).
			First(&membership).Error; err != nil {
			return convertNotFoundError(err, models.ErrMembershipNotFound)
		}

		// Demoting the only super-admin would orphan the organization.
		if membership.Role == string(models.RoleSuperAdmin) && role != models.RoleSuperAdmin {
			if only, err := isOnlySuperAdmin(tx, orgName); err != nil {
				return err
			} else if only {
				return models.ErrLastSuperAdmin
			}
		}

		return tx.Model(&membership).Update("role", string(role)).Error
	})
}

func (s *GORMStore) RemoveMember(ctx context.Context, orgName, username string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership models.Membership
		if err := tx.Where("org_name = ? AND username = ?", orgName, username).
			First(&membership).Error; err != nil {
			return convertNotFoundError(err, models.ErrMembershipNotFound)
		}

		if membership.Role == string(models.RoleSuperAdmin) {
			if only, err := isOnlySuperAdmin(tx, orgName); err != nil {
				return err
			} else if only {
				return models.ErrLastSuperAdmin
			}
		}

		return tx.Delete(&membership).Error
	})
}

// isOnlySuperAdmin reports whether the organization has exactly one
// super-admin. Runs inside the caller's transaction.
func isOnlySuperAdmin(tx *gorm.DB, orgName string) (bool, error) {
	var count int64
	err := tx.Model(&models.Membership{}).
		Where("org_name = ? AND role = ?", orgName, string(models.RoleSuperAdmin)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count <= 1, nil
}
