package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// ============================================
// NAMESPACE & QUOTA OPERATIONS
// ============================================
//
// A namespace is a user or an organization; repositories live under exactly
// one. Usage counters are updated with single conditional UPDATE statements
// so concurrent commits never lose increments, and clamped at zero so
// recomputation can always repair drift.

func (s *GORMStore) GetNamespace(ctx context.Context, name string) (*models.Namespace, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", name).First(&user).Error
	if err == nil {
		return &models.Namespace{
			Name:              user.Username,
			IsOrg:             false,
			PrivateQuotaBytes: user.PrivateQuotaBytes,
			PublicQuotaBytes:  user.PublicQuotaBytes,
			PrivateUsedBytes:  user.PrivateUsedBytes,
			PublicUsedBytes:   user.PublicUsedBytes,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var org models.Organization
	err = s.db.WithContext(ctx).Where("name = ?", name).First(&org).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrNamespaceNotFound)
	}
	return &models.Namespace{
		Name:              org.Name,
		IsOrg:             true,
		PrivateQuotaBytes: org.PrivateQuotaBytes,
		PublicQuotaBytes:  org.PublicQuotaBytes,
		PrivateUsedBytes:  org.PrivateUsedBytes,
		PublicUsedBytes:   org.PublicUsedBytes,
	}, nil
}

func (s *GORMStore) ApplyNamespaceUsage(ctx context.Context, name, visibility string, delta int64) error {
	column, err := usageColumn(visibility)
	if err != nil {
		return err
	}

	// CASE WHEN instead of GREATEST/MAX keeps the statement portable across
	// SQLite and PostgreSQL.
	stmt := func(table, keyColumn string) string {
		return fmt.Sprintf(
			"UPDATE %s SET %s = CASE WHEN %s + ? < 0 THEN 0 ELSE %s + ? END WHERE %s = ?",
			table, column, column, column, keyColumn,
		)
	}

	result := s.db.WithContext(ctx).Exec(stmt("users", "username"), delta, delta, name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	result = s.db.WithContext(ctx).Exec(stmt("organizations", "name"), delta, delta, name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrNamespaceNotFound
	}
	return nil
}

func (s *GORMStore) SetNamespaceUsage(ctx context.Context, name string, privateUsed, publicUsed int64) error {
	updates := map[string]any{
		"private_used_bytes": privateUsed,
		"public_used_bytes":  publicUsed,
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", name).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	result = s.db.WithContext(ctx).Model(&models.Organization{}).
		Where("name = ?", name).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrNamespaceNotFound
	}
	return nil
}

func (s *GORMStore) SetNamespaceQuota(ctx context.Context, name string, privateQuota, publicQuota *int64) error {
	updates := map[string]any{
		"private_quota_bytes": privateQuota,
		"public_quota_bytes":  publicQuota,
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", name).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	result = s.db.WithContext(ctx).Model(&models.Organization{}).
		Where("name = ?", name).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrNamespaceNotFound
	}
	return nil
}

// usageColumn maps a visibility bucket to its counter column. The column
// name is never taken from request input.
func usageColumn(visibility string) (string, error) {
	switch visibility {
	case models.VisibilityPrivate:
		return "private_used_bytes", nil
	case models.VisibilityPublic:
		return "public_used_bytes", nil
	default:
		return "", fmt.Errorf("invalid visibility %q", visibility)
	}
}
