package repository

import (
	"context"

	"rentloop/internal/models"

	"gorm.io/gorm"
)

// AdminActionRepository defines read access to the append-only audit log.
// Rows are written inside the same transaction as the transition they record,
// so creation happens at the service layer, not here.
type AdminActionRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.AdminAction, error)
	ListByAdmin(ctx context.Context, adminID uint, limit, offset int) ([]models.AdminAction, error)
	ListByTarget(ctx context.Context, targetType string, targetID uint, limit, offset int) ([]models.AdminAction, error)
	CountByAction(ctx context.Context, action string) (int64, error)
}

type adminActionRepository struct {
	db *gorm.DB
}

// NewAdminActionRepository returns a new AdminActionRepository implementation.
func NewAdminActionRepository(db *gorm.DB) AdminActionRepository {
	return &adminActionRepository{db: db}
}

func (r *adminActionRepository) List(ctx context.Context, limit, offset int) ([]models.AdminAction, error) {
	var actions []models.AdminAction
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&actions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return actions, nil
}

func (r *adminActionRepository) ListByAdmin(ctx context.Context, adminID uint, limit, offset int) ([]models.AdminAction, error) {
	var actions []models.AdminAction
	if err := r.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&actions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return actions, nil
}

func (r *adminActionRepository) ListByTarget(ctx context.Context, targetType string, targetID uint, limit, offset int) ([]models.AdminAction, error) {
	var actions []models.AdminAction
	if err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&actions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return actions, nil
}

func (r *adminActionRepository) CountByAction(ctx context.Context, action string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AdminAction{}).
		Where("action = ?", action).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
