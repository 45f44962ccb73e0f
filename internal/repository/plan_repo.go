package repository

import (
	"context"

	"gorm.io/gorm"

	"grade-planner/backend/internal/model"
	pkgerrors "grade-planner/backend/pkg/errors"
)

// PlanRepository 选课方案数据访问接口
type PlanRepository interface {
	Create(ctx context.Context, plan *model.Plan) error
	GetByID(ctx context.Context, id string) (*model.Plan, error)
	ListByUser(ctx context.Context, userID string) ([]model.Plan, error)
	// CountByUser 含已删除方案，用于生成默认名称
	CountByUser(ctx context.Context, userID string) (int64, error)
	Update(ctx context.Context, plan *model.Plan) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type planRepo struct {
	db *gorm.DB
}

// NewPlanRepo 创建 PlanRepository 实例
func NewPlanRepo(db *gorm.DB) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) Create(ctx context.Context, plan *model.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *planRepo) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", id).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) ListByUser(ctx context.Context, userID string) ([]model.Plan, error) {
	var plans []model.Plan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&plans).Error
	return plans, err
}

func (r *planRepo) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().
		Model(&model.Plan{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

func (r *planRepo) Update(ctx context.Context, plan *model.Plan) error {
	oldVersion := plan.Version
	result := r.db.WithContext(ctx).
		Model(plan).
		Where("plan_id = ? AND version = ?", plan.PlanID, oldVersion).
		Updates(map[string]interface{}{
			"name":       plan.Name,
			"updated_by": plan.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	plan.Version = oldVersion + 1
	return nil
}

func (r *planRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Plan{}).
		Where("plan_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
