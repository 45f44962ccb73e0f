package repository

import (
	"context"

	"gorm.io/gorm"

	"grade-planner/backend/internal/model"
)

// PlanCourseRepository 方案课程数据访问接口
type PlanCourseRepository interface {
	// ListByPlan 按加入顺序返回，预加载课程、开班与时间段
	ListByPlan(ctx context.Context, planID string) ([]model.PlanCourse, error)
	GetByPlanAndCourse(ctx context.Context, planID, courseID string) (*model.PlanCourse, error)
	CountByPlan(ctx context.Context, planID string) (int64, error)
	Create(ctx context.Context, pc *model.PlanCourse) error
	Update(ctx context.Context, pc *model.PlanCourse) error
	Delete(ctx context.Context, planID, courseID string) error
	// PinSections 在事务中按 courseID→sectionID 批量固定开班
	PinSections(ctx context.Context, planID string, pins map[string]string) error
}

type planCourseRepo struct {
	db *gorm.DB
}

// NewPlanCourseRepo 创建 PlanCourseRepository 实例
func NewPlanCourseRepo(db *gorm.DB) PlanCourseRepository {
	return &planCourseRepo{db: db}
}

func (r *planCourseRepo) ListByPlan(ctx context.Context, planID string) ([]model.PlanCourse, error) {
	var list []model.PlanCourse
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("code ASC")
		}).
		Preload("Course.Sections.Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC, start_time ASC")
		}).
		Where("plan_id = ?", planID).
		Order("position ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *planCourseRepo) GetByPlanAndCourse(ctx context.Context, planID, courseID string) (*model.PlanCourse, error) {
	var pc model.PlanCourse
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND course_id = ?", planID, courseID).
		First(&pc).Error
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *planCourseRepo) CountByPlan(ctx context.Context, planID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.PlanCourse{}).
		Where("plan_id = ?", planID).
		Count(&n).Error
	return n, err
}

func (r *planCourseRepo) Create(ctx context.Context, pc *model.PlanCourse) error {
	return r.db.WithContext(ctx).Create(pc).Error
}

func (r *planCourseRepo) Update(ctx context.Context, pc *model.PlanCourse) error {
	return r.db.WithContext(ctx).
		Model(&model.PlanCourse{}).
		Where("plan_course_id = ?", pc.PlanCourseID).
		Updates(map[string]interface{}{
			"pinned_section_id": pc.PinnedSectionID,
			"is_visible":        pc.IsVisible,
			"color":             pc.Color,
			"updated_at":        gorm.Expr("NOW()"),
		}).Error
}

func (r *planCourseRepo) Delete(ctx context.Context, planID, courseID string) error {
	return r.db.WithContext(ctx).
		Where("plan_id = ? AND course_id = ?", planID, courseID).
		Delete(&model.PlanCourse{}).Error
}

func (r *planCourseRepo) PinSections(ctx context.Context, planID string, pins map[string]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for courseID, sectionID := range pins {
			if err := tx.Model(&model.PlanCourse{}).
				Where("plan_id = ? AND course_id = ?", planID, courseID).
				Updates(map[string]interface{}{
					"pinned_section_id": sectionID,
					"updated_at":        gorm.Expr("NOW()"),
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
