package repository

import (
	"context"

	"gorm.io/gorm"

	"grade-planner/backend/internal/model"
)

// CustomItemRepository 自定义时间块数据访问接口
type CustomItemRepository interface {
	ListByPlan(ctx context.Context, planID string) ([]model.CustomItem, error)
	GetByID(ctx context.Context, id string) (*model.CustomItem, error)
	Create(ctx context.Context, item *model.CustomItem) error
	// Replace 在事务中更新字段并全量替换时间段
	Replace(ctx context.Context, item *model.CustomItem) error
	Delete(ctx context.Context, id string) error
}

type customItemRepo struct {
	db *gorm.DB
}

// NewCustomItemRepo 创建 CustomItemRepository 实例
func NewCustomItemRepo(db *gorm.DB) CustomItemRepository {
	return &customItemRepo{db: db}
}

func preloadItemSlots(db *gorm.DB) *gorm.DB {
	return db.Order("day_of_week ASC, start_time ASC")
}

func (r *customItemRepo) ListByPlan(ctx context.Context, planID string) ([]model.CustomItem, error) {
	var items []model.CustomItem
	err := r.db.WithContext(ctx).
		Preload("Slots", preloadItemSlots).
		Where("plan_id = ?", planID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *customItemRepo) GetByID(ctx context.Context, id string) (*model.CustomItem, error) {
	var item model.CustomItem
	err := r.db.WithContext(ctx).
		Preload("Slots", preloadItemSlots).
		Where("custom_item_id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *customItemRepo) Create(ctx context.Context, item *model.CustomItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *customItemRepo) Replace(ctx context.Context, item *model.CustomItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.CustomItem{}).
			Where("custom_item_id = ?", item.CustomItemID).
			Updates(map[string]interface{}{
				"label":      item.Label,
				"color":      item.Color,
				"is_visible": item.IsVisible,
				"updated_at": gorm.Expr("NOW()"),
			}).Error; err != nil {
			return err
		}
		if err := tx.Where("custom_item_id = ?", item.CustomItemID).
			Delete(&model.CustomItemSlot{}).Error; err != nil {
			return err
		}
		for i := range item.Slots {
			item.Slots[i].CustomItemSlotID = ""
			item.Slots[i].CustomItemID = item.CustomItemID
		}
		if len(item.Slots) > 0 {
			if err := tx.Create(&item.Slots).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *customItemRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("custom_item_id = ?", id).
		Delete(&model.CustomItem{}).Error
}
