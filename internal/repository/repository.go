package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Catalog    CatalogRepository
	Plan       PlanRepository
	PlanCourse PlanCourseRepository
	CustomItem CustomItemRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Catalog:    NewCatalogRepo(db),
		Plan:       NewPlanRepo(db),
		PlanCourse: NewPlanCourseRepo(db),
		CustomItem: NewCustomItemRepo(db),
	}
}
