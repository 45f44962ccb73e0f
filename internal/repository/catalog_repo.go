package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grade-planner/backend/internal/model"
)

// CatalogRepository 课程目录数据访问接口
// 开班按 code 排序，时间段按星期、开始时间排序，保证搜索输入顺序稳定
type CatalogRepository interface {
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	ListCoursesByIDs(ctx context.Context, ids []string) ([]model.Course, error)
	GetSection(ctx context.Context, id string) (*model.Section, error)
	// ReplaceCourse 按 code upsert 课程，并全量替换其开班与时间段
	ReplaceCourse(ctx context.Context, course *model.Course) error
}

type catalogRepo struct {
	db *gorm.DB
}

// NewCatalogRepo 创建 CatalogRepository 实例
func NewCatalogRepo(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db: db}
}

func preloadSections(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("code ASC")
		}).
		Preload("Sections.Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC, start_time ASC")
		})
}

func (r *catalogRepo) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := preloadSections(r.db.WithContext(ctx)).
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *catalogRepo) ListCoursesByIDs(ctx context.Context, ids []string) ([]model.Course, error) {
	if len(ids) == 0 {
		return []model.Course{}, nil
	}
	var courses []model.Course
	err := preloadSections(r.db.WithContext(ctx)).
		Where("course_id IN ?", ids).
		Find(&courses).Error
	return courses, err
}

func (r *catalogRepo) GetSection(ctx context.Context, id string) (*model.Section, error) {
	var section model.Section
	err := r.db.WithContext(ctx).
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC, start_time ASC")
		}).
		Where("section_id = ?", id).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *catalogRepo) ReplaceCourse(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sections := course.Sections
		course.Sections = nil

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "lecture_credits", "work_credits", "updated_at"}),
		}).Create(course).Error; err != nil {
			return err
		}

		// ON CONFLICT 时 RETURNING 不一定回填主键，重新读取
		var stored model.Course
		if err := tx.Where("code = ?", course.Code).First(&stored).Error; err != nil {
			return err
		}
		course.CourseID = stored.CourseID

		// 开班被方案固定引用时 ON DELETE SET NULL 生效
		if err := tx.Where("course_id = ?", course.CourseID).Delete(&model.Section{}).Error; err != nil {
			return err
		}
		for i := range sections {
			sections[i].CourseID = course.CourseID
			sections[i].SectionID = ""
			for j := range sections[i].Slots {
				sections[i].Slots[j].SectionSlotID = ""
			}
		}
		if len(sections) > 0 {
			if err := tx.Create(&sections).Error; err != nil {
				return err
			}
		}
		course.Sections = sections
		return nil
	})
}
