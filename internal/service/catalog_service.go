package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"grade-planner/backend/internal/dto"
	"grade-planner/backend/internal/model"
	"grade-planner/backend/internal/repository"
	"grade-planner/backend/internal/timetable"
)

// CatalogService 课程目录业务接口
type CatalogService interface {
	// GetCourse 课程详情（含开班与时间段）
	GetCourse(ctx context.Context, id string) (*dto.CourseResponse, error)
	// LoadCourses 按 ids 给定顺序返回引擎输入；任一时间段非法返回 ErrInvalidTimeSlot
	LoadCourses(ctx context.Context, ids []string) ([]timetable.Course, error)
	// ImportCourses 导入/覆盖目录数据（planctl import 使用）
	ImportCourses(ctx context.Context, courses []timetable.Course) (int, error)
}

type catalogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(repo *repository.Repository, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, logger: logger}
}

// ────────────────────── GetCourse ──────────────────────

func (s *catalogService) GetCourse(ctx context.Context, id string) (*dto.CourseResponse, error) {
	c, err := s.repo.Catalog.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	course, err := s.convert(c)
	if err != nil {
		return nil, err
	}
	return toCourseResponse(course), nil
}

// ────────────────────── LoadCourses ──────────────────────

func (s *catalogService) LoadCourses(ctx context.Context, ids []string) ([]timetable.Course, error) {
	rows, err := s.repo.Catalog.ListCoursesByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("批量查询课程失败", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}

	byID := make(map[string]*model.Course, len(rows))
	for i := range rows {
		byID[rows[i].CourseID] = &rows[i]
	}

	courses := make([]timetable.Course, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, id)
		}
		course, err := s.convert(row)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// convert 校验时间段并对自身重叠的开班告警（搜索不检查此情况）
func (s *catalogService) convert(row *model.Course) (timetable.Course, error) {
	course, err := toCourse(row)
	if err != nil {
		s.logger.Warn("课程时间段数据非法", zap.String("course_id", row.CourseID), zap.Error(err))
		return timetable.Course{}, err
	}
	for _, sec := range course.Sections {
		if timetable.SelfConflicting(sec) {
			s.logger.Warn("开班自身时间段重叠",
				zap.String("course", course.Code),
				zap.String("section", sec.Code),
			)
		}
	}
	return course, nil
}

// ────────────────────── ImportCourses ──────────────────────

func (s *catalogService) ImportCourses(ctx context.Context, courses []timetable.Course) (int, error) {
	if err := timetable.ValidateCourses(courses); err != nil {
		return 0, err
	}

	for _, c := range courses {
		row := &model.Course{
			Code:           c.Code,
			Name:           c.Name,
			LectureCredits: c.LectureCredits,
			WorkCredits:    c.WorkCredits,
			Sections:       make([]model.Section, 0, len(c.Sections)),
		}
		for _, sec := range c.Sections {
			slots := make([]model.SectionSlot, 0, len(sec.Slots))
			for _, sl := range sec.Slots {
				slots = append(slots, model.SectionSlot{
					DayOfWeek: int(sl.Day),
					StartTime: sl.Start.String(),
					EndTime:   sl.End.String(),
				})
			}
			row.Sections = append(row.Sections, model.Section{
				Code:       sec.Code,
				Professors: model.StringArray(sec.Meta.Professors),
				Notes:      sec.Meta.Notes,
				Slots:      slots,
			})
			if timetable.SelfConflicting(sec) {
				s.logger.Warn("导入的开班自身时间段重叠",
					zap.String("course", c.Code),
					zap.String("section", sec.Code),
				)
			}
		}

		if err := s.repo.Catalog.ReplaceCourse(ctx, row); err != nil {
			s.logger.Error("导入课程失败", zap.String("course", c.Code), zap.Error(err))
			return 0, err
		}
	}

	s.logger.Info("课程目录导入完成", zap.Int("count", len(courses)))
	return len(courses), nil
}
