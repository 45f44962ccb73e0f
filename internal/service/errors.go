package service

import (
	"errors"

	"grade-planner/backend/internal/timetable"
)

// ── 课程目录 ──

var (
	ErrCourseNotFound  = errors.New("课程不存在")
	ErrSectionNotFound = errors.New("开班不存在")
)

// ── 方案 ──

var (
	ErrPlanNotFound       = errors.New("方案不存在")
	ErrPlanNotOwner       = errors.New("无权操作此方案")
	ErrCourseNotInPlan    = errors.New("课程不在方案中")
	ErrSectionNotInCourse = errors.New("开班不属于该课程")
	ErrCustomItemNotFound = errors.New("自定义时间块不存在")
	ErrICSParseFailed     = errors.New("ICS 文件解析失败")
	ErrICSEmpty           = errors.New("ICS 文件中未发现每周重复的事件")
)

// ErrInvalidTimeSlot 时间段非法（星期不在 1-6 或起止时间不合法）
var ErrInvalidTimeSlot = timetable.ErrInvalidTimeSlot

// ── 组合 ──

var (
	ErrNoCoursesSelected  = errors.New("尚未选择任何可见课程")
	ErrGenerationNotFound = errors.New("尚未生成组合")
	ErrGenerationPending  = errors.New("组合仍在生成中")
	ErrNoCombination      = errors.New("没有可用的组合")
)

// ── 导出 ──

var (
	ErrExportEmpty        = errors.New("方案中没有可导出的课程或时间块")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)
