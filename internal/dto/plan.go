package dto

import (
	"time"

	"grade-planner/backend/internal/timetable"
)

// ── 方案 ──

// CreatePlanRequest 创建方案请求；名称为空时自动生成
type CreatePlanRequest struct {
	Name string `json:"name" binding:"omitempty,max=100"`
}

// RenamePlanRequest 重命名请求（携带版本号做乐观锁）
type RenamePlanRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Version int    `json:"version" binding:"required,min=1"`
}

// PlanSummaryResponse 方案列表项
type PlanSummaryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlanResponse 方案详情
type PlanResponse struct {
	PlanSummaryResponse
	Courses     []PlanCourseResponse `json:"courses"`
	CustomItems []CustomItemResponse `json:"custom_items"`
}

// ── 方案课程 ──

// AddCourseRequest 加入课程请求
type AddCourseRequest struct {
	CourseID string `json:"course_id" binding:"required,uuid"`
}

// UpdatePlanCourseRequest 更新方案课程；nil 字段保持不变
// ClearPin 为 true 时取消固定开班，优先于 PinnedSectionID
type UpdatePlanCourseRequest struct {
	PinnedSectionID *string `json:"pinned_section_id" binding:"omitempty,uuid"`
	ClearPin        bool    `json:"clear_pin"`
	IsVisible       *bool   `json:"is_visible"`
	Color           *string `json:"color" binding:"omitempty,hexcolor"`
}

// PlanCourseResponse 方案中的课程
type PlanCourseResponse struct {
	CourseID        string            `json:"course_id"`
	Code            string            `json:"code"`
	Name            string            `json:"name"`
	LectureCredits  int               `json:"lecture_credits"`
	WorkCredits     int               `json:"work_credits"`
	PinnedSectionID *string           `json:"pinned_section_id"`
	IsVisible       bool              `json:"is_visible"`
	Color           string            `json:"color"`
	Sections        []SectionResponse `json:"sections"`
}

// ── 自定义时间块 ──

// CustomItemRequest 新建/更新自定义时间块
type CustomItemRequest struct {
	Label     string        `json:"label" binding:"required,max=100"`
	Color     string        `json:"color" binding:"omitempty,hexcolor"`
	IsVisible *bool         `json:"is_visible"`
	Slots     []SlotRequest `json:"slots" binding:"required,min=1,dive"`
}

// CustomItemResponse 自定义时间块
type CustomItemResponse struct {
	ID        string               `json:"id"`
	Label     string               `json:"label"`
	Color     string               `json:"color"`
	IsVisible bool                 `json:"is_visible"`
	Slots     []timetable.TimeSlot `json:"slots"`
}

// ── 冲突预检与课表网格 ──

// CheckConflictsRequest 加入开班前的冲突预检
type CheckConflictsRequest struct {
	SectionID string `json:"section_id" binding:"required,uuid"`
}

// ConflictingItem 与候选开班冲突的条目
type ConflictingItem struct {
	ID    string             `json:"id"`
	Kind  timetable.ItemKind `json:"kind"`
	Label string             `json:"label"`
}

// CheckConflictsResponse 冲突预检结果
type CheckConflictsResponse struct {
	SectionID     string            `json:"section_id"`
	HasConflict   bool              `json:"has_conflict"`
	ConflictsWith []ConflictingItem `json:"conflicts_with"`
}

// GridResponse 课表网格
type GridResponse struct {
	Items          []timetable.ScheduleItem `json:"items"`
	Conflicts      []timetable.Conflict     `json:"conflicts"`
	ConflictingIDs []string                 `json:"conflicting_ids"`
	LectureCredits int                      `json:"lecture_credits"`
	WorkCredits    int                      `json:"work_credits"`
	Preview        bool                     `json:"preview"`
}
