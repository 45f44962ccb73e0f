package dto

import "grade-planner/backend/internal/timetable"

// 组合生成状态
const (
	CombinationStatusPending = "pending"
	CombinationStatusReady   = "ready"
	CombinationStatusFailed  = "failed"
)

// 游标操作
const (
	CursorSelect   = "select"
	CursorNext     = "next"
	CursorPrevious = "previous"
)

// CursorRequest 移动浏览游标
type CursorRequest struct {
	Action string `json:"action" binding:"required,oneof=select next previous"`
	Index  *int   `json:"index"`
}

// CombinationStateResponse 组合浏览状态
// Status=ready 且 Count=0 表示所选课程不存在无冲突组合
type CombinationStateResponse struct {
	Generation uint64                 `json:"generation"`
	Status     string                 `json:"status"`
	Count      int                    `json:"count"`
	Truncated  bool                   `json:"truncated"`
	Stats      timetable.Stats        `json:"stats"`
	Index      int                    `json:"index"`
	Current    *timetable.Combination `json:"current,omitempty"`
}

// ApplyCombinationResponse 应用组合结果
type ApplyCombinationResponse struct {
	Rank       int               `json:"rank"`
	PinnedIDs  map[string]string `json:"pinned"` // course_id → section_id
	Generation uint64            `json:"generation"`
}
