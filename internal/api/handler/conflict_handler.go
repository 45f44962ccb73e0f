package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"grade-planner/backend/internal/dto"
	"grade-planner/backend/internal/timetable"
	"grade-planner/backend/pkg/response"
)

// ConflictHandler 无状态冲突检测，不读写任何方案数据
type ConflictHandler struct{}

// NewConflictHandler 创建 ConflictHandler 实例
func NewConflictHandler() *ConflictHandler {
	return &ConflictHandler{}
}

// Detect 对提交的条目做两两冲突检测
// POST /api/v1/timetable/conflicts
func (h *ConflictHandler) Detect(c *gin.Context) {
	var req dto.DetectConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, err.Error())
		return
	}

	// 同 id 条目在检测中视为同一条目，无法报告彼此冲突
	seen := make(map[string]struct{}, len(req.Items))
	for _, it := range req.Items {
		if _, dup := seen[it.ID]; dup {
			response.BadRequest(c, codeInvalidParams, fmt.Sprintf("条目 id 重复: %s", it.ID))
			return
		}
		seen[it.ID] = struct{}{}
	}

	items := make([]timetable.ScheduleItem, 0, len(req.Items))
	for _, it := range req.Items {
		slots, err := dto.ToTimeSlots(it.Slots)
		if err != nil {
			handlePlanError(c, fmt.Errorf("条目 %s: %w", it.ID, err))
			return
		}
		visible := true
		if it.Visible != nil {
			visible = *it.Visible
		}
		items = append(items, timetable.ScheduleItem{
			ID:      it.ID,
			Kind:    timetable.ItemKindCustom,
			Label:   it.Label,
			Slots:   slots,
			Visible: visible,
		})
	}

	report := timetable.DetectConflicts(items)
	response.OK(c, dto.DetectConflictsResponse{
		Conflicts:      report.Conflicts,
		ConflictingIDs: report.IDs(),
	})
}
