package handler

import (
	"github.com/gin-gonic/gin"

	"grade-planner/backend/internal/dto"
	"grade-planner/backend/internal/service"
	"grade-planner/backend/pkg/response"
)

// CombinationHandler 组合生成与浏览 Handler
type CombinationHandler struct {
	svc   service.CombinationService
	plans service.PlanService
}

// NewCombinationHandler 创建 CombinationHandler 实例
func NewCombinationHandler(svc service.CombinationService, plans service.PlanService) *CombinationHandler {
	return &CombinationHandler{svc: svc, plans: plans}
}

// Generate 发起新一轮生成
// POST /api/v1/plans/:id/combinations/generate?wait=true
//
// 结果就绪返回 200；仍在生成中返回 202，完成后经 WebSocket 推送 combinations.ready
func (h *CombinationHandler) Generate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	wait, err := parseBoolQuery(c, "wait")
	if err != nil {
		response.BadRequest(c, codeInvalidParams, "wait 参数应为布尔值")
		return
	}

	resp, err := h.svc.Generate(c.Request.Context(), userID, c.Param("id"), wait)
	if err != nil {
		handleCombinationError(c, err)
		return
	}
	writeState(c, resp)
}

// GetState 当前浏览状态
// GET /api/v1/plans/:id/combinations
func (h *CombinationHandler) GetState(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetState(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleCombinationError(c, err)
		return
	}
	writeState(c, resp)
}

// MoveCursor 移动浏览游标
// PUT /api/v1/plans/:id/combinations/cursor
func (h *CombinationHandler) MoveCursor(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CursorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, err.Error())
		return
	}

	ctx := c.Request.Context()
	planID := c.Param("id")
	var (
		resp *dto.CombinationStateResponse
		err  error
	)
	switch req.Action {
	case dto.CursorSelect:
		if req.Index == nil {
			response.BadRequest(c, codeInvalidParams, "select 操作需要 index")
			return
		}
		resp, err = h.svc.Select(ctx, userID, planID, *req.Index)
	case dto.CursorNext:
		resp, err = h.svc.Next(ctx, userID, planID)
	case dto.CursorPrevious:
		resp, err = h.svc.Previous(ctx, userID, planID)
	}
	if err != nil {
		handleCombinationError(c, err)
		return
	}
	response.OK(c, resp)
}

// Apply 把当前组合固定到方案
// POST /api/v1/plans/:id/combinations/apply
func (h *CombinationHandler) Apply(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.plans.ApplyCombination(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleCombinationError(c, err)
		return
	}
	response.OK(c, resp)
}

func writeState(c *gin.Context, resp *dto.CombinationStateResponse) {
	if resp.Status == dto.CombinationStatusPending {
		response.Accepted(c, resp)
		return
	}
	response.OK(c, resp)
}
