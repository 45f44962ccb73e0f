package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"grade-planner/backend/internal/dto"
	"grade-planner/backend/internal/service"
	"grade-planner/backend/pkg/response"
)

// PlanHandler 选课方案 Handler
type PlanHandler struct {
	svc service.PlanService
}

// NewPlanHandler 创建 PlanHandler 实例
func NewPlanHandler(svc service.PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// ════════════════════════════════════════════════════════════
// 方案
// ════════════════════════════════════════════════════════════

// ListPlans 我的方案列表
// GET /api/v1/plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListPlans(c.Request.Context(), userID)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// CreatePlan 创建方案，body 可为空
// POST /api/v1/plans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreatePlanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, codeInvalidParams, err.Error())
			return
		}
	}
	resp, err := h.svc.CreatePlan(c.Request.Context(), userID, &req)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.Created(c, resp)
}

// GetPlan 方案详情
// GET /api/v1/plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetPlan(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// RenamePlan 重命名方案
// PUT /api/v1/plans/:id
func (h *PlanHandler) RenamePlan(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.RenamePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, err.Error())
		return
	}
	resp, err := h.svc.RenamePlan(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// DeletePlan 删除方案
// DELETE /api/v1/plans/:id
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.svc.DeletePlan(c.Request.Context(), userID, c.Param("id")); err != nil {
		handlePlanError(c, err)
		return
	}
	response.NoContent(c)
}

// ════════════════════════════════════════════════════════════
// 方案课程
// ════════════════════════════════════════════════════════════

// AddCourse 加入课程（幂等）
// POST /api/v1/plans/:id/courses
func (h *PlanHandler) AddCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.AddCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, err.Error())
		return
	}
	resp, err := h.svc.AddCourse(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.Created(c, resp)
}

// UpdateCourse 固定开班、显示/隐藏、颜色
// PUT /api/v1/plans/:id/courses/:courseId
func (h *PlanHandler) UpdateCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdatePlanCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, err.Error())
		return
	}
	resp, err := h.svc.UpdateCourse(c.Request.Context(), userID, c.Param("id"), c.Param("courseId"), &req)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// RemoveCourse 移除课程
// DELETE /api/v1/plans/:id/courses/:courseId
func (h *PlanHandler) RemoveCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveCourse(c.Request.Context(), userID, c.Param("id"), c.Param("courseId")); err != nil {
		handlePlanError(c, err)
		return
	}
	response.NoContent(c)
}

// ════════════════════════════════════════════════════════════
// 自定义时间块
// ════════════════════════════════════════════════════════════

// AddCustomItem 新建自定义时间块
// POST /api/v1/plans/:id/custom-items
func (h *PlanHandler) AddCustomItem(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CustomItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, err.Error())
		return
	}
	resp, err := h.svc.AddCustomItem(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.Created(c, resp)
}

// UpdateCustomItem 整体替换自定义时间块
// PUT /api/v1/plans/:id/custom-items/:itemId
func (h *PlanHandler) UpdateCustomItem(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CustomItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, err.Error())
		return
	}
	resp, err := h.svc.UpdateCustomItem(c.Request.Context(), userID, c.Param("id"), c.Param("itemId"), &req)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// DeleteCustomItem 删除自定义时间块
// DELETE /api/v1/plans/:id/custom-items/:itemId
func (h *PlanHandler) DeleteCustomItem(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteCustomItem(c.Request.Context(), userID, c.Param("id"), c.Param("itemId")); err != nil {
		handlePlanError(c, err)
		return
	}
	response.NoContent(c)
}

// ImportCustomItems 从 ICS 文件导入每周重复事件
// POST /api/v1/plans/:id/custom-items/import (multipart/form-data, field="file")
func (h *PlanHandler) ImportCustomItems(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		handleUploadError(c, err)
		return
	}
	defer file.Close()

	resp, err := h.svc.ImportCustomItems(c.Request.Context(), userID, c.Param("id"), file)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.Created(c, resp)
}

// ════════════════════════════════════════════════════════════
// 网格与冲突预检
// ════════════════════════════════════════════════════════════

// CheckConflicts 候选开班与当前课表的冲突预检
// POST /api/v1/plans/:id/check-conflicts
func (h *PlanHandler) CheckConflicts(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CheckConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, codeInvalidParams, err.Error())
		return
	}
	resp, err := h.svc.CheckSectionConflicts(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// GetGrid 课表网格
// GET /api/v1/plans/:id/grid?preview=true
func (h *PlanHandler) GetGrid(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	preview, err := parseBoolQuery(c, "preview")
	if err != nil {
		response.BadRequest(c, codeInvalidParams, "preview 参数应为布尔值")
		return
	}
	resp, err := h.svc.GetGrid(c.Request.Context(), userID, c.Param("id"), preview)
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// parseBoolQuery 缺省为 false
func parseBoolQuery(c *gin.Context, key string) (bool, error) {
	v := c.Query(key)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
