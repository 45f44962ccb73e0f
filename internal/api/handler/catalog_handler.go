package handler

import (
	"github.com/gin-gonic/gin"

	"grade-planner/backend/internal/service"
	"grade-planner/backend/pkg/response"
)

// CatalogHandler 课程目录 Handler（只读）
type CatalogHandler struct {
	svc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler 实例
func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// GetCourse 课程详情
// GET /api/v1/catalog/courses/:id
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	resp, err := h.svc.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlePlanError(c, err)
		return
	}
	response.OK(c, resp)
}
