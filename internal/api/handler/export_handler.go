package handler

import (
	"github.com/gin-gonic/gin"

	"grade-planner/backend/internal/service"
	"grade-planner/backend/pkg/response"
)

const (
	contentTypeICS  = "text/calendar; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportICS 导出为日历
// GET /api/v1/plans/:id/export/ics
func (h *ExportHandler) ExportICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	data, filename, err := h.exportSvc.ExportICS(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleExportError(c, err)
		return
	}
	response.Attachment(c, filename, contentTypeICS, data)
}

// ExportExcel 导出为 Excel
// GET /api/v1/plans/:id/export/xlsx
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	data, filename, err := h.exportSvc.ExportExcel(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleExportError(c, err)
		return
	}
	c.Header("Content-Description", "File Transfer")
	response.Attachment(c, filename, contentTypeXLSX, data)
}
