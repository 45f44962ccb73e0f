package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"grade-planner/backend/internal/service"
	pkgerrors "grade-planner/backend/pkg/errors"
	"grade-planner/backend/pkg/response"
)

// 错误码（16xxx：选课规划模块）
const (
	codeInvalidParams     = 16001
	codeCourseNotFound    = 16002
	codeSectionNotFound   = 16003
	codePlanNotFound      = 16004
	codePlanNotOwner      = 16005
	codeCourseNotInPlan   = 16006
	codeSectionNotInCrs   = 16007
	codeCustomItemMissing = 16008
	codeInvalidTimeSlot   = 16009
	codeVersionConflict   = 16010
	codeICSParseFailed    = 16011
	codeICSEmpty          = 16012
	codeICSMissingFile    = 16013

	codeNoCoursesSelected = 16101
	codeGenerationMissing = 16102
	codeGenerationPending = 16103
	codeNoCombination     = 16104

	codeExportEmpty = 16201
)

// handlePlanError 方案相关错误映射；组合与导出模块的通用错误也经由此处
func handlePlanError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, codeCourseNotFound, err.Error())
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, codeSectionNotFound, err.Error())
	case errors.Is(err, service.ErrPlanNotFound):
		response.NotFound(c, codePlanNotFound, err.Error())
	case errors.Is(err, service.ErrPlanNotOwner):
		response.Forbidden(c, codePlanNotOwner, err.Error())
	case errors.Is(err, service.ErrCourseNotInPlan):
		response.NotFound(c, codeCourseNotInPlan, err.Error())
	case errors.Is(err, service.ErrSectionNotInCourse):
		response.BadRequest(c, codeSectionNotInCrs, err.Error())
	case errors.Is(err, service.ErrCustomItemNotFound):
		response.NotFound(c, codeCustomItemMissing, err.Error())
	case errors.Is(err, service.ErrInvalidTimeSlot):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeInvalidTimeSlot, "时间段非法", err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeVersionConflict, err.Error())
	case errors.Is(err, service.ErrICSParseFailed):
		response.ErrorWithDetails(c, http.StatusBadRequest, codeICSParseFailed, "ICS 文件解析失败", err.Error())
	case errors.Is(err, service.ErrICSEmpty):
		response.BadRequest(c, codeICSEmpty, err.Error())
	case errors.As(err, &maxBytes):
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
	case errors.Is(err, service.ErrGenerationNotFound):
		response.NotFound(c, codeGenerationMissing, err.Error())
	case errors.Is(err, service.ErrGenerationPending):
		response.Conflict(c, codeGenerationPending, err.Error())
	case errors.Is(err, service.ErrNoCombination):
		response.Conflict(c, codeNoCombination, err.Error())
	default:
		response.InternalError(c)
	}
}

// handleCombinationError "未选课程"与"无可行组合"是两种不同结果：
// 前者是错误，后者是 status=ready、count=0 的正常响应
func handleCombinationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoCoursesSelected):
		response.BadRequest(c, codeNoCoursesSelected, err.Error())
	default:
		handlePlanError(c, err)
	}
}

func handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportEmpty):
		response.BadRequest(c, codeExportEmpty, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handlePlanError(c, err)
	}
}

// handleUploadError 读取上传文件失败：超出大小限制或缺少 file 字段
func handleUploadError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.BadRequest(c, codeICSMissingFile, "请上传 ICS 文件（字段名 file）")
}
