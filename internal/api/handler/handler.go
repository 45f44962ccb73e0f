package handler

import (
	"grade-planner/backend/internal/realtime"
	"grade-planner/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Catalog     *CatalogHandler
	Plan        *PlanHandler
	Combination *CombinationHandler
	Export      *ExportHandler
	Conflict    *ConflictHandler
	Realtime    *RealtimeHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, hub *realtime.Hub) *Handler {
	return &Handler{
		Catalog:     NewCatalogHandler(svc.Catalog),
		Plan:        NewPlanHandler(svc.Plan),
		Combination: NewCombinationHandler(svc.Combination, svc.Plan),
		Export:      NewExportHandler(svc.Export),
		Conflict:    NewConflictHandler(),
		Realtime:    NewRealtimeHandler(hub),
	}
}
