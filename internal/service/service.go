package service

import (
	"go.uber.org/zap"

	"grade-planner/backend/config"
	"grade-planner/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Catalog     CatalogService
	Plan        PlanService
	Combination CombinationService
	Export      ExportService
	Runner      *GenerationRunner
}

// NewService 创建 Service 聚合
// kv 为 nil 时组合会话仅保存在进程内；publisher 为 nil 时不推送事件
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	kv JSONStore,
	publisher EventPublisher,
	logger *zap.Logger,
) *Service {
	store := NewSessionStore(kv, cfg.Planner.SessionTTL, logger)
	runner := NewGenerationRunner(store, publisher, logger)
	catalog := NewCatalogService(repo, logger)
	plans := NewPlanService(repo, store, cfg.Planner.Palette, logger)

	return &Service{
		Catalog:     catalog,
		Plan:        plans,
		Combination: NewCombinationService(&cfg.Planner, repo, catalog, runner, store, logger),
		Export:      NewExportService(&cfg.Planner, plans, logger),
		Runner:      runner,
	}
}
