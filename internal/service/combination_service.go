package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"grade-planner/backend/config"
	"grade-planner/backend/internal/dto"
	"grade-planner/backend/internal/repository"
	"grade-planner/backend/internal/timetable"
)

// CombinationService 组合生成与浏览业务接口
type CombinationService interface {
	// Generate 以方案中可见课程发起新一轮生成；wait 为 true 时在超时内等待结果
	Generate(ctx context.Context, userID, planID string, wait bool) (*dto.CombinationStateResponse, error)
	GetState(ctx context.Context, userID, planID string) (*dto.CombinationStateResponse, error)
	Select(ctx context.Context, userID, planID string, index int) (*dto.CombinationStateResponse, error)
	Next(ctx context.Context, userID, planID string) (*dto.CombinationStateResponse, error)
	Previous(ctx context.Context, userID, planID string) (*dto.CombinationStateResponse, error)
}

type combinationService struct {
	repo    *repository.Repository
	catalog CatalogService
	runner  *GenerationRunner
	store   SessionStore
	cfg     *config.PlannerConfig
	logger  *zap.Logger
}

// NewCombinationService 创建 CombinationService 实例
func NewCombinationService(
	cfg *config.PlannerConfig,
	repo *repository.Repository,
	catalog CatalogService,
	runner *GenerationRunner,
	store SessionStore,
	logger *zap.Logger,
) CombinationService {
	return &combinationService{
		repo:    repo,
		catalog: catalog,
		runner:  runner,
		store:   store,
		cfg:     cfg,
		logger:  logger,
	}
}

// ════════════════════════════════════════════════════════════
// Generate
// ════════════════════════════════════════════════════════════
//
//   1. 校验方案归属，读取可见课程（按加入顺序，即搜索输入顺序）
//   2. 没有可见课程 → ErrNoCoursesSelected（与"无可行组合"区分）
//   3. 加载并校验目录数据，非法时间段在进入引擎前拒绝
//   4. 提交到 GenerationRunner；wait 时最多等待 generation_timeout

func (s *combinationService) Generate(ctx context.Context, userID, planID string, wait bool) (*dto.CombinationStateResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}

	pcs, err := s.repo.PlanCourse.ListByPlan(ctx, planID)
	if err != nil {
		s.logger.Error("查询方案课程失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(pcs))
	for _, pc := range pcs {
		if pc.IsVisible {
			ids = append(ids, pc.CourseID)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoCoursesSelected
	}

	courses, err := s.catalog.LoadCourses(ctx, ids)
	if err != nil {
		return nil, err
	}

	limit := s.cfg.CombinationCap
	gen, done, err := s.runner.Submit(ctx, userID, planID, courses, limit)
	if err != nil {
		s.logger.Error("提交组合生成失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}

	if wait {
		timeout := s.cfg.GenerationTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := s.runner.Wait(waitCtx, done); err != nil {
			s.logger.Warn("等待组合生成超时，返回 pending 状态",
				zap.String("plan_id", planID),
				zap.Uint64("generation", gen),
			)
		}
	}

	sess, err := s.loadSession(ctx, planID)
	if err != nil {
		return nil, err
	}
	return toStateResponse(sess), nil
}

// ────────────────────── 浏览 ──────────────────────

func (s *combinationService) GetState(ctx context.Context, userID, planID string) (*dto.CombinationStateResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}
	sess, err := s.loadSession(ctx, planID)
	if err != nil {
		return nil, err
	}
	return toStateResponse(sess), nil
}

func (s *combinationService) Select(ctx context.Context, userID, planID string, index int) (*dto.CombinationStateResponse, error) {
	return s.moveCursor(ctx, userID, planID, func(b *timetable.Browser) { b.Select(index) })
}

func (s *combinationService) Next(ctx context.Context, userID, planID string) (*dto.CombinationStateResponse, error) {
	return s.moveCursor(ctx, userID, planID, (*timetable.Browser).Next)
}

func (s *combinationService) Previous(ctx context.Context, userID, planID string) (*dto.CombinationStateResponse, error) {
	return s.moveCursor(ctx, userID, planID, (*timetable.Browser).Previous)
}

// moveCursor 游标移动经由方案锁写回，与生成完成的写入互斥
func (s *combinationService) moveCursor(ctx context.Context, userID, planID string, move func(*timetable.Browser)) (*dto.CombinationStateResponse, error) {
	if _, err := ownedPlan(ctx, s.repo, s.logger, userID, planID); err != nil {
		return nil, err
	}
	sess, err := s.runner.UpdateSession(ctx, planID, func(sess *CombinationSession) error {
		move(&sess.Browser)
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrGenerationNotFound) {
			s.logger.Error("保存浏览游标失败", zap.String("plan_id", planID), zap.Error(err))
		}
		return nil, err
	}
	return toStateResponse(sess), nil
}

func (s *combinationService) loadSession(ctx context.Context, planID string) (*CombinationSession, error) {
	sess, found, err := s.store.Get(ctx, planID)
	if err != nil {
		s.logger.Error("读取组合会话失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}
	if !found {
		return nil, ErrGenerationNotFound
	}
	return sess, nil
}

// currentCombination 当前可应用的组合；生成中或无结果时返回对应错误
func currentCombination(ctx context.Context, store SessionStore, planID string) (timetable.Combination, *CombinationSession, error) {
	sess, found, err := store.Get(ctx, planID)
	if err != nil {
		return timetable.Combination{}, nil, err
	}
	if !found {
		return timetable.Combination{}, nil, ErrGenerationNotFound
	}
	if sess.Status == SessionPending && sess.Browser.Len() == 0 {
		return timetable.Combination{}, sess, ErrGenerationPending
	}
	combo, ok := sess.Browser.Current()
	if !ok {
		return timetable.Combination{}, sess, ErrNoCombination
	}
	return combo, sess, nil
}

func toStateResponse(sess *CombinationSession) *dto.CombinationStateResponse {
	resp := &dto.CombinationStateResponse{
		Generation: sess.Generation,
		Status:     dto.CombinationStatusReady,
		Count:      sess.Browser.Len(),
		Truncated:  timetable.Truncated(sess.Browser.Len(), sess.Limit),
		Stats:      sess.Stats,
		Index:      sess.Browser.Index,
	}
	switch sess.Status {
	case SessionPending:
		resp.Status = dto.CombinationStatusPending
	case SessionFailed:
		resp.Status = dto.CombinationStatusFailed
	}
	if c, ok := sess.Browser.Current(); ok {
		resp.Current = &c
	}
	return resp
}
