package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"grade-planner/backend/internal/timetable"
)

// EventCombinationsReady 一轮组合生成完成
const EventCombinationsReady = "combinations.ready"

// EventPublisher 事件推送（realtime.Broker 实现）
type EventPublisher interface {
	Publish(ctx context.Context, userID, event string, payload any) error
}

// CombinationsReadyPayload combinations.ready 事件载荷
type CombinationsReadyPayload struct {
	PlanID     string `json:"plan_id"`
	Generation uint64 `json:"generation"`
	Count      int    `json:"count"`
	Truncated  bool   `json:"truncated"`
}

// ── GenerationRunner ────────────────────────────────────────
//
//   - 每个方案维护单调递增的生成号，Submit 时加一
//   - 搜索在独立 goroutine 中同步执行，引擎内部不感知取消
//   - 完成时若生成号已不是最新，结果直接丢弃
//   - 同一方案的会话读-改-写经由方案锁串行，不同方案互不阻塞
//   - 全局锁只保护内存状态，不跨越存储或推送 I/O
//   - 方案空闲（无进行中的生成与持锁者）后回收其内存状态
// ─────────────────────────────────────────────────────────────

// planState 单个方案的调度状态；除 mu 外的字段由 GenerationRunner.mu 保护
type planState struct {
	mu       sync.Mutex // 串行化该方案的会话读-改-写
	latest   uint64
	inflight int
	refs     int
	waiters  map[uint64]chan struct{}
}

// GenerationRunner 组合生成调度器
type GenerationRunner struct {
	mu    sync.Mutex
	plans map[string]*planState

	store     SessionStore
	publisher EventPublisher
	logger    *zap.Logger
	wg        sync.WaitGroup

	search func(courses []timetable.Course, limit int) (timetable.RankResult, error)
}

// NewGenerationRunner publisher 可为 nil
func NewGenerationRunner(store SessionStore, publisher EventPublisher, logger *zap.Logger) *GenerationRunner {
	return &GenerationRunner{
		plans:     make(map[string]*planState),
		store:     store,
		publisher: publisher,
		logger:    logger,
		search:    search,
	}
}

// Submit 登记新一轮生成并异步执行，返回生成号与完成信号。
// 被更新的生成取代时，完成信号同样会关闭。
func (r *GenerationRunner) Submit(ctx context.Context, userID, planID string, courses []timetable.Course, limit int) (uint64, <-chan struct{}, error) {
	ps := r.lockPlan(planID)
	defer r.unlockPlan(planID, ps)

	prev, found, err := r.store.Get(ctx, planID)
	if err != nil {
		return 0, nil, err
	}

	r.mu.Lock()
	gen := ps.latest + 1
	r.mu.Unlock()
	if found && prev.Generation >= gen {
		gen = prev.Generation + 1
	}

	pending := &CombinationSession{
		PlanID:     planID,
		UserID:     userID,
		Generation: gen,
		Status:     SessionPending,
		Limit:      limit,
		UpdatedAt:  time.Now(),
	}
	if found {
		pending.Browser = prev.Browser
		pending.Stats = prev.Stats
	}
	if err := r.store.Save(ctx, pending); err != nil {
		return 0, nil, err
	}

	done := make(chan struct{})
	r.mu.Lock()
	ps.latest = gen
	ps.inflight++
	ps.waiters[gen] = done
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(userID, planID, gen, courses, limit)

	return gen, done, nil
}

// UpdateSession 在方案锁内读取、修改并写回会话，
// 与生成完成的写入互斥，不会用旧会话覆盖新结果
func (r *GenerationRunner) UpdateSession(ctx context.Context, planID string, fn func(*CombinationSession) error) (*CombinationSession, error) {
	ps := r.lockPlan(planID)
	defer r.unlockPlan(planID, ps)

	sess, found, err := r.store.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrGenerationNotFound
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = time.Now()
	if err := r.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Latest 方案进行中的最新生成号，0 表示当前没有进行中的生成
func (r *GenerationRunner) Latest(planID string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ps, ok := r.plans[planID]; ok {
		return ps.latest
	}
	return 0
}

// Wait 等待完成信号或 ctx 结束；ctx 结束返回 ctx.Err()
func (r *GenerationRunner) Wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown 等待所有进行中的生成结束（或 ctx 到期）
func (r *GenerationRunner) Shutdown(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *GenerationRunner) run(userID, planID string, gen uint64, courses []timetable.Course, limit int) {
	defer r.wg.Done()

	start := time.Now()
	result, err := r.search(courses, limit)
	elapsed := time.Since(start)

	// 结果已与请求解耦，使用独立 ctx 写入
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess, ok := r.commit(ctx, userID, planID, gen, limit, result, err)
	if !ok {
		return
	}

	r.logger.Info("组合生成完成",
		zap.String("plan_id", planID),
		zap.Uint64("generation", gen),
		zap.Int("count", sess.Browser.Len()),
		zap.Duration("elapsed", elapsed),
	)

	if r.publisher != nil && sess.Status == SessionReady {
		payload := CombinationsReadyPayload{
			PlanID:     planID,
			Generation: gen,
			Count:      sess.Browser.Len(),
			Truncated:  timetable.Truncated(sess.Browser.Len(), limit),
		}
		if err := r.publisher.Publish(ctx, userID, EventCombinationsReady, payload); err != nil {
			r.logger.Warn("推送组合完成事件失败", zap.String("plan_id", planID), zap.Error(err))
		}
	}
}

// commit 在方案锁内比较生成号并写入结果；过期或写入失败返回 false
func (r *GenerationRunner) commit(ctx context.Context, userID, planID string, gen uint64, limit int, result timetable.RankResult, searchErr error) (*CombinationSession, bool) {
	ps := r.lockPlan(planID)
	defer r.unlockPlan(planID, ps)
	defer r.finish(ps, gen)

	r.mu.Lock()
	latest := ps.latest
	r.mu.Unlock()
	if latest != gen {
		r.logger.Info("丢弃过期的组合生成结果",
			zap.String("plan_id", planID),
			zap.Uint64("generation", gen),
			zap.Uint64("latest", latest),
		)
		return nil, false
	}

	sess := &CombinationSession{
		PlanID:     planID,
		UserID:     userID,
		Generation: gen,
		Status:     SessionReady,
		Limit:      limit,
		UpdatedAt:  time.Now(),
	}
	if searchErr != nil {
		r.logger.Error("组合生成失败", zap.String("plan_id", planID), zap.Uint64("generation", gen), zap.Error(searchErr))
		sess.Status = SessionFailed
		sess.Browser.OnNewRankedList([]timetable.Combination{})
	} else {
		sess.Browser.OnNewRankedList(result.Ranked)
		sess.Stats = result.Stats
	}

	if err := r.store.Save(ctx, sess); err != nil {
		r.logger.Error("保存组合会话失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, false
	}
	return sess, true
}

// lockPlan 取得方案锁，必要时创建方案状态
func (r *GenerationRunner) lockPlan(planID string) *planState {
	r.mu.Lock()
	ps, ok := r.plans[planID]
	if !ok {
		ps = &planState{waiters: make(map[uint64]chan struct{})}
		r.plans[planID] = ps
	}
	ps.refs++
	r.mu.Unlock()

	ps.mu.Lock()
	return ps
}

// unlockPlan 释放方案锁，方案空闲时回收状态
func (r *GenerationRunner) unlockPlan(planID string, ps *planState) {
	ps.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	ps.refs--
	if ps.refs == 0 && ps.inflight == 0 && len(ps.waiters) == 0 {
		delete(r.plans, planID)
	}
}

// finish 关闭 gen 及更早生成的完成信号，并结束一次进行中的生成
func (r *GenerationRunner) finish(ps *planState, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for g, ch := range ps.waiters {
		if g <= gen {
			close(ch)
			delete(ps.waiters, g)
		}
	}
	ps.inflight--
}

// search 执行搜索与排序；引擎对非法时间段 panic，这里转成错误
func search(courses []timetable.Course, limit int) (result timetable.RankResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidTimeSlot, p)
		}
	}()
	combos := timetable.GenerateCombinations(courses, limit)
	return timetable.Rank(combos), nil
}
