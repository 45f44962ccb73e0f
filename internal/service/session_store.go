package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"grade-planner/backend/internal/timetable"
)

// 会话状态
const (
	SessionPending = "pending"
	SessionReady   = "ready"
	SessionFailed  = "failed"
)

// CombinationSession 一个方案的组合浏览会话
// Browser 在 pending 期间保留上一轮结果，新结果到达时整体替换并重置游标
type CombinationSession struct {
	PlanID     string            `json:"plan_id"`
	UserID     string            `json:"user_id"`
	Generation uint64            `json:"generation"`
	Status     string            `json:"status"`
	Limit      int               `json:"limit"`
	Browser    timetable.Browser `json:"browser"`
	Stats      timetable.Stats   `json:"stats"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// SessionStore 会话存储
type SessionStore interface {
	Get(ctx context.Context, planID string) (*CombinationSession, bool, error)
	Save(ctx context.Context, session *CombinationSession) error
	Delete(ctx context.Context, planID string) error
}

// JSONStore 键值 JSON 存储（*redis.Client 实现）
type JSONStore interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// NewSessionStore kv 为 nil 时仅使用内存；否则 Redis 优先，出错时降级到内存
func NewSessionStore(kv JSONStore, ttl time.Duration, logger *zap.Logger) SessionStore {
	mem := newMemorySessionStore(ttl)
	if kv == nil {
		return mem
	}
	return &fallbackSessionStore{
		primary:  &redisSessionStore{kv: kv, ttl: ttl},
		fallback: mem,
		logger:   logger,
	}
}

// ── Redis ──

const sessionKeyPrefix = "planner:combos:"

type redisSessionStore struct {
	kv  JSONStore
	ttl time.Duration
}

func (s *redisSessionStore) Get(ctx context.Context, planID string) (*CombinationSession, bool, error) {
	var sess CombinationSession
	found, err := s.kv.GetJSON(ctx, sessionKeyPrefix+planID, &sess)
	if err != nil || !found {
		return nil, false, err
	}
	return &sess, true, nil
}

func (s *redisSessionStore) Save(ctx context.Context, session *CombinationSession) error {
	return s.kv.SetJSON(ctx, sessionKeyPrefix+session.PlanID, session, s.ttl)
}

func (s *redisSessionStore) Delete(ctx context.Context, planID string) error {
	return s.kv.Delete(ctx, sessionKeyPrefix+planID)
}

// ── 内存 ──

type memoryEntry struct {
	session   CombinationSession
	expiresAt time.Time
}

type memorySessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func newMemorySessionStore(ttl time.Duration) *memorySessionStore {
	return &memorySessionStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *memorySessionStore) Get(_ context.Context, planID string) (*CombinationSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[planID]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, planID)
		return nil, false, nil
	}
	sess := e.session
	return &sess, true, nil
}

func (s *memorySessionStore) Save(_ context.Context, session *CombinationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{session: *session}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[session.PlanID] = e
	return nil
}

func (s *memorySessionStore) Delete(_ context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, planID)
	return nil
}

// ── 降级 ──

type fallbackSessionStore struct {
	primary  SessionStore
	fallback SessionStore
	logger   *zap.Logger
}

func (s *fallbackSessionStore) Get(ctx context.Context, planID string) (*CombinationSession, bool, error) {
	sess, ok, err := s.primary.Get(ctx, planID)
	if err == nil {
		return sess, ok, nil
	}
	s.logger.Warn("Redis 读取会话失败，降级到内存", zap.String("plan_id", planID), zap.Error(err))
	return s.fallback.Get(ctx, planID)
}

func (s *fallbackSessionStore) Save(ctx context.Context, session *CombinationSession) error {
	if err := s.primary.Save(ctx, session); err != nil {
		s.logger.Warn("Redis 写入会话失败，降级到内存", zap.String("plan_id", session.PlanID), zap.Error(err))
		return s.fallback.Save(ctx, session)
	}
	return nil
}

func (s *fallbackSessionStore) Delete(ctx context.Context, planID string) error {
	_ = s.fallback.Delete(ctx, planID)
	return s.primary.Delete(ctx, planID)
}
