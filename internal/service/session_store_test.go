package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"grade-planner/backend/internal/timetable"
)

func TestMemorySessionStore_TTL(t *testing.T) {
	store := newMemorySessionStore(time.Minute)
	now := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	store.Save(ctx, &CombinationSession{PlanID: "plan-1", Generation: 3})

	sess, found, _ := store.Get(ctx, "plan-1")
	if !found || sess.Generation != 3 {
		t.Fatalf("期望读到 generation=3 的会话，实际 found=%v", found)
	}

	now = now.Add(2 * time.Minute)
	if _, found, _ := store.Get(ctx, "plan-1"); found {
		t.Error("过期会话不应返回")
	}
}

func TestMemorySessionStore_ReturnsCopy(t *testing.T) {
	store := newMemorySessionStore(0)
	ctx := context.Background()
	store.Save(ctx, &CombinationSession{PlanID: "plan-1"})

	sess, _, _ := store.Get(ctx, "plan-1")
	sess.Browser.Index = 5

	again, _, _ := store.Get(ctx, "plan-1")
	if again.Browser.Index != 0 {
		t.Error("未 Save 的修改不应影响存储")
	}
}

func TestRedisSessionStore_RoundTrip(t *testing.T) {
	kv := newMockJSONStore()
	store := NewSessionStore(kv, time.Hour, zap.NewNop())
	ctx := context.Background()

	combo := timetable.Combination{
		Sections: []timetable.Section{{ID: "s1", CourseID: "c1", Code: "T1", Slots: []timetable.TimeSlot{
			{Day: timetable.Monday, Start: timetable.MustParseClock("08:00"), End: timetable.MustParseClock("10:00")},
		}}},
		LectureCredits: 4,
		Rank:           1,
	}
	sess := &CombinationSession{PlanID: "plan-1", Generation: 1, Status: SessionReady, Limit: 100}
	sess.Browser.OnNewRankedList([]timetable.Combination{combo})

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}
	if _, ok := kv.data[sessionKeyPrefix+"plan-1"]; !ok {
		t.Fatal("会话应写入 Redis")
	}

	got, found, err := store.Get(ctx, "plan-1")
	if err != nil || !found {
		t.Fatalf("Get 失败: found=%v err=%v", found, err)
	}
	cur, ok := got.Browser.Current()
	if !ok || cur.Sections[0].Slots[0].Start.String() != "08:00" {
		t.Errorf("反序列化后的组合不符: %+v", got.Browser)
	}

	store.Delete(ctx, "plan-1")
	if _, found, _ := store.Get(ctx, "plan-1"); found {
		t.Error("Delete 后不应再读到会话")
	}
}

func TestFallbackSessionStore_DegradesToMemory(t *testing.T) {
	kv := newMockJSONStore()
	kv.err = errors.New("connection refused")
	store := NewSessionStore(kv, time.Hour, zap.NewNop())
	ctx := context.Background()

	if err := store.Save(ctx, &CombinationSession{PlanID: "plan-1", Generation: 7}); err != nil {
		t.Fatalf("Redis 不可用时 Save 应降级成功: %v", err)
	}
	sess, found, err := store.Get(ctx, "plan-1")
	if err != nil || !found || sess.Generation != 7 {
		t.Errorf("应从内存读到会话: found=%v err=%v", found, err)
	}
}
