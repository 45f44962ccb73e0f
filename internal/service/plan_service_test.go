package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"grade-planner/backend/config"
	"grade-planner/backend/internal/dto"
	"grade-planner/backend/internal/timetable"
	pkgerrors "grade-planner/backend/pkg/errors"
)

const testUser = "user-1"

func setupTestPlanService() (PlanService, SessionStore, *mockRepos) {
	repo, m := newMockRepository()
	store := NewSessionStore(nil, 0, zap.NewNop())
	svc := NewPlanService(repo, store, config.DefaultPalette, zap.NewNop())
	return svc, store, m
}

// createPlanWithCourses 创建方案并依次加入课程
func createPlanWithCourses(t *testing.T, svc PlanService, courseIDs ...string) string {
	t.Helper()
	ctx := context.Background()
	plan, err := svc.CreatePlan(ctx, testUser, &dto.CreatePlanRequest{})
	if err != nil {
		t.Fatalf("CreatePlan 失败: %v", err)
	}
	for _, id := range courseIDs {
		if _, err := svc.AddCourse(ctx, testUser, plan.ID, &dto.AddCourseRequest{CourseID: id}); err != nil {
			t.Fatalf("AddCourse(%s) 失败: %v", id, err)
		}
	}
	return plan.ID
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// ── 方案 CRUD ──

func TestPlanService_CreatePlan_DefaultNames(t *testing.T) {
	svc, _, _ := setupTestPlanService()
	ctx := context.Background()

	first, _ := svc.CreatePlan(ctx, testUser, &dto.CreatePlanRequest{})
	if first.Name != "方案 1" {
		t.Errorf("期望 Name=方案 1，实际=%s", first.Name)
	}
	if err := svc.DeletePlan(ctx, testUser, first.ID); err != nil {
		t.Fatalf("DeletePlan 失败: %v", err)
	}

	// 已删除的方案仍计入编号，避免重名
	second, _ := svc.CreatePlan(ctx, testUser, &dto.CreatePlanRequest{})
	if second.Name != "方案 2" {
		t.Errorf("期望 Name=方案 2，实际=%s", second.Name)
	}

	named, _ := svc.CreatePlan(ctx, testUser, &dto.CreatePlanRequest{Name: "保底方案"})
	if named.Name != "保底方案" {
		t.Errorf("期望 Name=保底方案，实际=%s", named.Name)
	}

	list, _ := svc.ListPlans(ctx, testUser)
	if len(list) != 2 {
		t.Errorf("期望列出 2 个方案，实际 %d", len(list))
	}
}

func TestPlanService_GetPlan_NotOwner(t *testing.T) {
	svc, _, _ := setupTestPlanService()
	planID := createPlanWithCourses(t, svc)

	_, err := svc.GetPlan(context.Background(), "someone-else", planID)
	if !errors.Is(err, ErrPlanNotOwner) {
		t.Errorf("期望 ErrPlanNotOwner，实际: %v", err)
	}
}

func TestPlanService_GetPlan_NotFound(t *testing.T) {
	svc, _, _ := setupTestPlanService()

	_, err := svc.GetPlan(context.Background(), testUser, "missing")
	if !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("期望 ErrPlanNotFound，实际: %v", err)
	}
}

func TestPlanService_RenamePlan_VersionConflict(t *testing.T) {
	svc, _, _ := setupTestPlanService()
	ctx := context.Background()
	planID := createPlanWithCourses(t, svc)

	renamed, err := svc.RenamePlan(ctx, testUser, planID, &dto.RenamePlanRequest{Name: "主方案", Version: 1})
	if err != nil {
		t.Fatalf("RenamePlan 应成功: %v", err)
	}
	if renamed.Version != 2 {
		t.Errorf("期望 Version=2，实际=%d", renamed.Version)
	}

	_, err = svc.RenamePlan(ctx, testUser, planID, &dto.RenamePlanRequest{Name: "过期", Version: 1})
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

// ── 方案课程 ──

func TestPlanService_AddCourse_IdempotentWithPaletteColors(t *testing.T) {
	svc, _, m := setupTestPlanService()
	seedTwoCourses(m)
	ctx := context.Background()
	planID := createPlanWithCourses(t, svc, "course-a", "course-b")

	again, err := svc.AddCourse(ctx, testUser, planID, &dto.AddCourseRequest{CourseID: "course-a"})
	if err != nil {
		t.Fatalf("重复 AddCourse 应成功: %v", err)
	}
	if again.Color != config.DefaultPalette[0] {
		t.Errorf("重复加入应返回原颜色 %s，实际 %s", config.DefaultPalette[0], again.Color)
	}

	plan, _ := svc.GetPlan(ctx, testUser, planID)
	if len(plan.Courses) != 2 {
		t.Fatalf("期望 2 门课程，实际 %d", len(plan.Courses))
	}
	if plan.Courses[1].Color != config.DefaultPalette[1] {
		t.Errorf("第二门课程期望颜色 %s，实际 %s", config.DefaultPalette[1], plan.Courses[1].Color)
	}
	if plan.Courses[0].Code != "MAC0110" || len(plan.Courses[0].Sections) != 2 {
		t.Errorf("课程详情不符: %+v", plan.Courses[0])
	}
}

func TestPlanService_AddCourse_UnknownCourse(t *testing.T) {
	svc, _, _ := setupTestPlanService()
	planID := createPlanWithCourses(t, svc)

	_, err := svc.AddCourse(context.Background(), testUser, planID, &dto.AddCourseRequest{CourseID: "ghost"})
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

func TestPlanService_UpdateCourse_SectionMustBelongToCourse(t *testing.T) {
	svc, _, m := setupTestPlanService()
	seedTwoCourses(m)
	planID := createPlanWithCourses(t, svc, "course-a", "course-b")

	_, err := svc.UpdateCourse(context.Background(), testUser, planID, "course-a",
		&dto.UpdatePlanCourseRequest{PinnedSectionID: strPtr("B1")})
	if !errors.Is(err, ErrSectionNotInCourse) {
		t.Errorf("期望 ErrSectionNotInCourse，实际: %v", err)
	}
}

func TestPlanService_UpdateCourse_PinAndClear(t *testing.T) {
	svc, _, m := setupTestPlanService()
	seedTwoCourses(m)
	ctx := context.Background()
	planID := createPlanWithCourses(t, svc, "course-a")

	pinned, err := svc.UpdateCourse(ctx, testUser, planID, "course-a",
		&dto.UpdatePlanCourseRequest{PinnedSectionID: strPtr("A2"), Color: strPtr("#000000")})
	if err != nil {
		t.Fatalf("UpdateCourse 应成功: %v", err)
	}
	if pinned.PinnedSectionID == nil || *pinned.PinnedSectionID != "A2" || pinned.Color != "#000000" {
		t.Fatalf("固定结果不符: %+v", pinned)
	}

	cleared, _ := svc.UpdateCourse(ctx, testUser, planID, "course-a",
		&dto.UpdatePlanCourseRequest{ClearPin: true, PinnedSectionID: strPtr("A1")})
	if cleared.PinnedSectionID != nil {
		t.Error("ClearPin 应优先于 PinnedSectionID")
	}
}

func TestPlanService_RemoveCourse_NotInPlan(t *testing.T) {
	svc, _, m := setupTestPlanService()
	seedTwoCourses(m)
	planID := createPlanWithCourses(t, svc, "course-a")

	err := svc.RemoveCourse(context.Background(), testUser, planID, "course-b")
	if !errors.Is(err, ErrCourseNotInPlan) {
		t.Errorf("期望 ErrCourseNotInPlan，实际: %v", err)
	}
}

// ── 自定义时间块 ──

func TestPlanService_AddCustomItem_InvalidSlot(t *testing.T) {
	svc, _, _ := setupTestPlanService()
	planID := createPlanWithCourses(t, svc)

	_, err := svc.AddCustomItem(context.Background(), testUser, planID, &dto.CustomItemRequest{
		Label: "实习",
		Slots: []dto.SlotRequest{{DayOfWeek: 1, Start: "18:00", End: "17:00"}},
	})
	if !errors.Is(err, ErrInvalidTimeSlot) {
		t.Errorf("期望 ErrInvalidTimeSlot，实际: %v", err)
	}
}

func TestPlanService_CustomItem_UpdateAndDelete(t *testing.T) {
	svc, _, _ := setupTestPlanService()
	ctx := context.Background()
	planID := createPlanWithCourses(t, svc)

	item, err := svc.AddCustomItem(ctx, testUser, planID, &dto.CustomItemRequest{
		Label: "实习",
		Slots: []dto.SlotRequest{{DayOfWeek: 1, Start: "18:00", End: "20:00"}},
	})
	if err != nil {
		t.Fatalf("AddCustomItem 应成功: %v", err)
	}
	if item.Color == "" || !item.IsVisible {
		t.Errorf("默认颜色与可见性不符: %+v", item)
	}

	updated, err := svc.UpdateCustomItem(ctx, testUser, planID, item.ID, &dto.CustomItemRequest{
		Label:     "兼职",
		IsVisible: boolPtr(false),
		Slots:     []dto.SlotRequest{{DayOfWeek: 2, Start: "18:00", End: "20:00"}},
	})
	if err != nil {
		t.Fatalf("UpdateCustomItem 应成功: %v", err)
	}
	if updated.Label != "兼职" || updated.IsVisible || updated.Slots[0].Day != timetable.Tuesday {
		t.Errorf("更新结果不符: %+v", updated)
	}

	otherPlan := createPlanWithCourses(t, svc)
	if err := svc.DeleteCustomItem(ctx, testUser, otherPlan, item.ID); !errors.Is(err, ErrCustomItemNotFound) {
		t.Errorf("跨方案删除期望 ErrCustomItemNotFound，实际: %v", err)
	}
	if err := svc.DeleteCustomItem(ctx, testUser, planID, item.ID); err != nil {
		t.Errorf("DeleteCustomItem 应成功: %v", err)
	}
}

func TestPlanService_ImportCustomItems(t *testing.T) {
	svc, _, _ := setupTestPlanService()
	planID := createPlanWithCourses(t, svc)

	items, err := svc.ImportCustomItems(context.Background(), testUser, planID, strings.NewReader(sampleICS))
	if err != nil {
		t.Fatalf("ImportCustomItems 应成功: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望导入 2 个时间块，实际 %d", len(items))
	}
	if items[0].Label != "咖啡店兼职" || len(items[0].Slots) != 2 {
		t.Errorf("首个时间块不符: %+v", items[0])
	}
}

func TestPlanService_ImportCustomItems_NoWeeklyEvents(t *testing.T) {
	svc, _, _ := setupTestPlanService()
	planID := createPlanWithCourses(t, svc)

	ics := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\nEND:VCALENDAR\r\n"
	_, err := svc.ImportCustomItems(context.Background(), testUser, planID, strings.NewReader(ics))
	if !errors.Is(err, ErrICSEmpty) {
		t.Errorf("期望 ErrICSEmpty，实际: %v", err)
	}
}

// ── 网格与冲突 ──

func TestPlanService_GetGrid_FlagsConflicts(t *testing.T) {
	svc, _, m := setupTestPlanService()
	seedTwoCourses(m)
	ctx := context.Background()
	planID := createPlanWithCourses(t, svc, "course-a", "course-b")

	svc.UpdateCourse(ctx, testUser, planID, "course-a", &dto.UpdatePlanCourseRequest{PinnedSectionID: strPtr("A1")})
	svc.UpdateCourse(ctx, testUser, planID, "course-b", &dto.UpdatePlanCourseRequest{PinnedSectionID: strPtr("B1")})
	svc.AddCustomItem(ctx, testUser, planID, &dto.CustomItemRequest{
		Label: "社团",
		Slots: []dto.SlotRequest{{DayOfWeek: 3, Start: "12:00", End: "13:00"}},
	})

	grid, err := svc.GetGrid(ctx, testUser, planID, false)
	if err != nil {
		t.Fatalf("GetGrid 应成功: %v", err)
	}
	if len(grid.Items) != 3 {
		t.Fatalf("期望 3 个条目，实际 %d", len(grid.Items))
	}
	if len(grid.Conflicts) != 1 {
		t.Fatalf("期望 1 组冲突，实际 %d", len(grid.Conflicts))
	}
	want := timetable.Conflict{A: "section:A1", B: "section:B1"}
	if grid.Conflicts[0] != want {
		t.Errorf("期望冲突 %+v，实际 %+v", want, grid.Conflicts[0])
	}
	if grid.LectureCredits != 6 || grid.WorkCredits != 1 {
		t.Errorf("学分统计不符: lecture=%d work=%d", grid.LectureCredits, grid.WorkCredits)
	}

	// 隐藏 B 后冲突消失
	svc.UpdateCourse(ctx, testUser, planID, "course-b", &dto.UpdatePlanCourseRequest{IsVisible: boolPtr(false)})
	grid, _ = svc.GetGrid(ctx, testUser, planID, false)
	if len(grid.Conflicts) != 0 || len(grid.ConflictingIDs) != 0 {
		t.Errorf("隐藏条目不应参与冲突: %+v", grid.Conflicts)
	}
}

func TestPlanService_GetGrid_PreviewReplacesPinned(t *testing.T) {
	svc, store, m := setupTestPlanService()
	seedTwoCourses(m)
	ctx := context.Background()
	planID := createPlanWithCourses(t, svc, "course-a", "course-b")
	svc.UpdateCourse(ctx, testUser, planID, "course-a", &dto.UpdatePlanCourseRequest{PinnedSectionID: strPtr("A1")})
	svc.UpdateCourse(ctx, testUser, planID, "course-b", &dto.UpdatePlanCourseRequest{PinnedSectionID: strPtr("B1")})

	saveReadySession(t, store, planID, m)

	grid, err := svc.GetGrid(ctx, testUser, planID, true)
	if err != nil {
		t.Fatalf("GetGrid 应成功: %v", err)
	}
	if !grid.Preview {
		t.Fatal("期望预览模式")
	}
	for _, it := range grid.Items {
		if strings.HasPrefix(it.ID, itemPrefixSection) {
			t.Errorf("预览时被组合覆盖的固定开班不应出现: %s", it.ID)
		}
	}
	if len(grid.Conflicts) != 0 {
		t.Errorf("预览组合本身不应产生冲突: %+v", grid.Conflicts)
	}
}

func TestPlanService_GetGrid_PreviewSkipsRemovedCourse(t *testing.T) {
	svc, store, m := setupTestPlanService()
	seedTwoCourses(m)
	ctx := context.Background()
	planID := createPlanWithCourses(t, svc, "course-a", "course-b")
	saveReadySession(t, store, planID, m)

	// 生成之后移出课程 B，预览与应用保持一致只展示仍在方案内的课程
	if err := svc.RemoveCourse(ctx, testUser, planID, "course-b"); err != nil {
		t.Fatalf("RemoveCourse 应成功: %v", err)
	}

	grid, err := svc.GetGrid(ctx, testUser, planID, true)
	if err != nil {
		t.Fatalf("GetGrid 应成功: %v", err)
	}
	if !grid.Preview {
		t.Fatal("期望预览模式")
	}
	for _, it := range grid.Items {
		if it.CourseID == "course-b" {
			t.Errorf("已移出的课程不应出现在预览中: %s", it.ID)
		}
	}
	if len(grid.Items) != 1 {
		t.Errorf("期望 1 个预览条目，实际 %d", len(grid.Items))
	}
	if grid.LectureCredits != 4 || grid.WorkCredits != 0 {
		t.Errorf("学分只统计仍在方案内的课程，期望 4/0，实际 %d/%d", grid.LectureCredits, grid.WorkCredits)
	}
}

func TestPlanService_GetGrid_PreviewWithoutSessionFallsBack(t *testing.T) {
	svc, _, m := setupTestPlanService()
	seedTwoCourses(m)
	planID := createPlanWithCourses(t, svc, "course-a")

	grid, err := svc.GetGrid(context.Background(), testUser, planID, true)
	if err != nil {
		t.Fatalf("GetGrid 应成功: %v", err)
	}
	if grid.Preview {
		t.Error("没有会话时不应处于预览模式")
	}
}

func TestPlanService_CheckSectionConflicts(t *testing.T) {
	svc, _, m := setupTestPlanService()
	seedTwoCourses(m)
	ctx := context.Background()
	planID := createPlanWithCourses(t, svc, "course-a", "course-b")
	svc.UpdateCourse(ctx, testUser, planID, "course-a", &dto.UpdatePlanCourseRequest{PinnedSectionID: strPtr("A1")})

	res, err := svc.CheckSectionConflicts(ctx, testUser, planID, &dto.CheckConflictsRequest{SectionID: "B1"})
	if err != nil {
		t.Fatalf("CheckSectionConflicts 应成功: %v", err)
	}
	if !res.HasConflict || len(res.ConflictsWith) != 1 || res.ConflictsWith[0].ID != "section:A1" {
		t.Errorf("B1 应与 A1 冲突: %+v", res)
	}

	// 同课程的另一个开班替换已固定的 A1，不与自身冲突
	res, _ = svc.CheckSectionConflicts(ctx, testUser, planID, &dto.CheckConflictsRequest{SectionID: "A2"})
	if res.HasConflict {
		t.Errorf("A2 不应与被替换的 A1 冲突: %+v", res)
	}
}

func TestPlanService_ApplyCombination(t *testing.T) {
	svc, store, m := setupTestPlanService()
	seedTwoCourses(m)
	ctx := context.Background()
	planID := createPlanWithCourses(t, svc, "course-a", "course-b")

	if _, err := svc.ApplyCombination(ctx, testUser, planID); !errors.Is(err, ErrGenerationNotFound) {
		t.Errorf("未生成时期望 ErrGenerationNotFound，实际: %v", err)
	}

	saveReadySession(t, store, planID, m)
	res, err := svc.ApplyCombination(ctx, testUser, planID)
	if err != nil {
		t.Fatalf("ApplyCombination 应成功: %v", err)
	}
	if res.Rank != 1 || res.PinnedIDs["course-a"] != "A1" || res.PinnedIDs["course-b"] != "B2" {
		t.Errorf("应用结果不符: %+v", res)
	}

	plan, _ := svc.GetPlan(ctx, testUser, planID)
	for _, c := range plan.Courses {
		if c.PinnedSectionID == nil {
			t.Errorf("课程 %s 未被固定", c.CourseID)
		}
	}
}

// saveReadySession 用两门课程的真实搜索结果写入 ready 会话
func saveReadySession(t *testing.T, store SessionStore, planID string, m *mockRepos) {
	t.Helper()
	courses := []timetable.Course{}
	for _, id := range []string{"course-a", "course-b"} {
		c, err := toCourse(m.catalog.courses[id])
		if err != nil {
			t.Fatalf("toCourse 失败: %v", err)
		}
		courses = append(courses, c)
	}
	ranked := timetable.Rank(timetable.GenerateCombinations(courses, 0))
	sess := &CombinationSession{PlanID: planID, UserID: testUser, Generation: 1, Status: SessionReady, Limit: 100, Stats: ranked.Stats}
	sess.Browser.OnNewRankedList(ranked.Ranked)
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("保存会话失败: %v", err)
	}
}
