package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"grade-planner/backend/config"
	"grade-planner/backend/internal/dto"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, PlanService, *mockRepos) {
	repo, m := newMockRepository()
	logger := zap.NewNop()
	plans := NewPlanService(repo, NewSessionStore(nil, 0, logger), config.DefaultPalette, logger)
	cfg := &config.PlannerConfig{TermStart: "2025-09-01", TermWeeks: 16}
	return NewExportService(cfg, plans, logger), plans, m
}

// seedConflictingPlan A1 与 B1 在周一 09:00-10:00 重叠，另有一个不冲突的自定义时间块
func seedConflictingPlan(t *testing.T, plans PlanService, m *mockRepos) string {
	t.Helper()
	seedTwoCourses(m)
	ctx := context.Background()
	planID := createPlanWithCourses(t, plans, "course-a", "course-b")
	plans.UpdateCourse(ctx, testUser, planID, "course-a", &dto.UpdatePlanCourseRequest{PinnedSectionID: strPtr("A1")})
	plans.UpdateCourse(ctx, testUser, planID, "course-b", &dto.UpdatePlanCourseRequest{PinnedSectionID: strPtr("B1")})
	plans.AddCustomItem(ctx, testUser, planID, &dto.CustomItemRequest{
		Label: "社团",
		Slots: []dto.SlotRequest{{DayOfWeek: 6, Start: "14:00", End: "16:00"}},
	})
	return planID
}

// ── ExportICS ──

func TestExportService_ExportICS(t *testing.T) {
	svc, plans, m := setupTestExportService()
	planID := seedConflictingPlan(t, plans, m)

	data, filename, err := svc.ExportICS(context.Background(), testUser, planID)
	if err != nil {
		t.Fatalf("ExportICS 应成功: %v", err)
	}
	if filename != "方案 1.ics" {
		t.Errorf("期望文件名 方案 1.ics，实际 %s", filename)
	}

	out := string(data)
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 3 {
		t.Errorf("期望 3 个事件，实际 %d", n)
	}
	if n := strings.Count(out, "RRULE:FREQ=WEEKLY;COUNT=16"); n != 3 {
		t.Errorf("期望 3 条每周重复规则，实际 %d", n)
	}
	if !strings.Contains(out, "SUMMARY:MAC0110 A1") || !strings.Contains(out, "SUMMARY:社团") {
		t.Error("事件标题缺失")
	}
	if n := strings.Count(out, "DESCRIPTION:"); n != 2 {
		t.Errorf("只有冲突的两个开班带说明，期望 2，实际 %d", n)
	}
}

func TestExportService_ExportICS_Empty(t *testing.T) {
	svc, plans, m := setupTestExportService()
	seedTwoCourses(m)
	// 课程未固定开班，网格为空
	planID := createPlanWithCourses(t, plans, "course-a")

	_, _, err := svc.ExportICS(context.Background(), testUser, planID)
	if !errors.Is(err, ErrExportEmpty) {
		t.Errorf("期望 ErrExportEmpty，实际: %v", err)
	}
}

func TestExportService_ExportICS_NotOwner(t *testing.T) {
	svc, plans, m := setupTestExportService()
	planID := seedConflictingPlan(t, plans, m)

	_, _, err := svc.ExportICS(context.Background(), "intruder", planID)
	if !errors.Is(err, ErrPlanNotOwner) {
		t.Errorf("期望 ErrPlanNotOwner，实际: %v", err)
	}
}

// ── ExportExcel ──

func TestExportService_ExportExcel(t *testing.T) {
	svc, plans, m := setupTestExportService()
	planID := seedConflictingPlan(t, plans, m)

	data, filename, err := svc.ExportExcel(context.Background(), testUser, planID)
	if err != nil {
		t.Fatalf("ExportExcel 应成功: %v", err)
	}
	if filename != "方案 1.xlsx" {
		t.Errorf("期望文件名 方案 1.xlsx，实际 %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("打开 Excel 失败: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "课表" || sheets[1] != "条目" {
		t.Fatalf("工作表不符: %v", sheets)
	}

	// 第 2 行 08:00-08:30，第 4 行 09:00-09:30
	if v, _ := f.GetCellValue("课表", "A2"); v != "08:00-08:30" {
		t.Errorf("A2 期望 08:00-08:30，实际 %q", v)
	}
	if v, _ := f.GetCellValue("课表", "B2"); v != "MAC0110 A1" {
		t.Errorf("B2 期望 MAC0110 A1，实际 %q", v)
	}
	if v, _ := f.GetCellValue("课表", "B4"); v != "MAC0110 A1\nMAC0121 B1" {
		t.Errorf("B4 期望两门课重叠，实际 %q", v)
	}

	if v, _ := f.GetCellValue("条目", "A2"); v != "MAC0110 A1" {
		t.Errorf("条目 A2 期望 MAC0110 A1，实际 %q", v)
	}
	if v, _ := f.GetCellValue("条目", "E2"); v != "是" {
		t.Errorf("冲突开班应标记为 是，实际 %q", v)
	}
	if v, _ := f.GetCellValue("条目", "E4"); v != "" {
		t.Errorf("自定义时间块不冲突，实际 %q", v)
	}
}

func TestGridBounds(t *testing.T) {
	_, plans, m := setupTestExportService()
	planID := seedConflictingPlan(t, plans, m)
	grid, _ := plans.GetGrid(context.Background(), testUser, planID, false)

	first, last := gridBounds(grid.Items)
	if first.String() != "08:00" || last.String() != "18:00" {
		t.Errorf("期望默认范围 08:00-18:00，实际 %s-%s", first, last)
	}
}
