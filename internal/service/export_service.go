package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"grade-planner/backend/config"
	"grade-planner/backend/internal/timetable"
)

// ExportService 方案导出业务接口
//
//   - 只导出可见条目（固定的开班与自定义时间块），不含预览组合
//   - ICS：每个时间段一个每周重复事件，从学期起始日之后的首个对应星期开始
//   - Excel：周一至周六 × 半小时行的网格，冲突单元格标红
type ExportService interface {
	ExportICS(ctx context.Context, userID, planID string) ([]byte, string, error)
	ExportExcel(ctx context.Context, userID, planID string) ([]byte, string, error)
}

type exportService struct {
	plans  PlanService
	cfg    *config.PlannerConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.PlannerConfig, plans PlanService, logger *zap.Logger) ExportService {
	return &exportService{plans: plans, cfg: cfg, now: time.Now, logger: logger}
}

// exportData 导出所需的方案名称、可见条目与冲突
type exportData struct {
	name   string
	items  []timetable.ScheduleItem
	report timetable.ConflictReport
}

func (s *exportService) load(ctx context.Context, userID, planID string) (*exportData, error) {
	plan, err := s.plans.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	grid, err := s.plans.GetGrid(ctx, userID, planID, false)
	if err != nil {
		return nil, err
	}

	visible := make([]timetable.ScheduleItem, 0, len(grid.Items))
	for _, it := range grid.Items {
		if it.Visible && len(it.Slots) > 0 {
			visible = append(visible, it)
		}
	}
	if len(visible) == 0 {
		return nil, ErrExportEmpty
	}

	return &exportData{
		name:   plan.Name,
		items:  visible,
		report: timetable.DetectConflicts(visible),
	}, nil
}

// ════════════════════════════════════════════════════════════
// ExportICS
// ════════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context, userID, planID string) ([]byte, string, error) {
	data, err := s.load(ctx, userID, planID)
	if err != nil {
		return nil, "", err
	}

	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		loc = time.Local
	}
	termStart := s.termStart(loc)
	weeks := s.cfg.TermWeeks
	if weeks <= 0 {
		weeks = 18
	}
	stamp := s.now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//grade-planner//plan export//ZH")
	cal.SetXWRCalName(data.name)
	cal.SetXWRTimezone(loc.String())

	for _, it := range data.items {
		for i, slot := range it.Slots {
			day := firstOccurrence(termStart, slot.Day)
			start := day.Add(time.Duration(slot.Start) * time.Minute)
			end := day.Add(time.Duration(slot.End) * time.Minute)

			evt := cal.AddEvent(fmt.Sprintf("%s-%d-%s@grade-planner", strings.ReplaceAll(it.ID, ":", "-"), i, planID))
			evt.SetDtStampTime(stamp)
			evt.SetStartAt(start)
			evt.SetEndAt(end)
			evt.SetSummary(it.Label)
			evt.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
			if data.report.Has(it.ID) {
				evt.SetDescription("注意：与方案中其他条目时间冲突")
			}
		}
	}

	return []byte(cal.Serialize()), data.name + ".ics", nil
}

// termStart 配置的学期起始日；未配置时取下一个周一
func (s *exportService) termStart(loc *time.Location) time.Time {
	if s.cfg.TermStart != "" {
		if t, err := time.ParseInLocation("2006-01-02", s.cfg.TermStart, loc); err == nil {
			return t
		}
	}
	now := s.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	offset := (int(time.Monday) - int(today.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return today.AddDate(0, 0, offset)
}

// firstOccurrence from 当天或之后第一个 day 的零点
func firstOccurrence(from time.Time, day timetable.Weekday) time.Time {
	offset := (int(day) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}

// ════════════════════════════════════════════════════════════
// ExportExcel
// ════════════════════════════════════════════════════════════
//
// Sheet "课表"：A 列为时间，B-G 列为周一至周六，每行半小时
// Sheet "条目"：逐条列出时间段与冲突标记

const excelRowMinutes = 30

func (s *exportService) ExportExcel(ctx context.Context, userID, planID string) ([]byte, string, error) {
	data, err := s.load(ctx, userID, planID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const gridSheet = "课表"
	const listSheet = "条目"
	idx, _ := f.NewSheet(gridSheet)
	f.SetActiveSheet(idx)
	f.NewSheet(listSheet)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	conflictStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#9C0006"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	// ── 网格 ──
	first, last := gridBounds(data.items)

	f.SetColWidth(gridSheet, "A", "A", 14)
	f.SetColWidth(gridSheet, "B", "G", 20)
	f.SetCellValue(gridSheet, "A1", "时间")
	for d := timetable.Monday; d <= timetable.Saturday; d++ {
		f.SetCellValue(gridSheet, cell(colName(int(d)), 1), d.String())
	}
	f.SetCellStyle(gridSheet, "A1", "G1", headerStyle)

	row := 2
	for t := first; t < last; t += excelRowMinutes {
		f.SetCellValue(gridSheet, cell("A", row), fmt.Sprintf("%s-%s", t, t+excelRowMinutes))
		for d := timetable.Monday; d <= timetable.Saturday; d++ {
			window := timetable.TimeSlot{Day: d, Start: t, End: t + excelRowMinutes}
			var labels []string
			conflict := false
			for _, it := range data.items {
				for _, sl := range it.Slots {
					if timetable.Overlaps(sl, window) {
						labels = append(labels, it.Label)
						conflict = conflict || data.report.Has(it.ID)
						break
					}
				}
			}
			if len(labels) == 0 {
				continue
			}
			ref := cell(colName(int(d)), row)
			f.SetCellValue(gridSheet, ref, strings.Join(labels, "\n"))
			style := cellStyle
			if conflict && len(labels) > 1 {
				style = conflictStyle
			}
			f.SetCellStyle(gridSheet, ref, ref, style)
		}
		row++
	}

	// ── 条目列表 ──
	f.SetColWidth(listSheet, "A", "A", 24)
	f.SetColWidth(listSheet, "B", "E", 12)
	for i, h := range []string{"名称", "类型", "星期", "时间", "冲突"} {
		f.SetCellValue(listSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(listSheet, "A1", "E1", headerStyle)

	row = 2
	for _, it := range data.items {
		kind := "课程"
		if it.Kind == timetable.ItemKindCustom {
			kind = "自定义"
		}
		for _, sl := range it.Slots {
			f.SetCellValue(listSheet, cell("A", row), it.Label)
			f.SetCellValue(listSheet, cell("B", row), kind)
			f.SetCellValue(listSheet, cell("C", row), sl.Day.String())
			f.SetCellValue(listSheet, cell("D", row), fmt.Sprintf("%s-%s", sl.Start, sl.End))
			if data.report.Has(it.ID) {
				f.SetCellValue(listSheet, cell("E", row), "是")
				ref := cell("E", row)
				f.SetCellStyle(listSheet, ref, ref, conflictStyle)
			}
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf.Bytes(), data.name + ".xlsx", nil
}

// gridBounds 覆盖所有条目的起止时间，对齐到半小时；至少覆盖 08:00-18:00
func gridBounds(items []timetable.ScheduleItem) (timetable.Clock, timetable.Clock) {
	first := timetable.Clock(8 * 60)
	last := timetable.Clock(18 * 60)
	for _, it := range items {
		for _, sl := range it.Slots {
			first = min(first, sl.Start)
			last = max(last, sl.End)
		}
	}
	first -= first % excelRowMinutes
	if rem := last % excelRowMinutes; rem != 0 {
		last += excelRowMinutes - rem
	}
	return first, last
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

