package service

import (
	"fmt"

	"grade-planner/backend/internal/dto"
	"grade-planner/backend/internal/model"
	"grade-planner/backend/internal/timetable"
)

// ── model → 引擎类型 ──

// toTimeSlot 数据库 TIME 列可能带秒（08:00:00），ParseClock 两种格式都接受
func toTimeSlot(day int, start, end string) (timetable.TimeSlot, error) {
	slot, err := timetable.NewTimeSlot(day, start, end)
	if err != nil {
		return timetable.TimeSlot{}, fmt.Errorf("%s %s-%s: %w", timetable.Weekday(day), start, end, err)
	}
	return slot, nil
}

func toSection(s *model.Section) (timetable.Section, error) {
	slots := make([]timetable.TimeSlot, 0, len(s.Slots))
	for _, sl := range s.Slots {
		ts, err := toTimeSlot(sl.DayOfWeek, sl.StartTime, sl.EndTime)
		if err != nil {
			return timetable.Section{}, fmt.Errorf("开班 %s: %w", s.Code, err)
		}
		slots = append(slots, ts)
	}
	return timetable.Section{
		ID:       s.SectionID,
		CourseID: s.CourseID,
		Code:     s.Code,
		Slots:    slots,
		Meta: timetable.SectionMeta{
			Professors: []string(s.Professors),
			Notes:      s.Notes,
		},
	}, nil
}

func toCourse(c *model.Course) (timetable.Course, error) {
	sections := make([]timetable.Section, 0, len(c.Sections))
	for i := range c.Sections {
		sec, err := toSection(&c.Sections[i])
		if err != nil {
			return timetable.Course{}, fmt.Errorf("课程 %s: %w", c.Code, err)
		}
		sections = append(sections, sec)
	}
	return timetable.Course{
		ID:             c.CourseID,
		Code:           c.Code,
		Name:           c.Name,
		LectureCredits: c.LectureCredits,
		WorkCredits:    c.WorkCredits,
		Sections:       sections,
	}, nil
}

func customItemSlots(item *model.CustomItem) ([]timetable.TimeSlot, error) {
	slots := make([]timetable.TimeSlot, 0, len(item.Slots))
	for _, sl := range item.Slots {
		ts, err := toTimeSlot(sl.DayOfWeek, sl.StartTime, sl.EndTime)
		if err != nil {
			return nil, fmt.Errorf("时间块 %s: %w", item.Label, err)
		}
		slots = append(slots, ts)
	}
	return slots, nil
}

// ── 引擎类型 → model ──

func toCustomItemSlotModels(slots []timetable.TimeSlot) []model.CustomItemSlot {
	out := make([]model.CustomItemSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, model.CustomItemSlot{
			DayOfWeek: int(s.Day),
			StartTime: s.Start.String(),
			EndTime:   s.End.String(),
		})
	}
	return out
}

// ── 响应 ──

func toSectionResponse(sec timetable.Section) dto.SectionResponse {
	professors := sec.Meta.Professors
	if professors == nil {
		professors = []string{}
	}
	return dto.SectionResponse{
		ID:         sec.ID,
		Code:       sec.Code,
		Professors: professors,
		Notes:      sec.Meta.Notes,
		Slots:      sec.Slots,
	}
}

func toCourseResponse(c timetable.Course) *dto.CourseResponse {
	sections := make([]dto.SectionResponse, 0, len(c.Sections))
	for _, sec := range c.Sections {
		sections = append(sections, toSectionResponse(sec))
	}
	return &dto.CourseResponse{
		ID:             c.ID,
		Code:           c.Code,
		Name:           c.Name,
		LectureCredits: c.LectureCredits,
		WorkCredits:    c.WorkCredits,
		Sections:       sections,
	}
}

func toPlanSummary(p *model.Plan) dto.PlanSummaryResponse {
	return dto.PlanSummaryResponse{
		ID:        p.PlanID,
		Name:      p.Name,
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toCustomItemResponse(item *model.CustomItem, slots []timetable.TimeSlot) dto.CustomItemResponse {
	return dto.CustomItemResponse{
		ID:        item.CustomItemID,
		Label:     item.Label,
		Color:     item.Color,
		IsVisible: item.IsVisible,
		Slots:     slots,
	}
}
