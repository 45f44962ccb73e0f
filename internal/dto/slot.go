package dto

import "grade-planner/backend/internal/timetable"

// SlotRequest 时间段输入（星期 1-6，时间 HH:MM）
type SlotRequest struct {
	DayOfWeek int    `json:"day_of_week" binding:"required,min=1,max=6"`
	Start     string `json:"start" binding:"required"`
	End       string `json:"end" binding:"required"`
}

// ToTimeSlot 解析并校验，错误包装 timetable.ErrInvalidTimeSlot
func (r SlotRequest) ToTimeSlot() (timetable.TimeSlot, error) {
	return timetable.NewTimeSlot(r.DayOfWeek, r.Start, r.End)
}

// ToTimeSlots 批量转换，遇到第一个非法时间段即返回
func ToTimeSlots(reqs []SlotRequest) ([]timetable.TimeSlot, error) {
	slots := make([]timetable.TimeSlot, 0, len(reqs))
	for _, r := range reqs {
		s, err := r.ToTimeSlot()
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}
