package dto

import "grade-planner/backend/internal/timetable"

// SectionResponse 开班信息
type SectionResponse struct {
	ID         string               `json:"id"`
	Code       string               `json:"code"`
	Professors []string             `json:"professors"`
	Notes      string               `json:"notes,omitempty"`
	Slots      []timetable.TimeSlot `json:"slots"`
}

// CourseResponse 课程详情
type CourseResponse struct {
	ID             string            `json:"id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	LectureCredits int               `json:"lecture_credits"`
	WorkCredits    int               `json:"work_credits"`
	Sections       []SectionResponse `json:"sections"`
}
