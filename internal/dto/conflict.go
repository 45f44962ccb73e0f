package dto

import "grade-planner/backend/internal/timetable"

// ConflictItemRequest 无状态冲突检测的输入条目
type ConflictItemRequest struct {
	ID      string        `json:"id" binding:"required,max=100"`
	Label   string        `json:"label" binding:"omitempty,max=100"`
	Visible *bool         `json:"visible"`
	Slots   []SlotRequest `json:"slots" binding:"dive"`
}

// DetectConflictsRequest 无状态冲突检测请求
type DetectConflictsRequest struct {
	Items []ConflictItemRequest `json:"items" binding:"required,max=200,dive"`
}

// DetectConflictsResponse 冲突检测结果
type DetectConflictsResponse struct {
	Conflicts      []timetable.Conflict `json:"conflicts"`
	ConflictingIDs []string             `json:"conflicting_ids"`
}
