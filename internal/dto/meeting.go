package dto

import "time"

// ── 会议模块 DTO ──

// MeetingListRequest 会议列表查询参数
type MeetingListRequest struct {
	StudentID    string `form:"studentId"    binding:"omitempty,uuid"`
	SupervisorID string `form:"supervisorId" binding:"omitempty,uuid"`
	Status       string `form:"status"       binding:"omitempty,oneof=pending confirmed cancelled"`
	Upcoming     bool   `form:"upcoming"`
}

// CreateMeetingRequest 创建会议请求
// 学生发起时 student_id 可省略（取自身）；导师发起时 student_id 必填
type CreateMeetingRequest struct {
	StudentID       string    `json:"student_id"       binding:"omitempty,uuid"`
	Title           string    `json:"title"            binding:"required,min=1,max=200"`
	Agenda          string    `json:"agenda"           binding:"omitempty,max=5000"`
	ScheduledAt     time.Time `json:"scheduled_at"     binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	Type            string    `json:"type"             binding:"required,oneof=online in-person"`
	Location        string    `json:"location"         binding:"omitempty,max=255"`
}

// UpdateMeetingRequest 更新会议请求
type UpdateMeetingRequest struct {
	Status          *string    `json:"status"           binding:"omitempty,oneof=pending confirmed cancelled"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	Location        *string    `json:"location"         binding:"omitempty,max=255"`
	Notes           *string    `json:"notes"            binding:"omitempty,max=10000"`
	Agenda          *string    `json:"agenda"           binding:"omitempty,max=5000"`
}

// MeetingResponse 会议响应
type MeetingResponse struct {
	ID              string `json:"id"`
	StudentID       string `json:"student_id"`
	StudentName     string `json:"student_name,omitempty"`
	SupervisorID    string `json:"supervisor_id"`
	SupervisorName  string `json:"supervisor_name,omitempty"`
	RequestedBy     string `json:"requested_by"`
	Title           string `json:"title"`
	Agenda          string `json:"agenda,omitempty"`
	ScheduledAt     string `json:"scheduled_at"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	Type            string `json:"type"`
	Location        string `json:"location,omitempty"`
	MeetingLink     string `json:"meeting_link,omitempty"`
	Notes           string `json:"notes,omitempty"`
}
