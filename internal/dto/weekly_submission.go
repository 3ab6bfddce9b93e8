package dto

// ── 周报模块 DTO ──

// WeeklySubmissionListRequest 周报列表查询参数
type WeeklySubmissionListRequest struct {
	StudentID string `form:"studentId" binding:"omitempty,uuid"`
	Week      int    `form:"week"      binding:"omitempty,min=1"`
	Status    string `form:"status"    binding:"omitempty,oneof=pending submitted"`
}

// SubmitWeeklyRequest 学生提交周报（按 学生+周次 幂等）
type SubmitWeeklyRequest struct {
	WeekNumber  int      `json:"week_number"  binding:"required,min=1"`
	Description string   `json:"description"  binding:"omitempty,max=10000"`
	DocumentIDs []string `json:"document_ids" binding:"omitempty,max=20,dive,uuid"`
}

// FeedbackRequest 导师反馈请求
type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required,min=1,max=10000"`
}

// WeeklySubmissionResponse 周报响应
type WeeklySubmissionResponse struct {
	ID                 string             `json:"id"`
	StudentID          string             `json:"student_id"`
	WeekNumber         int                `json:"week_number"`
	Status             string             `json:"status"`
	Description        string             `json:"description,omitempty"`
	SupervisorFeedback string             `json:"supervisor_feedback,omitempty"`
	FeedbackAt         string             `json:"feedback_at,omitempty"`
	SubmittedAt        string             `json:"submitted_at,omitempty"`
	Documents          []DocumentResponse `json:"documents,omitempty"`
	OverallProgress    *int               `json:"overall_progress,omitempty"`
}
