package dto

// ── 学生模块 DTO ──

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	PaginationRequest
	SupervisorID string `form:"supervisorId" binding:"omitempty,uuid"`
	Search       string `form:"search"       binding:"omitempty,max=100"`
	Status       string `form:"status"       binding:"omitempty,oneof=active inactive suspended"`
	Unassigned   bool   `form:"unassigned"`
}

// UpdateStudentRequest 更新学生档案请求
type UpdateStudentRequest struct {
	Program                *string `json:"program"                  binding:"omitempty,max=100"`
	ResearchTitle          *string `json:"research_title"           binding:"omitempty,max=255"`
	StartDate              *string `json:"start_date"               binding:"omitempty,datetime=2006-01-02"`
	ExpectedCompletionDate *string `json:"expected_completion_date" binding:"omitempty,datetime=2006-01-02"`
}

// AssignSupervisorRequest 分配导师请求，supervisor_id 为 null 表示解除分配
type AssignSupervisorRequest struct {
	SupervisorID *string `json:"supervisor_id" binding:"omitempty,uuid"`
}

// StudentResponse 学生档案响应
type StudentResponse struct {
	ID                     string              `json:"id"`
	UserID                 string              `json:"user_id"`
	Name                   string              `json:"name"`
	Email                  string              `json:"email"`
	Phone                  string              `json:"phone,omitempty"`
	Status                 string              `json:"status"`
	Program                string              `json:"program"`
	ResearchTitle          string              `json:"research_title,omitempty"`
	StartDate              string              `json:"start_date,omitempty"`
	ExpectedCompletionDate string              `json:"expected_completion_date,omitempty"`
	OverallProgress        int                 `json:"overall_progress"`
	Supervisor             *SupervisorBriefDTO `json:"supervisor,omitempty"`
}

// SupervisorBriefDTO 导师简要信息
type SupervisorBriefDTO struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// StudentProgressResponse 学生进度详情
type StudentProgressResponse struct {
	StudentID        string              `json:"student_id"`
	Scheme           string              `json:"scheme"`
	OverallProgress  int                 `json:"overall_progress"`
	Status           string              `json:"status"`
	Milestones       []MilestoneResponse `json:"milestones"`
	SubmittedWeeks   int64               `json:"submitted_weeks"`
	TotalWeeks       int                 `json:"total_weeks"`
	CompletedCount   int                 `json:"completed_milestones"`
	PendingFeedback  int64               `json:"pending_feedback"`
	UpcomingMeetings int64               `json:"upcoming_meetings"`
}
