package dto

// ── 里程碑模块 DTO ──

// MilestoneListRequest 里程碑列表查询参数
type MilestoneListRequest struct {
	StudentID string `form:"studentId" binding:"omitempty,uuid"`
	Status    string `form:"status"    binding:"omitempty,oneof=pending in-progress completed"`
}

// CreateMilestoneRequest 创建里程碑请求
type CreateMilestoneRequest struct {
	StudentID   string `json:"student_id"  binding:"required,uuid"`
	Name        string `json:"name"        binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"omitempty,max=5000"`
	Progress    int    `json:"progress"    binding:"progress"`
	DueDate     string `json:"due_date"    binding:"omitempty,datetime=2006-01-02"`
}

// UpdateMilestoneRequest 更新里程碑请求
type UpdateMilestoneRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Progress    *int    `json:"progress"    binding:"omitempty,progress"`
	DueDate     *string `json:"due_date"    binding:"omitempty,datetime=2006-01-02"`
}

// MilestoneResponse 里程碑响应
type MilestoneResponse struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Progress    int    `json:"progress"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// MilestoneMutationResponse 里程碑写操作响应（附带重算后的总进度）
type MilestoneMutationResponse struct {
	Milestone       *MilestoneResponse `json:"milestone,omitempty"`
	OverallProgress int                `json:"overall_progress"`
}
