package dto

// ── 导师模块 DTO ──

// SupervisorListRequest 导师列表查询参数
type SupervisorListRequest struct {
	PaginationRequest
	Search        string `form:"search"    binding:"omitempty,max=100"`
	Department    string `form:"department" binding:"omitempty,max=100"`
	AvailableOnly bool   `form:"available"`
}

// UpdateSupervisorRequest 更新导师档案请求
type UpdateSupervisorRequest struct {
	Department    *string `json:"department"     binding:"omitempty,max=100"`
	ResearchAreas *string `json:"research_areas" binding:"omitempty,max=2000"`
	Capacity      *int    `json:"capacity"       binding:"omitempty,min=0,max=100"`
	Version       *int    `json:"version"        binding:"omitempty,min=1"` // 乐观锁版本，可选
}

// SupervisorResponse 导师档案响应
type SupervisorResponse struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Status          string `json:"status"`
	Department      string `json:"department"`
	ResearchAreas   string `json:"research_areas,omitempty"`
	Capacity        int    `json:"capacity"`
	CurrentStudents int64  `json:"current_students"`
	Version         int    `json:"version"`
}
