package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role   string `form:"role"   binding:"omitempty,oneof=student supervisor administrator"`
	Status string `form:"status" binding:"omitempty,oneof=active inactive suspended"`
	Search string `form:"search" binding:"omitempty,max=100"`
}

// CreateUserRequest 管理员创建用户请求
// 角色为 student / supervisor 时同时创建档案
type CreateUserRequest struct {
	Email    string `json:"email"    binding:"required,email,max=255"`
	Password string `json:"password" binding:"omitempty,min=8,max=64"`
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Phone    string `json:"phone"    binding:"omitempty,phone"`
	Role     string `json:"role"     binding:"required,oneof=student supervisor administrator"`
	Status   string `json:"status"   binding:"omitempty,oneof=active inactive suspended"`

	Program                string  `json:"program"                  binding:"omitempty,max=100"`
	ResearchTitle          string  `json:"research_title"           binding:"omitempty,max=255"`
	StartDate              string  `json:"start_date"               binding:"omitempty,datetime=2006-01-02"`
	ExpectedCompletionDate string  `json:"expected_completion_date" binding:"omitempty,datetime=2006-01-02"`
	SupervisorID           *string `json:"supervisor_id"            binding:"omitempty,uuid"`

	Department    string `json:"department"     binding:"omitempty,max=100"`
	ResearchAreas string `json:"research_areas" binding:"omitempty,max=2000"`
	Capacity      *int   `json:"capacity"       binding:"omitempty,min=0,max=100"`
}

// UpdateUserRequest 更新用户请求（PATCH，仅更新非 nil 字段）
type UpdateUserRequest struct {
	Email  *string `json:"email"  binding:"omitempty,email,max=255"`
	Name   *string `json:"name"   binding:"omitempty,min=2,max=100"`
	Phone  *string `json:"phone"  binding:"omitempty,phone"`
	Status *string `json:"status" binding:"omitempty,oneof=active inactive suspended"`
	Avatar *string `json:"avatar" binding:"omitempty,url,max=500"`
}

// CreateUserResponse 创建用户响应
// 未指定密码时返回系统生成的临时密码（仅本次返回）
type CreateUserResponse struct {
	User         UserResponse `json:"user"`
	TempPassword string       `json:"temp_password,omitempty"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	Avatar       string `json:"avatar,omitempty"`
	StudentID    string `json:"student_id,omitempty"`
	SupervisorID string `json:"supervisor_id,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// ImportStudentResponse 批量导入学生响应
type ImportStudentResponse struct {
	Total   int                  `json:"total"`
	Success int                  `json:"success"`
	Failed  int                  `json:"failed"`
	Errors  []ImportStudentError `json:"errors,omitempty"`

	// 未提供初始密码的行由系统生成临时密码，仅在本次响应中返回
	Credentials []ImportedCredential `json:"credentials,omitempty"`
}

// ImportedCredential 导入成功行的登录凭据
type ImportedCredential struct {
	Row          int    `json:"row"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// ImportStudentError 导入错误详情
type ImportStudentError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
