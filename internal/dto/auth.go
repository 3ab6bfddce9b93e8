package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 自助注册请求（仅学生与导师）
type RegisterRequest struct {
	Email    string `json:"email"    binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Phone    string `json:"phone"    binding:"omitempty,phone"`
	Role     string `json:"role"     binding:"required,oneof=student supervisor"`

	// 学生档案
	Program                string `json:"program"                  binding:"omitempty,max=100"`
	ResearchTitle          string `json:"research_title"           binding:"omitempty,max=255"`
	StartDate              string `json:"start_date"               binding:"omitempty,datetime=2006-01-02"`
	ExpectedCompletionDate string `json:"expected_completion_date" binding:"omitempty,datetime=2006-01-02"`

	// 导师档案
	Department    string `json:"department"     binding:"omitempty,max=100"`
	ResearchAreas string `json:"research_areas" binding:"omitempty,max=2000"`
	Capacity      *int   `json:"capacity"       binding:"omitempty,min=0,max=100"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=64"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// LogoutRequest 登出请求，refresh_token 可选，提供时一并吊销
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
