package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"pgss/backend/internal/access"
	"pgss/backend/pkg/response"
)

// 上下文键，由 JWTAuth 中间件写入
const (
	CallerKey   = "caller"
	UserIDKey   = "user_id"
	RoleKey     = "role"
	TokenJTIKey = "token_jti"
	TokenExpKey = "token_exp"
)

// MustGetCaller 从 Gin 上下文中安全提取当前请求身份。
// 如果 JWT 中间件未注入 caller，写入 401 响应并返回 false，调用方应直接 return。
func MustGetCaller(c *gin.Context) (*access.Caller, bool) {
	v, exists := c.Get(CallerKey)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	caller, ok := v.(*access.Caller)
	if !ok || caller == nil || caller.UserID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return nil, false
	}
	return caller, true
}

// tokenMeta 当前 Access Token 的 jti 与过期时间，登出时加入黑名单
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString(TokenJTIKey)
	exp, _ := c.Get(TokenExpKey)
	t, _ := exp.(time.Time)
	return jti, t
}
