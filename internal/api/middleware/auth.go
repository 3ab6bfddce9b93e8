package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pgss/backend/internal/access"
	apperrors "pgss/backend/pkg/errors"
	"pgss/backend/pkg/jwt"
	"pgss/backend/pkg/response"
)

// CallerResolver 解析请求身份并查询 Token 吊销状态，由 AuthService 实现
type CallerResolver interface {
	ResolveCaller(ctx context.Context, userID string) (*access.Caller, error)
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token，
// 校验黑名单后按数据库记录解析 Caller（角色与归属关系以库中为准）
func JWTAuth(jwtMgr *jwt.Manager, resolver CallerResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		ctx := c.Request.Context()

		// Redis 不可用时降级放行
		revoked, err := resolver.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			logger.Warn("查询 Token 黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
		} else if revoked {
			response.Unauthorized(c, 10002, "Token 已失效")
			c.Abort()
			return
		}

		caller, err := resolver.ResolveCaller(ctx, claims.UserID)
		if err != nil {
			if e, ok := apperrors.As(err); ok {
				response.Error(c, apperrors.HTTPStatus(e.Kind), e.Code, e.Message)
			} else {
				c.Error(err)
				response.InternalError(c)
			}
			c.Abort()
			return
		}

		// 将用户信息注入上下文
		c.Set("caller", caller)
		c.Set("user_id", caller.UserID)
		c.Set("role", caller.Role)
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("role")
		if userRole == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}
