package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BodyLimit 请求体大小限制中间件
// maxBytes: 允许的最大请求体字节数（如 1<<20 = 1MB）
// skipMultipart 为 true 时跳过 multipart 请求，由上传路由单独挂载更大的限制
// 超限错误在绑定时以 *http.MaxBytesError 返回，由 Handler 映射为 413
func BodyLimit(maxBytes int64, skipMultipart bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || maxBytes <= 0 {
			c.Next()
			return
		}
		if skipMultipart && strings.HasPrefix(c.ContentType(), "multipart/") {
			c.Next()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
