package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pgss/backend/pkg/errors"
	"pgss/backend/pkg/response"
)

// handleError 业务错误按分类映射状态码；未知错误挂到上下文交由日志中间件记录，统一返回 500
func handleError(c *gin.Context, err error) {
	if e, ok := apperrors.As(err); ok {
		response.Error(c, apperrors.HTTPStatus(e.Kind), e.Code, e.Message)
		return
	}
	c.Error(err)
	response.InternalError(c)
}

// bindError 参数绑定失败
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}
