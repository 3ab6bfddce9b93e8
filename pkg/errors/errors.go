package errors

import (
	"errors"
	"net/http"
)

// Kind 业务错误分类，决定 HTTP 状态码
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindCapacityExceeded
)

// Error 带分类与业务码的错误
// Service 层以包级变量声明哨兵错误，Handler 层统一映射为响应
type Error struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

// New 创建业务错误
func New(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = New(KindConflict, 10009, "数据已被其他操作修改，请刷新后重试")

// As 提取错误链中的业务错误
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf 返回错误分类，非业务错误视为 KindUnexpected
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnexpected
}

// HTTPStatus 错误分类对应的 HTTP 状态码
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindCapacityExceeded:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
