// Package access 实现按角色与归属关系的资源访问判定，以及列表查询的范围收窄。
//
// 规则：
//   - administrator 不受限制
//   - supervisor 仅可访问 SupervisorID 与自身导师档案一致的资源，或自己上传的资源
//   - student 仅可访问归属自己的资源；导师上传给自己的资源只读
package access

import (
	apperrors "pgss/backend/pkg/errors"
)

// Action 访问动作
type Action int

const (
	Read Action = iota
	Write
)

const (
	roleStudent       = "student"
	roleSupervisor    = "supervisor"
	roleAdministrator = "administrator"
)

// ErrForbidden 归属校验失败
var ErrForbidden = apperrors.New(apperrors.KindForbidden, 10003, "无权访问该资源")

// Caller 当前请求的身份，由认证中间件依据数据库记录解析
type Caller struct {
	UserID               string
	Role                 string
	StudentID            string // 学生档案 ID（仅 student）
	SupervisorID         string // 导师档案 ID（仅 supervisor）
	AssignedSupervisorID string // 学生当前导师档案 ID（仅 student，可为空）
}

func (c *Caller) IsAdmin() bool      { return c.Role == roleAdministrator }
func (c *Caller) IsSupervisor() bool { return c.Role == roleSupervisor }
func (c *Caller) IsStudent() bool    { return c.Role == roleStudent }

// Resource 被访问资源的归属信息，空串表示不适用
type Resource struct {
	StudentID              string
	SupervisorID           string
	UploadedByStudentID    string
	UploadedBySupervisorID string
}

// Allowed 判定 caller 能否对资源执行 action
func Allowed(c *Caller, r Resource, action Action) bool {
	if c == nil {
		return false
	}

	switch c.Role {
	case roleAdministrator:
		return true

	case roleSupervisor:
		if c.SupervisorID == "" {
			return false
		}
		return r.SupervisorID == c.SupervisorID || r.UploadedBySupervisorID == c.SupervisorID

	case roleStudent:
		if c.StudentID == "" {
			return false
		}
		if r.StudentID == c.StudentID || r.UploadedByStudentID == c.StudentID {
			return true
		}
		// 当前导师上传的资源对学生只读
		return action == Read &&
			c.AssignedSupervisorID != "" &&
			r.UploadedBySupervisorID == c.AssignedSupervisorID
	}

	return false
}

// Check 与 Allowed 相同，拒绝时返回 ErrForbidden
func Check(c *Caller, r Resource, action Action) error {
	if !Allowed(c, r, action) {
		return ErrForbidden
	}
	return nil
}

// Filter 列表查询的声明式范围条件，空串表示不限制
type Filter struct {
	StudentID    string
	SupervisorID string
	Deny         bool // 条件互斥，结果必为空
}

// Scope 返回 caller 的固有查询范围
func Scope(c *Caller) Filter {
	switch {
	case c == nil:
		return Filter{Deny: true}
	case c.IsAdmin():
		return Filter{}
	case c.IsSupervisor():
		if c.SupervisorID == "" {
			return Filter{Deny: true}
		}
		return Filter{SupervisorID: c.SupervisorID}
	case c.IsStudent():
		if c.StudentID == "" {
			return Filter{Deny: true}
		}
		return Filter{StudentID: c.StudentID}
	default:
		return Filter{Deny: true}
	}
}

// Narrow 先套用 caller 范围，再叠加请求方传入的过滤条件
// 请求条件只能进一步收窄，与范围冲突时返回 Deny
func Narrow(c *Caller, requested Filter) Filter {
	scope := Scope(c)
	if scope.Deny || requested.Deny {
		return Filter{Deny: true}
	}

	result := requested
	if scope.StudentID != "" {
		if requested.StudentID != "" && requested.StudentID != scope.StudentID {
			return Filter{Deny: true}
		}
		result.StudentID = scope.StudentID
	}
	if scope.SupervisorID != "" {
		if requested.SupervisorID != "" && requested.SupervisorID != scope.SupervisorID {
			return Filter{Deny: true}
		}
		result.SupervisorID = scope.SupervisorID
	}
	return result
}
