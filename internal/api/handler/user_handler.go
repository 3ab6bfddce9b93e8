package handler

import (
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/service"
	"pgss/backend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器（管理员）
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers 用户列表
// GET /api/users?role=&status=&search=&page=&page_size=
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// CreateUser 创建用户，未指定密码时返回临时密码
// POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.userSvc.CreateUser(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// GetUser 用户详情
// GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateUser 更新用户
// PATCH /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, user)
}

// DeleteUser 删除用户
// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ImportStudents 从 Excel 批量导入学生
// POST /api/users/import (multipart/form-data, field="file")
func (h *UserHandler) ImportStudents(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		bindError(c, err)
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		response.BadRequest(c, 10001, "仅支持 .xlsx 文件")
		return
	}

	file, err := fh.Open()
	if err != nil {
		handleError(c, err)
		return
	}
	defer file.Close()

	rows, err := h.userSvc.ParseImportFile(file)
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.userSvc.ImportStudents(c.Request.Context(), caller, rows)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}
