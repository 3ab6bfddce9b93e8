package handler

import (
	"github.com/gin-gonic/gin"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/service"
	"pgss/backend/pkg/response"
)

// StudentHandler 学生模块 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// ListStudents 学生列表（按调用者范围收窄）
// GET /api/students?supervisorId=&search=&page=&page_size=
func (h *StudentHandler) ListStudents(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	students, total, err := h.studentSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, students, total, req.GetPage(), req.GetPageSize())
}

// GetStudent 学生详情
// GET /api/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, student)
}

// UpdateStudent 更新学生档案
// PATCH /api/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	student, err := h.studentSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, student)
}

// AssignSupervisor 分配或解除导师
// PUT /api/students/:id/supervisor
func (h *StudentHandler) AssignSupervisor(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.AssignSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	student, err := h.studentSvc.AssignSupervisor(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, student)
}

// GetProgress 学生进度详情
// GET /api/students/:id/progress
func (h *StudentHandler) GetProgress(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.studentSvc.Progress(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}
