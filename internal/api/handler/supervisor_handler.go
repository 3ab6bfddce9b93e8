package handler

import (
	"github.com/gin-gonic/gin"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/service"
	"pgss/backend/pkg/response"
)

// SupervisorHandler 导师模块 HTTP 处理器
type SupervisorHandler struct {
	supervisorSvc service.SupervisorService
}

// NewSupervisorHandler 创建 SupervisorHandler
func NewSupervisorHandler(supervisorSvc service.SupervisorService) *SupervisorHandler {
	return &SupervisorHandler{supervisorSvc: supervisorSvc}
}

// ListSupervisors 导师列表
// GET /api/supervisors?search=&department=&available=
func (h *SupervisorHandler) ListSupervisors(c *gin.Context) {
	var req dto.SupervisorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, total, err := h.supervisorSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetSupervisor 导师详情
// GET /api/supervisors/:id
func (h *SupervisorHandler) GetSupervisor(c *gin.Context) {
	sup, err := h.supervisorSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, sup)
}

// UpdateSupervisor 更新导师档案（管理员或本人）
// PATCH /api/supervisors/:id
func (h *SupervisorHandler) UpdateSupervisor(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sup, err := h.supervisorSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, sup)
}

// ListStudents 导师名下学生
// GET /api/supervisors/:id/students
func (h *SupervisorHandler) ListStudents(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return
	}

	students, total, err := h.supervisorSvc.ListStudents(c.Request.Context(), caller, c.Param("id"), &page)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, students, total, page.GetPage(), page.GetPageSize())
}
