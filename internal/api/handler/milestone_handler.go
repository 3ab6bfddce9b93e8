package handler

import (
	"github.com/gin-gonic/gin"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/service"
	"pgss/backend/pkg/response"
)

// MilestoneHandler 里程碑模块 HTTP 处理器
type MilestoneHandler struct {
	milestoneSvc service.MilestoneService
}

// NewMilestoneHandler 创建 MilestoneHandler
func NewMilestoneHandler(milestoneSvc service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneSvc: milestoneSvc}
}

// ListMilestones 里程碑列表
// GET /api/milestones?studentId=&status=
func (h *MilestoneHandler) ListMilestones(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.MilestoneListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.milestoneSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateMilestone 创建里程碑（导师/管理员），响应附带重算后的总进度
// POST /api/milestones
func (h *MilestoneHandler) CreateMilestone(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.milestoneSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// GetMilestone 里程碑详情
// GET /api/milestones/:id
func (h *MilestoneHandler) GetMilestone(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	m, err := h.milestoneSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, m)
}

// UpdateMilestone 更新里程碑
// PATCH /api/milestones/:id
func (h *MilestoneHandler) UpdateMilestone(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.milestoneSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteMilestone 删除里程碑
// DELETE /api/milestones/:id
func (h *MilestoneHandler) DeleteMilestone(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.milestoneSvc.Delete(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}
