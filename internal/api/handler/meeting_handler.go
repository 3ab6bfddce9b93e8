package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/service"
	"pgss/backend/pkg/response"
)

// MeetingHandler 会议模块 HTTP 处理器
type MeetingHandler struct {
	meetingSvc service.MeetingService
}

// NewMeetingHandler 创建 MeetingHandler
func NewMeetingHandler(meetingSvc service.MeetingService) *MeetingHandler {
	return &MeetingHandler{meetingSvc: meetingSvc}
}

// ListMeetings 会议列表
// GET /api/meetings?studentId=&supervisorId=&status=&upcoming=
func (h *MeetingHandler) ListMeetings(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.MeetingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.meetingSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateMeeting 预约会议
// POST /api/meetings
func (h *MeetingHandler) CreateMeeting(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	meeting, err := h.meetingSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, meeting)
}

// GetMeeting 会议详情
// GET /api/meetings/:id
func (h *MeetingHandler) GetMeeting(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	meeting, err := h.meetingSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, meeting)
}

// UpdateMeeting 确认 / 取消 / 改期 / 补充纪要
// PATCH /api/meetings/:id
func (h *MeetingHandler) UpdateMeeting(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	meeting, err := h.meetingSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, meeting)
}

// DeleteMeeting 删除会议
// DELETE /api/meetings/:id
func (h *MeetingHandler) DeleteMeeting(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.meetingSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}

// Calendar 导出会议日历
// GET /api/meetings/calendar.ics
func (h *MeetingHandler) Calendar(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	data, err := h.meetingSvc.Calendar(c.Request.Context(), caller)
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="meetings.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}
