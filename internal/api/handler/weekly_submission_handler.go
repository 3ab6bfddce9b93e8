package handler

import (
	"github.com/gin-gonic/gin"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/service"
	"pgss/backend/pkg/response"
)

// WeeklySubmissionHandler 周报模块 HTTP 处理器
type WeeklySubmissionHandler struct {
	weeklySvc service.WeeklySubmissionService
}

// NewWeeklySubmissionHandler 创建 WeeklySubmissionHandler
func NewWeeklySubmissionHandler(weeklySvc service.WeeklySubmissionService) *WeeklySubmissionHandler {
	return &WeeklySubmissionHandler{weeklySvc: weeklySvc}
}

// ListSubmissions 周报列表
// GET /api/weekly-submissions?studentId=&week=
func (h *WeeklySubmissionHandler) ListSubmissions(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.WeeklySubmissionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.weeklySvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Submit 学生提交周报；同一周重复提交时更新原记录并返回 200
// POST /api/weekly-submissions
func (h *WeeklySubmissionHandler) Submit(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.SubmitWeeklyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, created, err := h.weeklySvc.Submit(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	if created {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// GetSubmission 周报详情
// GET /api/weekly-submissions/:id
func (h *WeeklySubmissionHandler) GetSubmission(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.weeklySvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Feedback 导师反馈
// PATCH /api/weekly-submissions/:id/feedback
func (h *WeeklySubmissionHandler) Feedback(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.weeklySvc.Feedback(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteSubmission 删除周报
// DELETE /api/weekly-submissions/:id
func (h *WeeklySubmissionHandler) DeleteSubmission(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.weeklySvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}
