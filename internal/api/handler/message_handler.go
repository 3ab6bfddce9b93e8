package handler

import (
	"github.com/gin-gonic/gin"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/service"
	"pgss/backend/pkg/response"
)

// MessageHandler 站内消息 HTTP 处理器
type MessageHandler struct {
	messageSvc service.MessageService
}

// NewMessageHandler 创建 MessageHandler
func NewMessageHandler(messageSvc service.MessageService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc}
}

// ListMessages 消息列表，with 指定会话对方
// GET /api/messages?with=&page=&page_size=
func (h *MessageHandler) ListMessages(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.MessageListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, total, err := h.messageSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// SendMessage 发送消息
// POST /api/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	msg, err := h.messageSvc.Send(c.Request.Context(), caller, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, msg)
}

// MarkRead 标记已读（仅收件人）
// PATCH /api/messages/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	msg, err := h.messageSvc.MarkRead(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, msg)
}

// UnreadCount 未读消息数
// GET /api/messages/unread-count
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	n, err := h.messageSvc.UnreadCount(c.Request.Context(), caller)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"count": n})
}
