package dto

// ── 消息模块 DTO ──

// MessageListRequest 消息列表查询参数，with 为对方用户 ID
type MessageListRequest struct {
	PaginationRequest
	With string `form:"with" binding:"omitempty,uuid"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required,uuid"`
	Content    string `json:"content"     binding:"required,min=1,max=5000"`
}

// MessageResponse 消息响应
type MessageResponse struct {
	ID           string `json:"id"`
	SenderID     string `json:"sender_id"`
	SenderName   string `json:"sender_name,omitempty"`
	ReceiverID   string `json:"receiver_id"`
	ReceiverName string `json:"receiver_name,omitempty"`
	Content      string `json:"content"`
	IsRead       bool   `json:"is_read"`
	ReadAt       string `json:"read_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}
