package service

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
	"pgss/backend/internal/repository"
)

// MessageService 站内消息业务接口
type MessageService interface {
	Send(ctx context.Context, caller *access.Caller, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	List(ctx context.Context, caller *access.Caller, req *dto.MessageListRequest) ([]dto.MessageResponse, int64, error)
	MarkRead(ctx context.Context, caller *access.Caller, id string) (*dto.MessageResponse, error)
	UnreadCount(ctx context.Context, caller *access.Caller) (int64, error)
}

type messageService struct {
	repo     *repository.Repository
	notifier *notifier
	logger   *zap.Logger
}

// NewMessageService 创建 MessageService 实例
func NewMessageService(repo *repository.Repository, n *notifier, logger *zap.Logger) MessageService {
	return &messageService{repo: repo, notifier: n, logger: logger}
}

// canMessage 收发双方须存在指导关系，管理员不受限制
func canMessage(caller *access.Caller, receiver *model.User) bool {
	if caller.IsAdmin() || receiver.Role == model.RoleAdministrator {
		return true
	}
	switch {
	case caller.IsStudent():
		return caller.AssignedSupervisorID != "" &&
			receiver.Supervisor != nil &&
			receiver.Supervisor.SupervisorID == caller.AssignedSupervisorID
	case caller.IsSupervisor():
		return caller.SupervisorID != "" &&
			receiver.Student != nil &&
			receiver.Student.AssignedSupervisorID() == caller.SupervisorID
	}
	return false
}

// ────────────────────── Send ──────────────────────

func (s *messageService) Send(ctx context.Context, caller *access.Caller, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	if req.ReceiverID == caller.UserID {
		return nil, ErrMessageToSelf
	}

	receiver, err := s.repo.User.GetByID(ctx, req.ReceiverID)
	if err != nil {
		return nil, notFound(err, ErrRecipientNotFound)
	}
	if !canMessage(caller, receiver) {
		return nil, ErrMessageNotAllowed
	}

	msg := &model.Message{
		SenderID:   caller.UserID,
		ReceiverID: receiver.UserID,
		Content:    req.Content,
		BaseModel:  model.BaseModel{CreatedBy: &caller.UserID},
	}
	if err := s.repo.Message.Create(ctx, msg); err != nil {
		s.logger.Error("发送消息失败", zap.String("receiver_id", receiver.UserID), zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Message.GetByID(ctx, msg.MessageID)
	if err != nil {
		return nil, err
	}

	senderName := ""
	if created.Sender != nil {
		senderName = created.Sender.Name
	}
	s.notifier.send(ctx, appendNotification(nil, receiver.UserID, model.NotificationNewMessage,
		"新消息", preview(senderName, created.Content), "message", created.MessageID, nil)...)

	resp := toMessageResponse(created)
	return &resp, nil
}

const previewRunes = 60

// preview 截取消息摘要用于通知正文
func preview(sender, content string) string {
	if utf8.RuneCountInString(content) > previewRunes {
		content = string([]rune(content)[:previewRunes]) + "…"
	}
	if sender == "" {
		return content
	}
	return sender + ": " + content
}

// ────────────────────── List ──────────────────────

func (s *messageService) List(ctx context.Context, caller *access.Caller, req *dto.MessageListRequest) ([]dto.MessageResponse, int64, error) {
	msgs, total, err := s.repo.Message.List(ctx, caller.UserID, req.With, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询消息失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		list = append(list, toMessageResponse(&msgs[i]))
	}
	return list, total, nil
}

// ────────────────────── MarkRead ──────────────────────

func (s *messageService) MarkRead(ctx context.Context, caller *access.Caller, id string) (*dto.MessageResponse, error) {
	msg, err := s.repo.Message.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrMessageNotFound)
	}
	if msg.ReceiverID != caller.UserID {
		return nil, ErrForbidden
	}

	if !msg.IsRead {
		now := time.Now()
		if err := s.repo.Message.MarkRead(ctx, msg.MessageID, now); err != nil {
			s.logger.Error("标记消息已读失败", zap.String("id", id), zap.Error(err))
			return nil, err
		}
		msg.IsRead = true
		msg.ReadAt = &now
	}

	resp := toMessageResponse(msg)
	return &resp, nil
}

func (s *messageService) UnreadCount(ctx context.Context, caller *access.Caller) (int64, error) {
	return s.repo.Message.CountUnread(ctx, caller.UserID)
}
