package service

import (
	"context"

	"go.uber.org/zap"

	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/repository"
)

// NotificationService 通知业务接口，只能操作自己的通知
type NotificationService interface {
	List(ctx context.Context, caller *access.Caller, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, caller *access.Caller, id string) error
	MarkAllRead(ctx context.Context, caller *access.Caller) (int64, error)
	Delete(ctx context.Context, caller *access.Caller, id string) error
	UnreadCount(ctx context.Context, caller *access.Caller) (int64, error)
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) List(ctx context.Context, caller *access.Caller, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	ns, total, err := s.repo.Notification.List(ctx, caller.UserID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.NotificationResponse, 0, len(ns))
	for i := range ns {
		list = append(list, toNotificationResponse(&ns[i]))
	}
	return list, total, nil
}

// own 加载通知并校验归属
func (s *notificationService) own(ctx context.Context, caller *access.Caller, id string) error {
	n, err := s.repo.Notification.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrNotificationNotFound)
	}
	if n.UserID != caller.UserID {
		return ErrForbidden
	}
	return nil
}

func (s *notificationService) MarkRead(ctx context.Context, caller *access.Caller, id string) error {
	if err := s.own(ctx, caller, id); err != nil {
		return err
	}
	return s.repo.Notification.MarkRead(ctx, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, caller *access.Caller) (int64, error) {
	n, err := s.repo.Notification.MarkAllRead(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("全部标记已读失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return 0, err
	}
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, caller *access.Caller, id string) error {
	if err := s.own(ctx, caller, id); err != nil {
		return err
	}
	return s.repo.Notification.Delete(ctx, id, caller.UserID)
}

func (s *notificationService) UnreadCount(ctx context.Context, caller *access.Caller) (int64, error) {
	return s.repo.Notification.CountUnread(ctx, caller.UserID)
}
