package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"pgss/backend/internal/model"
	"pgss/backend/internal/repository"
	"pgss/backend/pkg/mail"
)

// notifier 写入站内通知
// 在业务事务提交之后调用，失败只记录日志
type notifier struct {
	repo   *repository.Repository
	logger *zap.Logger
}

func newNotifier(repo *repository.Repository, logger *zap.Logger) *notifier {
	return &notifier{repo: repo, logger: logger}
}

func (n *notifier) send(ctx context.Context, ns ...model.Notification) {
	if n == nil || len(ns) == 0 {
		return
	}
	if err := n.repo.Notification.BatchCreate(ctx, ns); err != nil {
		n.logger.Warn("写入通知失败", zap.Int("count", len(ns)), zap.Error(err))
	}
}

// appendNotification 追加一条通知，userID 为空时跳过
func appendNotification(ns []model.Notification, userID, typ, title, content, relatedType, relatedID string, payload map[string]interface{}) []model.Notification {
	if userID == "" {
		return ns
	}
	n := model.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Content: content,
	}
	if relatedType != "" {
		n.RelatedType = &relatedType
	}
	if relatedID != "" {
		n.RelatedID = &relatedID
	}
	if len(payload) > 0 {
		if raw, err := json.Marshal(payload); err == nil {
			n.Payload = datatypes.JSON(raw)
		}
	}
	return append(ns, n)
}

// sendMail 邮件副本，事务提交后调用，失败只记录日志
func sendMail(ctx context.Context, mailer mail.Mailer, logger *zap.Logger, user *model.User, subject, text string) {
	if mailer == nil || user == nil || user.Email == "" {
		return
	}
	err := mailer.Send(ctx, mail.Message{
		ToName:    user.Name,
		ToAddress: user.Email,
		Subject:   subject,
		Text:      text,
	})
	if err != nil {
		logger.Warn("发送邮件失败", zap.String("to", user.Email), zap.String("subject", subject), zap.Error(err))
	}
}
