package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pgss/backend/internal/model"
)

// MessageRepository 站内消息数据访问接口
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id string) (*model.Message, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	// List 返回 userID 收发的消息；withID 非空时仅返回双方之间的会话
	List(ctx context.Context, userID, withID string, offset, limit int) ([]model.Message, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type messageRepo struct {
	db *gorm.DB
}

// NewMessageRepo 创建 MessageRepository 实例
func NewMessageRepo(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Omit("Sender", "Receiver").Create(msg).Error
}

func (r *messageRepo) GetByID(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("message_id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("message_id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		}).Error
}

func (r *messageRepo) List(ctx context.Context, userID, withID string, offset, limit int) ([]model.Message, int64, error) {
	var msgs []model.Message
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Message{})
	if withID != "" {
		db = db.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, withID, withID, userID)
	} else {
		db = db.Where("sender_id = ? OR receiver_id = ?", userID, userID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Sender").
		Preload("Receiver").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, 0, err
	}

	return msgs, total, nil
}

func (r *messageRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
