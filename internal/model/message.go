package model

import "time"

// Message 站内消息表 — 对应 messages
type Message struct {
	MessageID  string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"message_id"`
	SenderID   string     `gorm:"type:uuid;not null;index"                       json:"sender_id"`
	ReceiverID string     `gorm:"type:uuid;not null;index"                       json:"receiver_id"`
	Content    string     `gorm:"type:text;not null"                             json:"content"`
	IsRead     bool       `gorm:"not null;default:false"                         json:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	BaseModel

	// 关联
	Sender   *User `gorm:"foreignKey:SenderID;references:UserID"   json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID;references:UserID" json:"receiver,omitempty"`
}

// TableName 指定表名
func (Message) TableName() string { return "messages" }
