package model

import "gorm.io/datatypes"

// 通知类型
const (
	NotificationSupervisorAssigned = "supervisor_assigned"
	NotificationWeeklySubmitted    = "weekly_submitted"
	NotificationFeedbackGiven      = "feedback_given"
	NotificationMilestoneCreated   = "milestone_created"
	NotificationMeetingRequested   = "meeting_requested"
	NotificationMeetingUpdated     = "meeting_updated"
	NotificationNewMessage         = "new_message"
	NotificationDocumentUploaded   = "document_uploaded"
)

// Notification 通知消息表 — 对应 notifications
type Notification struct {
	NotificationID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string         `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type           string         `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string         `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string         `gorm:"type:text;not null"                             json:"content"`
	IsRead         bool           `gorm:"not null;default:false"                         json:"is_read"`
	RelatedType    *string        `gorm:"type:varchar(30)"                               json:"related_type,omitempty"` // student | milestone | weekly_submission | meeting | message | document
	RelatedID      *string        `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	Payload        datatypes.JSON `gorm:"type:jsonb"                                     json:"payload,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
