package model

import "time"

// 周报状态
const (
	SubmissionStatusPending   = "pending"
	SubmissionStatusSubmitted = "submitted"
)

// WeeklySubmission 周报表 — 对应 weekly_submissions，(student_id, week_number) 唯一
type WeeklySubmission struct {
	SubmissionID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	StudentID          string     `gorm:"type:uuid;not null"                             json:"student_id"`
	WeekNumber         int        `gorm:"type:smallint;not null"                         json:"week_number"`
	Status             string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Description        string     `gorm:"type:text"                                      json:"description,omitempty"`
	SupervisorFeedback string     `gorm:"type:text"                                      json:"supervisor_feedback,omitempty"`
	FeedbackAt         *time.Time `json:"feedback_at,omitempty"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty"`
	BaseModel

	// 关联
	Documents []Document `gorm:"foreignKey:WeeklySubmissionID;references:SubmissionID" json:"documents,omitempty"`
}

// TableName 指定表名
func (WeeklySubmission) TableName() string { return "weekly_submissions" }
