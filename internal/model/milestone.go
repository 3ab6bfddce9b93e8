package model

import "time"

// 里程碑状态（由进度派生）
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in-progress"
	MilestoneStatusCompleted  = "completed"
)

// Milestone 里程碑表 — 对应 milestones
type Milestone struct {
	MilestoneID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"milestone_id"`
	StudentID   string     `gorm:"type:uuid;not null;index"                       json:"student_id"`
	Name        string     `gorm:"type:varchar(200);not null"                     json:"name"`
	Description string     `gorm:"type:text"                                      json:"description,omitempty"`
	Progress    int        `gorm:"type:smallint;not null;default:0"               json:"progress"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	DueDate     *time.Time `gorm:"type:date"                                      json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Milestone) TableName() string { return "milestones" }
