package model

import "time"

// 会议状态
const (
	MeetingStatusPending   = "pending"
	MeetingStatusConfirmed = "confirmed"
	MeetingStatusCancelled = "cancelled"
)

// 会议类型
const (
	MeetingTypeOnline   = "online"
	MeetingTypeInPerson = "in-person"
)

// Meeting 指导会议表 — 对应 meetings
type Meeting struct {
	MeetingID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"meeting_id"`
	StudentID       string    `gorm:"type:uuid;not null;index"                       json:"student_id"`
	SupervisorID    string    `gorm:"type:uuid;not null;index"                       json:"supervisor_id"`
	RequestedBy     string    `gorm:"type:uuid;not null"                             json:"requested_by"`
	Title           string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Agenda          string    `gorm:"type:text"                                      json:"agenda,omitempty"`
	ScheduledAt     time.Time `gorm:"not null"                                       json:"scheduled_at"`
	DurationMinutes int       `gorm:"not null;default:60"                            json:"duration_minutes"`
	Status          string    `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Type            string    `gorm:"type:varchar(20);not null"                      json:"type"`
	Location        string    `gorm:"type:varchar(255)"                              json:"location,omitempty"`
	MeetingLink     string    `gorm:"type:varchar(500)"                              json:"meeting_link,omitempty"`
	Notes           string    `gorm:"type:text"                                      json:"notes,omitempty"`
	BaseModel

	// 关联
	Student    *Student    `gorm:"foreignKey:StudentID;references:StudentID"       json:"student,omitempty"`
	Supervisor *Supervisor `gorm:"foreignKey:SupervisorID;references:SupervisorID" json:"supervisor,omitempty"`
}

// TableName 指定表名
func (Meeting) TableName() string { return "meetings" }
