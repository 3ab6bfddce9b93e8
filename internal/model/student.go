package model

import "time"

// Student 学生档案表 — 对应 students（与 users 1:1）
type Student struct {
	StudentID              string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	UserID                 string     `gorm:"type:uuid;not null"                             json:"user_id"`
	Program                string     `gorm:"type:varchar(100)"                              json:"program"`
	ResearchTitle          string     `gorm:"type:varchar(255)"                              json:"research_title,omitempty"`
	StartDate              *time.Time `gorm:"type:date"                                      json:"start_date,omitempty"`
	ExpectedCompletionDate *time.Time `gorm:"type:date"                                      json:"expected_completion_date,omitempty"`
	SupervisorID           *string    `gorm:"type:uuid;index"                                json:"supervisor_id,omitempty"`
	OverallProgress        int        `gorm:"type:smallint;not null;default:0"               json:"overall_progress"` // 派生值 0-100
	SoftDeleteModel

	// 关联
	User       *User       `gorm:"foreignKey:UserID;references:UserID"             json:"user,omitempty"`
	Supervisor *Supervisor `gorm:"foreignKey:SupervisorID;references:SupervisorID" json:"supervisor,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// AssignedSupervisorID 当前导师 ID，未分配时为空串
func (s *Student) AssignedSupervisorID() string {
	if s.SupervisorID == nil {
		return ""
	}
	return *s.SupervisorID
}
