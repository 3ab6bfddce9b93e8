package model

// Supervisor 导师档案表 — 对应 supervisors（与 users 1:1）
// 当前学生数不落库，由 students 表实时统计
type Supervisor struct {
	SupervisorID  string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"supervisor_id"`
	UserID        string `gorm:"type:uuid;not null"                             json:"user_id"`
	Department    string `gorm:"type:varchar(100)"                              json:"department"`
	ResearchAreas string `gorm:"type:text"                                      json:"research_areas,omitempty"`
	Capacity      int    `gorm:"not null;default:5"                             json:"capacity"`
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Supervisor) TableName() string { return "supervisors" }
