package model

// 用户角色
const (
	RoleStudent       = "student"
	RoleSupervisor    = "supervisor"
	RoleAdministrator = "administrator"
)

// 账号状态
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Phone        string `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	Role         string `gorm:"type:varchar(20);not null"                      json:"role"`
	Status       string `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	Avatar       string `gorm:"type:varchar(500)"                              json:"avatar,omitempty"`
	SoftDeleteModel

	// 关联（按角色至多存在其一）
	Student    *Student    `gorm:"foreignKey:UserID;references:UserID" json:"student,omitempty"`
	Supervisor *Supervisor `gorm:"foreignKey:UserID;references:UserID" json:"supervisor,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsActive 账号是否可用
func (u *User) IsActive() bool { return u.Status == UserStatusActive }
