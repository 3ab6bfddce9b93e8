package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pgss/backend/config"
	"pgss/backend/internal/access"
	"pgss/backend/internal/model"
	"pgss/backend/pkg/mail"
)

// ── 测试辅助 ──

const testPassword = "password123"

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-at-least-32-bytes!!",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Progress: config.ProgressConfig{Scheme: "milestone", TotalWeeks: 6},
		Meeting:  config.MeetingConfig{LinkBase: "https://meet.example.com/"},
	}
}

func seedUser(store *mockStore, name, email, role string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	u := &model.User{
		UserID:       store.nextID("user"),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       model.UserStatusActive,
	}
	store.users[u.UserID] = u
	return u
}

func seedAdmin(store *mockStore) (*model.User, *access.Caller) {
	u := seedUser(store, "管理员", "admin@test.com", model.RoleAdministrator)
	return u, &access.Caller{UserID: u.UserID, Role: model.RoleAdministrator}
}

func seedSupervisor(store *mockStore, name string, capacity int) (*model.Supervisor, *access.Caller) {
	u := seedUser(store, name, name+"@sup.test.com", model.RoleSupervisor)
	sup := &model.Supervisor{
		SupervisorID: store.nextID("sup"),
		UserID:       u.UserID,
		Department:   "计算机学院",
		Capacity:     capacity,
	}
	sup.Version = 1
	store.supervisors[sup.SupervisorID] = sup
	return sup, &access.Caller{UserID: u.UserID, Role: model.RoleSupervisor, SupervisorID: sup.SupervisorID}
}

// seedStudent supervisorID 为空时学生未分配导师
func seedStudent(store *mockStore, name, supervisorID string) (*model.Student, *access.Caller) {
	u := seedUser(store, name, name+"@stu.test.com", model.RoleStudent)
	st := &model.Student{
		StudentID: store.nextID("stu"),
		UserID:    u.UserID,
		Program:   "软件工程",
	}
	if supervisorID != "" {
		id := supervisorID
		st.SupervisorID = &id
	}
	store.students[st.StudentID] = st
	return st, &access.Caller{
		UserID:               u.UserID,
		Role:                 model.RoleStudent,
		StudentID:            st.StudentID,
		AssignedSupervisorID: supervisorID,
	}
}

func intPtr(v int) *int              { return &v }
func strPtr(v string) *string        { return &v }
func timePtr(v time.Time) *time.Time { return &v }

// recordingMailer 记录发送的邮件
type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var to []string
	for _, msg := range m.sent {
		to = append(to, msg.ToAddress)
	}
	return to
}
