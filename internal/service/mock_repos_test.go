package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"pgss/backend/internal/access"
	"pgss/backend/internal/model"
	"pgss/backend/internal/repository"
	apperrors "pgss/backend/pkg/errors"
)

// mockStore 各 mock 仓储共享的内存数据，用于模拟预加载关联
// 读取方法均返回副本，服务层修改返回值不会影响存储
type mockStore struct {
	seq           int
	users         map[string]*model.User
	students      map[string]*model.Student
	supervisors   map[string]*model.Supervisor
	milestones    map[string]*model.Milestone
	submissions   map[string]*model.WeeklySubmission
	documents     map[string]*model.Document
	meetings      map[string]*model.Meeting
	messages      map[string]*model.Message
	notifications map[string]*model.Notification
}

func newMockStore() *mockStore {
	return &mockStore{
		users:         make(map[string]*model.User),
		students:      make(map[string]*model.Student),
		supervisors:   make(map[string]*model.Supervisor),
		milestones:    make(map[string]*model.Milestone),
		submissions:   make(map[string]*model.WeeklySubmission),
		documents:     make(map[string]*model.Document),
		meetings:      make(map[string]*model.Meeting),
		messages:      make(map[string]*model.Message),
		notifications: make(map[string]*model.Notification),
	}
}

func (s *mockStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq)
}

// newMockRepository 构造不绑定数据库的仓储聚合（BeginTx 返回 nil）
func newMockRepository() (*repository.Repository, *mockStore) {
	store := newMockStore()
	return &repository.Repository{
		User:             &mockUserRepo{store},
		Student:          &mockStudentRepo{store},
		Supervisor:       &mockSupervisorRepo{store},
		Milestone:        &mockMilestoneRepo{store},
		WeeklySubmission: &mockWeeklySubmissionRepo{store},
		Document:         &mockDocumentRepo{store},
		Meeting:          &mockMeetingRepo{store},
		Message:          &mockMessageRepo{store},
		Notification:     &mockNotificationRepo{store},
		Report:           &mockReportRepo{store},
	}, store
}

// ── 关联视图 ──

func (s *mockStore) userView(id string) *model.User {
	u, ok := s.users[id]
	if !ok || u.DeletedAt.Valid {
		return nil
	}
	cp := *u
	cp.Student, cp.Supervisor = nil, nil
	for _, st := range s.students {
		if st.UserID == id && !st.DeletedAt.Valid {
			sc := *st
			sc.User, sc.Supervisor = nil, nil
			cp.Student = &sc
		}
	}
	for _, sup := range s.supervisors {
		if sup.UserID == id && !sup.DeletedAt.Valid {
			pc := *sup
			pc.User = nil
			cp.Supervisor = &pc
		}
	}
	return &cp
}

func (s *mockStore) bareUser(id string) *model.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	cp := *u
	cp.Student, cp.Supervisor = nil, nil
	return &cp
}

func (s *mockStore) supervisorView(id string) *model.Supervisor {
	sup, ok := s.supervisors[id]
	if !ok || sup.DeletedAt.Valid {
		return nil
	}
	cp := *sup
	cp.User = s.bareUser(sup.UserID)
	return &cp
}

func (s *mockStore) studentView(id string) *model.Student {
	st, ok := s.students[id]
	if !ok || st.DeletedAt.Valid {
		return nil
	}
	cp := *st
	cp.User = s.bareUser(st.UserID)
	cp.Supervisor = nil
	if st.SupervisorID != nil {
		cp.Supervisor = s.supervisorView(*st.SupervisorID)
	}
	return &cp
}

// supervisorOf 学生当前导师 ID
func (s *mockStore) supervisorOf(studentID string) string {
	if st, ok := s.students[studentID]; ok {
		return st.AssignedSupervisorID()
	}
	return ""
}

// ownedInScope 模拟按 student_id 归属的范围过滤
func (s *mockStore) ownedInScope(f access.Filter, studentID string) bool {
	if f.Deny {
		return false
	}
	if f.StudentID != "" && f.StudentID != studentID {
		return false
	}
	if f.SupervisorID != "" && s.supervisorOf(studentID) != f.SupervisorID {
		return false
	}
	return true
}

func pairInScope(f access.Filter, studentID, supervisorID string) bool {
	if f.Deny {
		return false
	}
	if f.StudentID != "" && f.StudentID != studentID {
		return false
	}
	if f.SupervisorID != "" && f.SupervisorID != supervisorID {
		return false
	}
	return true
}

func page[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func softDelete(m *model.SoftDeleteModel, by string) {
	m.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	m.DeletedBy = &by
}

// ── Mock UserRepository ──

type mockUserRepo struct{ s *mockStore }

func (m *mockUserRepo) emailTaken(email, exceptID string) bool {
	for _, u := range m.s.users {
		if u.UserID != exceptID && !u.DeletedAt.Valid && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.emailTaken(user.Email, "") {
		return gorm.ErrDuplicatedKey
	}
	if user.UserID == "" {
		user.UserID = m.s.nextID("user")
	}
	cp := *user
	cp.Student, cp.Supervisor = nil, nil
	m.s.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u := m.s.userView(id); u != nil {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for id, u := range m.s.users {
		if !u.DeletedAt.Valid && strings.EqualFold(u.Email, email) {
			return m.s.userView(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.s.users[user.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if m.emailTaken(user.Email, user.UserID) {
		return gorm.ErrDuplicatedKey
	}
	stored.Email = user.Email
	stored.Name = user.Name
	stored.Phone = user.Phone
	stored.Status = user.Status
	stored.Avatar = user.Avatar
	stored.UpdatedBy = user.UpdatedBy
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	stored, ok := m.s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id, deletedBy string) error {
	if stored, ok := m.s.users[id]; ok {
		softDelete(&stored.SoftDeleteModel, deletedBy)
	}
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var result []model.User
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for id, u := range m.s.users {
		if u.DeletedAt.Valid {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		result = append(result, *m.s.userView(id))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockUserRepo) ListAdmins(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.s.users {
		if !u.DeletedAt.Valid && u.Role == model.RoleAdministrator {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct{ s *mockStore }

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if student.StudentID == "" {
		student.StudentID = m.s.nextID("stu")
	}
	cp := *student
	cp.User, cp.Supervisor = nil, nil
	m.s.students[student.StudentID] = &cp
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if st := m.s.studentView(id); st != nil {
		return st, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByUserID(_ context.Context, userID string) (*model.Student, error) {
	for id, st := range m.s.students {
		if st.UserID == userID && !st.DeletedAt.Valid {
			return m.s.studentView(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	stored, ok := m.s.students[student.StudentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Program = student.Program
	stored.ResearchTitle = student.ResearchTitle
	stored.StartDate = student.StartDate
	stored.ExpectedCompletionDate = student.ExpectedCompletionDate
	stored.UpdatedBy = student.UpdatedBy
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id, deletedBy string) error {
	if stored, ok := m.s.students[id]; ok {
		softDelete(&stored.SoftDeleteModel, deletedBy)
	}
	return nil
}

func (m *mockStudentRepo) List(_ context.Context, filter repository.StudentFilter, offset, limit int) ([]model.Student, int64, error) {
	var result []model.Student
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for id, st := range m.s.students {
		if st.DeletedAt.Valid || !pairInScope(filter.Scope, id, st.AssignedSupervisorID()) {
			continue
		}
		if filter.SupervisorID != "" && st.AssignedSupervisorID() != filter.SupervisorID {
			continue
		}
		if filter.Unassigned && st.SupervisorID != nil {
			continue
		}
		view := m.s.studentView(id)
		if view.User == nil || view.User.DeletedAt.Valid {
			continue
		}
		if filter.Status != "" && view.User.Status != filter.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(view.User.Name), search) &&
			!strings.Contains(strings.ToLower(view.User.Email), search) {
			continue
		}
		result = append(result, *view)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockStudentRepo) SetSupervisor(_ context.Context, studentID string, supervisorID *string, updatedBy string) error {
	stored, ok := m.s.students[studentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if supervisorID != nil {
		id := *supervisorID
		supervisorID = &id
	}
	stored.SupervisorID = supervisorID
	stored.UpdatedBy = &updatedBy
	return nil
}

func (m *mockStudentRepo) UnassignBySupervisor(_ context.Context, supervisorID, updatedBy string) (int64, error) {
	var n int64
	for _, st := range m.s.students {
		if st.AssignedSupervisorID() == supervisorID {
			st.SupervisorID = nil
			st.UpdatedBy = &updatedBy
			n++
		}
	}
	return n, nil
}

func (m *mockStudentRepo) CountBySupervisor(_ context.Context, supervisorID string) (int64, error) {
	var n int64
	for _, st := range m.s.students {
		if !st.DeletedAt.Valid && st.AssignedSupervisorID() == supervisorID {
			n++
		}
	}
	return n, nil
}

func (m *mockStudentRepo) CountBySupervisors(ctx context.Context, supervisorIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(supervisorIDs))
	for _, id := range supervisorIDs {
		n, _ := m.CountBySupervisor(ctx, id)
		counts[id] = n
	}
	return counts, nil
}

func (m *mockStudentRepo) UpdateProgress(_ context.Context, studentID string, progress int) error {
	stored, ok := m.s.students[studentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.OverallProgress = progress
	return nil
}

// ── Mock SupervisorRepository ──

type mockSupervisorRepo struct{ s *mockStore }

func (m *mockSupervisorRepo) Create(_ context.Context, supervisor *model.Supervisor) error {
	if supervisor.SupervisorID == "" {
		supervisor.SupervisorID = m.s.nextID("sup")
	}
	if supervisor.Version == 0 {
		supervisor.Version = 1
	}
	cp := *supervisor
	cp.User = nil
	m.s.supervisors[supervisor.SupervisorID] = &cp
	return nil
}

func (m *mockSupervisorRepo) GetByID(_ context.Context, id string) (*model.Supervisor, error) {
	if sup := m.s.supervisorView(id); sup != nil {
		return sup, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSupervisorRepo) GetByUserID(_ context.Context, userID string) (*model.Supervisor, error) {
	for id, sup := range m.s.supervisors {
		if sup.UserID == userID && !sup.DeletedAt.Valid {
			return m.s.supervisorView(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSupervisorRepo) GetForUpdate(ctx context.Context, id string) (*model.Supervisor, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSupervisorRepo) Update(_ context.Context, supervisor *model.Supervisor) error {
	stored, ok := m.s.supervisors[supervisor.SupervisorID]
	if !ok || stored.Version != supervisor.Version {
		return apperrors.ErrOptimisticLock
	}
	stored.Department = supervisor.Department
	stored.ResearchAreas = supervisor.ResearchAreas
	stored.Capacity = supervisor.Capacity
	stored.UpdatedBy = supervisor.UpdatedBy
	stored.Version++
	supervisor.Version = stored.Version
	return nil
}

func (m *mockSupervisorRepo) Delete(_ context.Context, id, deletedBy string) error {
	if stored, ok := m.s.supervisors[id]; ok {
		softDelete(&stored.SoftDeleteModel, deletedBy)
	}
	return nil
}

func (m *mockSupervisorRepo) List(ctx context.Context, filter repository.SupervisorFilter, offset, limit int) ([]model.Supervisor, int64, error) {
	var result []model.Supervisor
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	students := &mockStudentRepo{m.s}
	for id, sup := range m.s.supervisors {
		if sup.DeletedAt.Valid {
			continue
		}
		if filter.Department != "" && sup.Department != filter.Department {
			continue
		}
		view := m.s.supervisorView(id)
		if search != "" && (view.User == nil || (!strings.Contains(strings.ToLower(view.User.Name), search) &&
			!strings.Contains(strings.ToLower(view.User.Email), search))) {
			continue
		}
		if filter.AvailableOnly {
			n, _ := students.CountBySupervisor(ctx, id)
			if n >= int64(sup.Capacity) {
				continue
			}
		}
		result = append(result, *view)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SupervisorID < result[j].SupervisorID })
	return page(result, offset, limit), int64(len(result)), nil
}

// ── Mock MilestoneRepository ──

type mockMilestoneRepo struct{ s *mockStore }

func (m *mockMilestoneRepo) Create(_ context.Context, milestone *model.Milestone) error {
	if milestone.MilestoneID == "" {
		milestone.MilestoneID = m.s.nextID("ms")
	}
	cp := *milestone
	m.s.milestones[milestone.MilestoneID] = &cp
	return nil
}

func (m *mockMilestoneRepo) GetByID(_ context.Context, id string) (*model.Milestone, error) {
	if ms, ok := m.s.milestones[id]; ok {
		cp := *ms
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMilestoneRepo) Update(_ context.Context, milestone *model.Milestone) error {
	if _, ok := m.s.milestones[milestone.MilestoneID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *milestone
	m.s.milestones[milestone.MilestoneID] = &cp
	return nil
}

func (m *mockMilestoneRepo) Delete(_ context.Context, id string) error {
	delete(m.s.milestones, id)
	return nil
}

func (m *mockMilestoneRepo) List(_ context.Context, filter repository.MilestoneFilter) ([]model.Milestone, error) {
	var result []model.Milestone
	for _, ms := range m.s.milestones {
		if !m.s.ownedInScope(filter.Scope, ms.StudentID) {
			continue
		}
		if filter.StudentID != "" && ms.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && ms.Status != filter.Status {
			continue
		}
		result = append(result, *ms)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MilestoneID < result[j].MilestoneID })
	return result, nil
}

func (m *mockMilestoneRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Milestone, error) {
	return m.List(ctx, repository.MilestoneFilter{StudentID: studentID})
}

// ── Mock WeeklySubmissionRepository ──

type mockWeeklySubmissionRepo struct{ s *mockStore }

func (m *mockWeeklySubmissionRepo) view(ws *model.WeeklySubmission) *model.WeeklySubmission {
	cp := *ws
	cp.Documents = nil
	for _, d := range m.s.documents {
		if d.WeeklySubmissionID != nil && *d.WeeklySubmissionID == ws.SubmissionID {
			cp.Documents = append(cp.Documents, *d)
		}
	}
	return &cp
}

func (m *mockWeeklySubmissionRepo) Create(_ context.Context, submission *model.WeeklySubmission) error {
	for _, ws := range m.s.submissions {
		if ws.StudentID == submission.StudentID && ws.WeekNumber == submission.WeekNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if submission.SubmissionID == "" {
		submission.SubmissionID = m.s.nextID("ws")
	}
	cp := *submission
	cp.Documents = nil
	m.s.submissions[submission.SubmissionID] = &cp
	return nil
}

func (m *mockWeeklySubmissionRepo) GetByID(_ context.Context, id string) (*model.WeeklySubmission, error) {
	if ws, ok := m.s.submissions[id]; ok {
		return m.view(ws), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWeeklySubmissionRepo) GetByStudentWeek(_ context.Context, studentID string, week int) (*model.WeeklySubmission, error) {
	for _, ws := range m.s.submissions {
		if ws.StudentID == studentID && ws.WeekNumber == week {
			return m.view(ws), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWeeklySubmissionRepo) Update(_ context.Context, submission *model.WeeklySubmission) error {
	stored, ok := m.s.submissions[submission.SubmissionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = submission.Status
	stored.Description = submission.Description
	stored.SupervisorFeedback = submission.SupervisorFeedback
	stored.FeedbackAt = submission.FeedbackAt
	stored.SubmittedAt = submission.SubmittedAt
	stored.UpdatedBy = submission.UpdatedBy
	return nil
}

func (m *mockWeeklySubmissionRepo) Delete(_ context.Context, id string) error {
	delete(m.s.submissions, id)
	return nil
}

func (m *mockWeeklySubmissionRepo) List(_ context.Context, filter repository.WeeklySubmissionFilter) ([]model.WeeklySubmission, error) {
	var result []model.WeeklySubmission
	for _, ws := range m.s.submissions {
		if !m.s.ownedInScope(filter.Scope, ws.StudentID) {
			continue
		}
		if filter.StudentID != "" && ws.StudentID != filter.StudentID {
			continue
		}
		if filter.Week > 0 && ws.WeekNumber != filter.Week {
			continue
		}
		if filter.Status != "" && ws.Status != filter.Status {
			continue
		}
		result = append(result, *m.view(ws))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].WeekNumber < result[j].WeekNumber })
	return result, nil
}

func (m *mockWeeklySubmissionRepo) CountSubmitted(_ context.Context, studentID string) (int64, error) {
	var n int64
	for _, ws := range m.s.submissions {
		if ws.StudentID == studentID && ws.Status == model.SubmissionStatusSubmitted {
			n++
		}
	}
	return n, nil
}

func (m *mockWeeklySubmissionRepo) CountPendingFeedback(_ context.Context, scope access.Filter) (int64, error) {
	var n int64
	for _, ws := range m.s.submissions {
		if m.s.ownedInScope(scope, ws.StudentID) &&
			ws.Status == model.SubmissionStatusSubmitted && ws.FeedbackAt == nil {
			n++
		}
	}
	return n, nil
}

// ── Mock DocumentRepository ──

type mockDocumentRepo struct{ s *mockStore }

func (m *mockDocumentRepo) Create(_ context.Context, doc *model.Document) error {
	if doc.DocumentID == "" {
		doc.DocumentID = m.s.nextID("doc")
	}
	cp := *doc
	m.s.documents[doc.DocumentID] = &cp
	return nil
}

func (m *mockDocumentRepo) GetByID(_ context.Context, id string) (*model.Document, error) {
	if d, ok := m.s.documents[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDocumentRepo) Delete(_ context.Context, id string) error {
	delete(m.s.documents, id)
	return nil
}

func (m *mockDocumentRepo) List(_ context.Context, filter repository.DocumentFilter) ([]model.Document, error) {
	var result []model.Document
	for _, d := range m.s.documents {
		visible := m.s.ownedInScope(filter.Scope, d.StudentID)
		if !visible && filter.Scope.SupervisorID != "" && d.UploaderSupervisorID() == filter.Scope.SupervisorID {
			visible = true
		}
		if !visible {
			continue
		}
		if filter.StudentID != "" && d.StudentID != filter.StudentID {
			continue
		}
		if filter.WeeklySubmissionID != "" && (d.WeeklySubmissionID == nil || *d.WeeklySubmissionID != filter.WeeklySubmissionID) {
			continue
		}
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DocumentID < result[j].DocumentID })
	return result, nil
}

func (m *mockDocumentRepo) AttachToSubmission(_ context.Context, submissionID, studentID string, documentIDs []string) (int64, error) {
	var n int64
	for _, id := range documentIDs {
		if d, ok := m.s.documents[id]; ok && d.StudentID == studentID {
			sid := submissionID
			d.WeeklySubmissionID = &sid
			n++
		}
	}
	return n, nil
}

// ── Mock MeetingRepository ──

type mockMeetingRepo struct{ s *mockStore }

func (m *mockMeetingRepo) view(mt *model.Meeting) *model.Meeting {
	cp := *mt
	cp.Student = m.s.studentView(mt.StudentID)
	cp.Supervisor = m.s.supervisorView(mt.SupervisorID)
	return &cp
}

func (m *mockMeetingRepo) Create(_ context.Context, meeting *model.Meeting) error {
	if meeting.MeetingID == "" {
		meeting.MeetingID = m.s.nextID("mt")
	}
	cp := *meeting
	cp.Student, cp.Supervisor = nil, nil
	m.s.meetings[meeting.MeetingID] = &cp
	return nil
}

func (m *mockMeetingRepo) GetByID(_ context.Context, id string) (*model.Meeting, error) {
	if mt, ok := m.s.meetings[id]; ok {
		return m.view(mt), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMeetingRepo) Update(_ context.Context, meeting *model.Meeting) error {
	if _, ok := m.s.meetings[meeting.MeetingID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *meeting
	cp.Student, cp.Supervisor = nil, nil
	m.s.meetings[meeting.MeetingID] = &cp
	return nil
}

func (m *mockMeetingRepo) Delete(_ context.Context, id string) error {
	delete(m.s.meetings, id)
	return nil
}

func (m *mockMeetingRepo) List(_ context.Context, filter repository.MeetingFilter) ([]model.Meeting, error) {
	var result []model.Meeting
	for _, mt := range m.s.meetings {
		if !pairInScope(filter.Scope, mt.StudentID, mt.SupervisorID) {
			continue
		}
		if filter.StudentID != "" && mt.StudentID != filter.StudentID {
			continue
		}
		if filter.SupervisorID != "" && mt.SupervisorID != filter.SupervisorID {
			continue
		}
		if filter.Status != "" && mt.Status != filter.Status {
			continue
		}
		if filter.From != nil && mt.ScheduledAt.Before(*filter.From) {
			continue
		}
		result = append(result, *m.view(mt))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result, nil
}

func (m *mockMeetingRepo) CountUpcoming(_ context.Context, scope access.Filter, from time.Time) (int64, error) {
	var n int64
	for _, mt := range m.s.meetings {
		if pairInScope(scope, mt.StudentID, mt.SupervisorID) &&
			mt.Status != model.MeetingStatusCancelled && !mt.ScheduledAt.Before(from) {
			n++
		}
	}
	return n, nil
}

// ── Mock MessageRepository ──

type mockMessageRepo struct{ s *mockStore }

func (m *mockMessageRepo) view(msg *model.Message) *model.Message {
	cp := *msg
	cp.Sender = m.s.bareUser(msg.SenderID)
	cp.Receiver = m.s.bareUser(msg.ReceiverID)
	return &cp
}

func (m *mockMessageRepo) Create(_ context.Context, msg *model.Message) error {
	if msg.MessageID == "" {
		msg.MessageID = m.s.nextID("msg")
	}
	cp := *msg
	cp.Sender, cp.Receiver = nil, nil
	m.s.messages[msg.MessageID] = &cp
	return nil
}

func (m *mockMessageRepo) GetByID(_ context.Context, id string) (*model.Message, error) {
	if msg, ok := m.s.messages[id]; ok {
		return m.view(msg), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMessageRepo) MarkRead(_ context.Context, id string, at time.Time) error {
	msg, ok := m.s.messages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	msg.IsRead = true
	msg.ReadAt = &at
	return nil
}

func (m *mockMessageRepo) List(_ context.Context, userID, withID string, offset, limit int) ([]model.Message, int64, error) {
	var result []model.Message
	for _, msg := range m.s.messages {
		if withID != "" {
			if !(msg.SenderID == userID && msg.ReceiverID == withID) &&
				!(msg.SenderID == withID && msg.ReceiverID == userID) {
				continue
			}
		} else if msg.SenderID != userID && msg.ReceiverID != userID {
			continue
		}
		result = append(result, *m.view(msg))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MessageID > result[j].MessageID })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockMessageRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, msg := range m.s.messages {
		if msg.ReceiverID == userID && !msg.IsRead {
			n++
		}
	}
	return n, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct{ s *mockStore }

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		n.NotificationID = m.s.nextID("ntf")
	}
	cp := *n
	m.s.notifications[n.NotificationID] = &cp
	return nil
}

func (m *mockNotificationRepo) BatchCreate(ctx context.Context, ns []model.Notification) error {
	for i := range ns {
		if err := m.Create(ctx, &ns[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id string) (*model.Notification, error) {
	if n, ok := m.s.notifications[id]; ok && !n.DeletedAt.Valid {
		cp := *n
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) List(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.s.notifications {
		if n.DeletedAt.Valid || n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		result = append(result, *n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NotificationID > result[j].NotificationID })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string) error {
	n, ok := m.s.notifications[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.IsRead = true
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.s.notifications {
		if n.UserID == userID && !n.IsRead && !n.DeletedAt.Valid {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id, deletedBy string) error {
	if n, ok := m.s.notifications[id]; ok {
		softDelete(&n.SoftDeleteModel, deletedBy)
	}
	return nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.s.notifications {
		if n.UserID == userID && !n.IsRead && !n.DeletedAt.Valid {
			count++
		}
	}
	return count, nil
}

// notificationsFor 测试辅助：某用户收到的通知
func (s *mockStore) notificationsFor(userID string) []model.Notification {
	var result []model.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			result = append(result, *n)
		}
	}
	return result
}

// ── Mock ReportRepository ──

type mockReportRepo struct{ s *mockStore }

func (m *mockReportRepo) groupUsers(key func(*model.User) string) []repository.GroupCount {
	counts := make(map[string]int64)
	for _, u := range m.s.users {
		if !u.DeletedAt.Valid {
			counts[key(u)]++
		}
	}
	result := make([]repository.GroupCount, 0, len(counts))
	for k, c := range counts {
		result = append(result, repository.GroupCount{Key: k, Count: c})
	}
	return result
}

func (m *mockReportRepo) CountUsersByRole(_ context.Context) ([]repository.GroupCount, error) {
	return m.groupUsers(func(u *model.User) string { return u.Role }), nil
}

func (m *mockReportRepo) CountUsersByStatus(_ context.Context) ([]repository.GroupCount, error) {
	return m.groupUsers(func(u *model.User) string { return u.Status }), nil
}

func (m *mockReportRepo) CountStudents(_ context.Context) (total, unassigned int64, err error) {
	for _, st := range m.s.students {
		if st.DeletedAt.Valid {
			continue
		}
		total++
		if st.SupervisorID == nil {
			unassigned++
		}
	}
	return total, unassigned, nil
}

func (m *mockReportRepo) AverageProgress(_ context.Context) (float64, error) {
	var sum, n int
	for _, st := range m.s.students {
		if !st.DeletedAt.Valid {
			sum += st.OverallProgress
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (m *mockReportRepo) SupervisorLoads(ctx context.Context) ([]repository.SupervisorLoad, error) {
	students := &mockStudentRepo{m.s}
	var result []repository.SupervisorLoad
	for id, sup := range m.s.supervisors {
		if sup.DeletedAt.Valid {
			continue
		}
		n, _ := students.CountBySupervisor(ctx, id)
		load := repository.SupervisorLoad{
			SupervisorID:    id,
			Department:      sup.Department,
			Capacity:        sup.Capacity,
			CurrentStudents: n,
		}
		if u := m.s.bareUser(sup.UserID); u != nil {
			load.Name = u.Name
		}
		result = append(result, load)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SupervisorID < result[j].SupervisorID })
	return result, nil
}
