package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pgss/backend/config"
	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
	"pgss/backend/internal/repository"
	"pgss/backend/pkg/mail"
)

// MeetingService 指导会议业务接口
//
// 状态流转：
//   - 新建会议为 pending，由对方（或管理员）确认为 confirmed
//   - pending / confirmed 可由任一方取消；cancelled 为终态
//   - 改期后回到 pending，由另一方重新确认
type MeetingService interface {
	List(ctx context.Context, caller *access.Caller, req *dto.MeetingListRequest) ([]dto.MeetingResponse, error)
	Create(ctx context.Context, caller *access.Caller, req *dto.CreateMeetingRequest) (*dto.MeetingResponse, error)
	GetByID(ctx context.Context, caller *access.Caller, id string) (*dto.MeetingResponse, error)
	Update(ctx context.Context, caller *access.Caller, id string, req *dto.UpdateMeetingRequest) (*dto.MeetingResponse, error)
	Delete(ctx context.Context, caller *access.Caller, id string) error
	// Calendar 导出当前用户未取消的会议为 iCalendar
	Calendar(ctx context.Context, caller *access.Caller) ([]byte, error)
}

const defaultMeetingMinutes = 60

type meetingService struct {
	linkBase string
	repo     *repository.Repository
	notifier *notifier
	mailer   mail.Mailer
	logger   *zap.Logger
	now      func() time.Time
}

// NewMeetingService 创建 MeetingService 实例
func NewMeetingService(cfg *config.MeetingConfig, repo *repository.Repository, n *notifier, mailer mail.Mailer, logger *zap.Logger) MeetingService {
	return &meetingService{
		linkBase: strings.TrimRight(cfg.LinkBase, "/"),
		repo:     repo,
		notifier: n,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── List ──────────────────────

func (s *meetingService) List(ctx context.Context, caller *access.Caller, req *dto.MeetingListRequest) ([]dto.MeetingResponse, error) {
	filter := repository.MeetingFilter{
		Scope: access.Narrow(caller, access.Filter{
			StudentID:    req.StudentID,
			SupervisorID: req.SupervisorID,
		}),
		Status: req.Status,
	}
	if req.Upcoming {
		now := s.now()
		filter.From = &now
	}

	meetings, err := s.repo.Meeting.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询会议列表失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.MeetingResponse, 0, len(meetings))
	for i := range meetings {
		list = append(list, toMeetingResponse(&meetings[i]))
	}
	return list, nil
}

// ────────────────────── Create ──────────────────────

func (s *meetingService) Create(ctx context.Context, caller *access.Caller, req *dto.CreateMeetingRequest) (*dto.MeetingResponse, error) {
	studentID := req.StudentID
	if caller.IsStudent() {
		if studentID != "" && studentID != caller.StudentID {
			return nil, ErrForbidden
		}
		studentID = caller.StudentID
	}
	if studentID == "" {
		return nil, ErrStudentRequired
	}

	student, res, err := studentResource(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, res, access.Write); err != nil {
		return nil, err
	}
	if student.SupervisorID == nil {
		return nil, ErrNoSupervisorAssigned
	}

	if !req.ScheduledAt.After(s.now()) {
		return nil, ErrMeetingInPast
	}
	if req.Type == model.MeetingTypeInPerson && strings.TrimSpace(req.Location) == "" {
		return nil, ErrMeetingLocationRequired
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = defaultMeetingMinutes
	}

	meeting := &model.Meeting{
		StudentID:       student.StudentID,
		SupervisorID:    *student.SupervisorID,
		RequestedBy:     caller.UserID,
		Title:           strings.TrimSpace(req.Title),
		Agenda:          req.Agenda,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: duration,
		Status:          model.MeetingStatusPending,
		Type:            req.Type,
		Location:        req.Location,
		BaseModel:       model.BaseModel{CreatedBy: &caller.UserID},
	}
	if meeting.Type == model.MeetingTypeOnline {
		meeting.MeetingLink = s.linkBase + "/" + uuid.NewString()
	}

	if err := s.repo.Meeting.Create(ctx, meeting); err != nil {
		s.logger.Error("创建会议失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Meeting.GetByID(ctx, meeting.MeetingID)
	if err != nil {
		return nil, err
	}

	content := fmt.Sprintf("%s（%s）", created.Title, created.ScheduledAt.Format("2006-01-02 15:04"))
	s.notifyParticipants(ctx, caller, created, model.NotificationMeetingRequested, "新的会议预约", content)

	resp := toMeetingResponse(created)
	return &resp, nil
}

// participants 返回会议双方的用户记录
func participants(m *model.Meeting) (student, supervisor *model.User) {
	if m.Student != nil {
		student = m.Student.User
	}
	if m.Supervisor != nil {
		supervisor = m.Supervisor.User
	}
	return
}

// notifyParticipants 通知除操作者外的会议参与方
func (s *meetingService) notifyParticipants(ctx context.Context, caller *access.Caller, m *model.Meeting, typ, title, content string) {
	studentUser, supervisorUser := participants(m)
	payload := map[string]interface{}{"status": m.Status, "scheduled_at": m.ScheduledAt.Format(dto.TimeLayout)}

	var ns []model.Notification
	for _, u := range []*model.User{studentUser, supervisorUser} {
		if u == nil || u.UserID == caller.UserID {
			continue
		}
		ns = appendNotification(ns, u.UserID, typ, title, content, "meeting", m.MeetingID, payload)
	}
	s.notifier.send(ctx, ns...)
}

// load 加载会议并校验访问权限
func (s *meetingService) load(ctx context.Context, caller *access.Caller, id string, action access.Action) (*model.Meeting, error) {
	meeting, err := s.repo.Meeting.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrMeetingNotFound)
	}
	res := access.Resource{StudentID: meeting.StudentID, SupervisorID: meeting.SupervisorID}
	if err := access.Check(caller, res, action); err != nil {
		return nil, err
	}
	return meeting, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *meetingService) GetByID(ctx context.Context, caller *access.Caller, id string) (*dto.MeetingResponse, error) {
	meeting, err := s.load(ctx, caller, id, access.Read)
	if err != nil {
		return nil, err
	}
	resp := toMeetingResponse(meeting)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *meetingService) Update(ctx context.Context, caller *access.Caller, id string, req *dto.UpdateMeetingRequest) (*dto.MeetingResponse, error) {
	meeting, err := s.load(ctx, caller, id, access.Write)
	if err != nil {
		return nil, err
	}
	if meeting.Status == model.MeetingStatusCancelled {
		return nil, ErrInvalidStatusTransition
	}

	prevStatus := meeting.Status
	rescheduled := false

	if req.ScheduledAt != nil && !req.ScheduledAt.Equal(meeting.ScheduledAt) {
		if !req.ScheduledAt.After(s.now()) {
			return nil, ErrMeetingInPast
		}
		meeting.ScheduledAt = *req.ScheduledAt
		meeting.Status = model.MeetingStatusPending
		meeting.RequestedBy = caller.UserID
		rescheduled = true
	}
	if req.DurationMinutes != nil {
		meeting.DurationMinutes = *req.DurationMinutes
	}
	if req.Location != nil {
		meeting.Location = *req.Location
	}
	if req.Agenda != nil {
		meeting.Agenda = *req.Agenda
	}
	if req.Notes != nil {
		meeting.Notes = *req.Notes
	}
	if meeting.Type == model.MeetingTypeInPerson && strings.TrimSpace(meeting.Location) == "" {
		return nil, ErrMeetingLocationRequired
	}

	if req.Status != nil && *req.Status != meeting.Status {
		switch *req.Status {
		case model.MeetingStatusConfirmed:
			if rescheduled {
				return nil, ErrInvalidStatusTransition
			}
			if !caller.IsAdmin() && caller.UserID == meeting.RequestedBy {
				return nil, ErrOnlyCounterpartConfirm
			}
			meeting.Status = model.MeetingStatusConfirmed
		case model.MeetingStatusCancelled:
			meeting.Status = model.MeetingStatusCancelled
		default:
			return nil, ErrInvalidStatusTransition
		}
	}
	meeting.UpdatedBy = &caller.UserID

	if err := s.repo.Meeting.Update(ctx, meeting); err != nil {
		s.logger.Error("更新会议失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	var title string
	switch {
	case meeting.Status == model.MeetingStatusConfirmed && prevStatus != model.MeetingStatusConfirmed:
		title = "会议已确认"
	case meeting.Status == model.MeetingStatusCancelled:
		title = "会议已取消"
	case rescheduled:
		title = "会议已改期"
	default:
		title = "会议信息已更新"
	}
	content := fmt.Sprintf("%s（%s）", meeting.Title, meeting.ScheduledAt.Format("2006-01-02 15:04"))
	s.notifyParticipants(ctx, caller, meeting, model.NotificationMeetingUpdated, title, content)

	if meeting.Status == model.MeetingStatusConfirmed && prevStatus != model.MeetingStatusConfirmed {
		text := content
		if meeting.MeetingLink != "" {
			text += "\n会议链接: " + meeting.MeetingLink
		} else if meeting.Location != "" {
			text += "\n地点: " + meeting.Location
		}
		studentUser, supervisorUser := participants(meeting)
		sendMail(ctx, s.mailer, s.logger, studentUser, title, text)
		sendMail(ctx, s.mailer, s.logger, supervisorUser, title, text)
	}

	resp := toMeetingResponse(meeting)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *meetingService) Delete(ctx context.Context, caller *access.Caller, id string) error {
	meeting, err := s.load(ctx, caller, id, access.Write)
	if err != nil {
		return err
	}
	if err := s.repo.Meeting.Delete(ctx, meeting.MeetingID); err != nil {
		s.logger.Error("删除会议失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Calendar ──────────────────────

func (s *meetingService) Calendar(ctx context.Context, caller *access.Caller) ([]byte, error) {
	meetings, err := s.repo.Meeting.List(ctx, repository.MeetingFilter{Scope: access.Scope(caller)})
	if err != nil {
		s.logger.Error("查询会议失败", zap.Error(err))
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//pgss//meetings//ZH")

	stamp := s.now()
	for i := range meetings {
		m := &meetings[i]
		if m.Status == model.MeetingStatusCancelled {
			continue
		}

		event := cal.AddEvent(m.MeetingID + "@pgss")
		event.SetDtStampTime(stamp)
		event.SetStartAt(m.ScheduledAt)
		event.SetEndAt(m.ScheduledAt.Add(time.Duration(m.DurationMinutes) * time.Minute))
		event.SetSummary(m.Title)
		if m.Agenda != "" {
			event.SetDescription(m.Agenda)
		}
		if m.Location != "" {
			event.SetLocation(m.Location)
		}
		if m.MeetingLink != "" {
			event.SetURL(m.MeetingLink)
		}
		if m.Status == model.MeetingStatusConfirmed {
			event.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			event.SetStatus(ics.ObjectStatusTentative)
		}
	}

	return []byte(cal.Serialize()), nil
}
