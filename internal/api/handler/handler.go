package handler

import "pgss/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth             *AuthHandler
	User             *UserHandler
	Student          *StudentHandler
	Supervisor       *SupervisorHandler
	Milestone        *MilestoneHandler
	WeeklySubmission *WeeklySubmissionHandler
	Document         *DocumentHandler
	Meeting          *MeetingHandler
	Message          *MessageHandler
	Notification     *NotificationHandler
	Report           *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:             NewAuthHandler(svc.Auth),
		User:             NewUserHandler(svc.User),
		Student:          NewStudentHandler(svc.Student),
		Supervisor:       NewSupervisorHandler(svc.Supervisor),
		Milestone:        NewMilestoneHandler(svc.Milestone),
		WeeklySubmission: NewWeeklySubmissionHandler(svc.WeeklySubmission),
		Document:         NewDocumentHandler(svc.Document),
		Meeting:          NewMeetingHandler(svc.Meeting),
		Message:          NewMessageHandler(svc.Message),
		Notification:     NewNotificationHandler(svc.Notification),
		Report:           NewReportHandler(svc.Report),
	}
}
