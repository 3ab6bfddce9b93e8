package service

import (
	"encoding/json"
	"strings"
	"time"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
)

// ── 模型 → 响应 转换 ──

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dto.TimeLayout)
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dto.DateLayout)
}

// parseDate 解析 YYYY-MM-DD，空串返回 nil
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &t, nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        u.UserID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role,
		Status:    u.Status,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt.Format(dto.TimeLayout),
	}
	if u.Student != nil {
		resp.StudentID = u.Student.StudentID
	}
	if u.Supervisor != nil {
		resp.SupervisorID = u.Supervisor.SupervisorID
	}
	return resp
}

func toStudentResponse(s *model.Student) dto.StudentResponse {
	resp := dto.StudentResponse{
		ID:                     s.StudentID,
		UserID:                 s.UserID,
		Program:                s.Program,
		ResearchTitle:          s.ResearchTitle,
		StartDate:              formatDate(s.StartDate),
		ExpectedCompletionDate: formatDate(s.ExpectedCompletionDate),
		OverallProgress:        s.OverallProgress,
	}
	if s.User != nil {
		resp.Name = s.User.Name
		resp.Email = s.User.Email
		resp.Phone = s.User.Phone
		resp.Status = s.User.Status
	}
	if s.Supervisor != nil {
		brief := &dto.SupervisorBriefDTO{
			ID:         s.Supervisor.SupervisorID,
			UserID:     s.Supervisor.UserID,
			Department: s.Supervisor.Department,
		}
		if s.Supervisor.User != nil {
			brief.Name = s.Supervisor.User.Name
			brief.Email = s.Supervisor.User.Email
		}
		resp.Supervisor = brief
	}
	return resp
}

func toSupervisorResponse(s *model.Supervisor, current int64) dto.SupervisorResponse {
	resp := dto.SupervisorResponse{
		ID:              s.SupervisorID,
		UserID:          s.UserID,
		Department:      s.Department,
		ResearchAreas:   s.ResearchAreas,
		Capacity:        s.Capacity,
		CurrentStudents: current,
		Version:         s.Version,
	}
	if s.User != nil {
		resp.Name = s.User.Name
		resp.Email = s.User.Email
		resp.Phone = s.User.Phone
		resp.Status = s.User.Status
	}
	return resp
}

func toMilestoneResponse(m *model.Milestone) dto.MilestoneResponse {
	return dto.MilestoneResponse{
		ID:          m.MilestoneID,
		StudentID:   m.StudentID,
		Name:        m.Name,
		Description: m.Description,
		Progress:    m.Progress,
		Status:      m.Status,
		DueDate:     formatDate(m.DueDate),
		CompletedAt: formatTime(m.CompletedAt),
		CreatedAt:   m.CreatedAt.Format(dto.TimeLayout),
		UpdatedAt:   m.UpdatedAt.Format(dto.TimeLayout),
	}
}

func toDocumentResponse(d *model.Document) dto.DocumentResponse {
	resp := dto.DocumentResponse{
		ID:                     d.DocumentID,
		StudentID:              d.StudentID,
		UploadedByStudentID:    d.UploaderStudentID(),
		UploadedBySupervisorID: d.UploaderSupervisorID(),
		FileName:               d.FileName,
		MimeType:               d.MimeType,
		Size:                   d.Size,
		Description:            d.Description,
		CreatedAt:              d.CreatedAt.Format(dto.TimeLayout),
	}
	if d.WeeklySubmissionID != nil {
		resp.WeeklySubmissionID = *d.WeeklySubmissionID
	}
	return resp
}

func toWeeklySubmissionResponse(w *model.WeeklySubmission) dto.WeeklySubmissionResponse {
	resp := dto.WeeklySubmissionResponse{
		ID:                 w.SubmissionID,
		StudentID:          w.StudentID,
		WeekNumber:         w.WeekNumber,
		Status:             w.Status,
		Description:        w.Description,
		SupervisorFeedback: w.SupervisorFeedback,
		FeedbackAt:         formatTime(w.FeedbackAt),
		SubmittedAt:        formatTime(w.SubmittedAt),
	}
	for i := range w.Documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(&w.Documents[i]))
	}
	return resp
}

func toMeetingResponse(m *model.Meeting) dto.MeetingResponse {
	resp := dto.MeetingResponse{
		ID:              m.MeetingID,
		StudentID:       m.StudentID,
		SupervisorID:    m.SupervisorID,
		RequestedBy:     m.RequestedBy,
		Title:           m.Title,
		Agenda:          m.Agenda,
		ScheduledAt:     m.ScheduledAt.Format(dto.TimeLayout),
		DurationMinutes: m.DurationMinutes,
		Status:          m.Status,
		Type:            m.Type,
		Location:        m.Location,
		MeetingLink:     m.MeetingLink,
		Notes:           m.Notes,
	}
	if m.Student != nil && m.Student.User != nil {
		resp.StudentName = m.Student.User.Name
	}
	if m.Supervisor != nil && m.Supervisor.User != nil {
		resp.SupervisorName = m.Supervisor.User.Name
	}
	return resp
}

func toMessageResponse(m *model.Message) dto.MessageResponse {
	resp := dto.MessageResponse{
		ID:         m.MessageID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		ReadAt:     formatTime(m.ReadAt),
		CreatedAt:  m.CreatedAt.Format(dto.TimeLayout),
	}
	if m.Sender != nil {
		resp.SenderName = m.Sender.Name
	}
	if m.Receiver != nil {
		resp.ReceiverName = m.Receiver.Name
	}
	return resp
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	resp := dto.NotificationResponse{
		ID:        n.NotificationID,
		Type:      n.Type,
		Title:     n.Title,
		Content:   n.Content,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(dto.TimeLayout),
	}
	if n.RelatedType != nil {
		resp.RelatedType = *n.RelatedType
	}
	if n.RelatedID != nil {
		resp.RelatedID = *n.RelatedID
	}
	if len(n.Payload) > 0 {
		resp.Payload = json.RawMessage(n.Payload)
	}
	return resp
}
