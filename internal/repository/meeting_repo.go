package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pgss/backend/internal/access"
	"pgss/backend/internal/model"
)

// MeetingFilter 会议列表过滤条件
type MeetingFilter struct {
	Scope        access.Filter
	StudentID    string
	SupervisorID string
	Status       string
	From         *time.Time // 仅返回 scheduled_at >= From 的会议
}

// MeetingRepository 会议数据访问接口
type MeetingRepository interface {
	Create(ctx context.Context, meeting *model.Meeting) error
	GetByID(ctx context.Context, id string) (*model.Meeting, error)
	Update(ctx context.Context, meeting *model.Meeting) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter MeetingFilter) ([]model.Meeting, error)
	CountUpcoming(ctx context.Context, scope access.Filter, from time.Time) (int64, error)
}

type meetingRepo struct {
	db *gorm.DB
}

// NewMeetingRepo 创建 MeetingRepository 实例
func NewMeetingRepo(db *gorm.DB) MeetingRepository {
	return &meetingRepo{db: db}
}

func (r *meetingRepo) Create(ctx context.Context, meeting *model.Meeting) error {
	return r.db.WithContext(ctx).Omit("Student", "Supervisor").Create(meeting).Error
}

func (r *meetingRepo) GetByID(ctx context.Context, id string) (*model.Meeting, error) {
	var meeting model.Meeting
	err := r.db.WithContext(ctx).
		Preload("Student.User").
		Preload("Supervisor.User").
		Where("meeting_id = ?", id).
		First(&meeting).Error
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepo) Update(ctx context.Context, meeting *model.Meeting) error {
	return r.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Where("meeting_id = ?", meeting.MeetingID).
		Updates(map[string]interface{}{
			"agenda":           meeting.Agenda,
			"scheduled_at":     meeting.ScheduledAt,
			"duration_minutes": meeting.DurationMinutes,
			"status":           meeting.Status,
			"location":         meeting.Location,
			"meeting_link":     meeting.MeetingLink,
			"notes":            meeting.Notes,
			"updated_by":       meeting.UpdatedBy,
		}).Error
}

func (r *meetingRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("meeting_id = ?", id).
		Delete(&model.Meeting{}).Error
}

func (r *meetingRepo) List(ctx context.Context, filter MeetingFilter) ([]model.Meeting, error) {
	var meetings []model.Meeting

	db := applyPairScope(r.db.WithContext(ctx), filter.Scope, "student_id", "supervisor_id")
	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if filter.SupervisorID != "" {
		db = db.Where("supervisor_id = ?", filter.SupervisorID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("scheduled_at >= ?", *filter.From)
	}

	err := db.Preload("Student.User").
		Preload("Supervisor.User").
		Order("scheduled_at ASC").
		Find(&meetings).Error
	return meetings, err
}

// CountUpcoming 统计未取消且尚未开始的会议
func (r *meetingRepo) CountUpcoming(ctx context.Context, scope access.Filter, from time.Time) (int64, error) {
	var count int64
	db := applyPairScope(r.db.WithContext(ctx).Model(&model.Meeting{}), scope, "student_id", "supervisor_id")
	err := db.
		Where("scheduled_at >= ? AND status <> ?", from, model.MeetingStatusCancelled).
		Count(&count).Error
	return count, err
}
