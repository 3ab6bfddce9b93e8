package repository

import (
	"context"

	"gorm.io/gorm"

	"pgss/backend/internal/access"
	"pgss/backend/internal/model"
)

// WeeklySubmissionFilter 周报列表过滤条件
type WeeklySubmissionFilter struct {
	Scope     access.Filter
	StudentID string
	Week      int
	Status    string
}

// WeeklySubmissionRepository 周报数据访问接口
type WeeklySubmissionRepository interface {
	Create(ctx context.Context, submission *model.WeeklySubmission) error
	GetByID(ctx context.Context, id string) (*model.WeeklySubmission, error)
	GetByStudentWeek(ctx context.Context, studentID string, week int) (*model.WeeklySubmission, error)
	Update(ctx context.Context, submission *model.WeeklySubmission) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter WeeklySubmissionFilter) ([]model.WeeklySubmission, error)
	CountSubmitted(ctx context.Context, studentID string) (int64, error)
	CountPendingFeedback(ctx context.Context, scope access.Filter) (int64, error)
}

type weeklySubmissionRepo struct {
	db *gorm.DB
}

// NewWeeklySubmissionRepo 创建 WeeklySubmissionRepository 实例
func NewWeeklySubmissionRepo(db *gorm.DB) WeeklySubmissionRepository {
	return &weeklySubmissionRepo{db: db}
}

func (r *weeklySubmissionRepo) Create(ctx context.Context, submission *model.WeeklySubmission) error {
	return r.db.WithContext(ctx).Omit("Documents").Create(submission).Error
}

func (r *weeklySubmissionRepo) GetByID(ctx context.Context, id string) (*model.WeeklySubmission, error) {
	var submission model.WeeklySubmission
	err := r.db.WithContext(ctx).
		Preload("Documents").
		Where("submission_id = ?", id).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *weeklySubmissionRepo) GetByStudentWeek(ctx context.Context, studentID string, week int) (*model.WeeklySubmission, error) {
	var submission model.WeeklySubmission
	err := r.db.WithContext(ctx).
		Preload("Documents").
		Where("student_id = ? AND week_number = ?", studentID, week).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *weeklySubmissionRepo) Update(ctx context.Context, submission *model.WeeklySubmission) error {
	return r.db.WithContext(ctx).
		Model(&model.WeeklySubmission{}).
		Where("submission_id = ?", submission.SubmissionID).
		Updates(map[string]interface{}{
			"status":              submission.Status,
			"description":         submission.Description,
			"supervisor_feedback": submission.SupervisorFeedback,
			"feedback_at":         submission.FeedbackAt,
			"submitted_at":        submission.SubmittedAt,
			"updated_by":          submission.UpdatedBy,
		}).Error
}

func (r *weeklySubmissionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("submission_id = ?", id).
		Delete(&model.WeeklySubmission{}).Error
}

func (r *weeklySubmissionRepo) List(ctx context.Context, filter WeeklySubmissionFilter) ([]model.WeeklySubmission, error) {
	var submissions []model.WeeklySubmission

	db := applyOwnedScope(r.db.WithContext(ctx), filter.Scope, "student_id")
	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if filter.Week > 0 {
		db = db.Where("week_number = ?", filter.Week)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	err := db.Preload("Documents").
		Order("student_id ASC").
		Order("week_number ASC").
		Find(&submissions).Error
	return submissions, err
}

func (r *weeklySubmissionRepo) CountSubmitted(ctx context.Context, studentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WeeklySubmission{}).
		Where("student_id = ? AND status = ?", studentID, model.SubmissionStatusSubmitted).
		Count(&count).Error
	return count, err
}

// CountPendingFeedback 已提交但尚无导师反馈的周报数量
func (r *weeklySubmissionRepo) CountPendingFeedback(ctx context.Context, scope access.Filter) (int64, error) {
	var count int64
	db := applyOwnedScope(r.db.WithContext(ctx).Model(&model.WeeklySubmission{}), scope, "student_id")
	err := db.
		Where("status = ? AND feedback_at IS NULL", model.SubmissionStatusSubmitted).
		Count(&count).Error
	return count, err
}
