package repository

import (
	"context"

	"gorm.io/gorm"

	"pgss/backend/internal/access"
	"pgss/backend/internal/model"
)

// MilestoneFilter 里程碑列表过滤条件
type MilestoneFilter struct {
	Scope     access.Filter
	StudentID string
	Status    string
}

// MilestoneRepository 里程碑数据访问接口
type MilestoneRepository interface {
	Create(ctx context.Context, milestone *model.Milestone) error
	GetByID(ctx context.Context, id string) (*model.Milestone, error)
	Update(ctx context.Context, milestone *model.Milestone) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter MilestoneFilter) ([]model.Milestone, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Milestone, error)
}

type milestoneRepo struct {
	db *gorm.DB
}

// NewMilestoneRepo 创建 MilestoneRepository 实例
func NewMilestoneRepo(db *gorm.DB) MilestoneRepository {
	return &milestoneRepo{db: db}
}

func (r *milestoneRepo) Create(ctx context.Context, milestone *model.Milestone) error {
	return r.db.WithContext(ctx).Create(milestone).Error
}

func (r *milestoneRepo) GetByID(ctx context.Context, id string) (*model.Milestone, error) {
	var milestone model.Milestone
	err := r.db.WithContext(ctx).
		Where("milestone_id = ?", id).
		First(&milestone).Error
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (r *milestoneRepo) Update(ctx context.Context, milestone *model.Milestone) error {
	return r.db.WithContext(ctx).
		Model(&model.Milestone{}).
		Where("milestone_id = ?", milestone.MilestoneID).
		Updates(map[string]interface{}{
			"name":         milestone.Name,
			"description":  milestone.Description,
			"progress":     milestone.Progress,
			"status":       milestone.Status,
			"due_date":     milestone.DueDate,
			"completed_at": milestone.CompletedAt,
			"updated_by":   milestone.UpdatedBy,
		}).Error
}

func (r *milestoneRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("milestone_id = ?", id).
		Delete(&model.Milestone{}).Error
}

func (r *milestoneRepo) List(ctx context.Context, filter MilestoneFilter) ([]model.Milestone, error) {
	var milestones []model.Milestone

	db := applyOwnedScope(r.db.WithContext(ctx), filter.Scope, "student_id")
	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	err := db.Order("due_date ASC NULLS LAST").
		Order("created_at ASC").
		Find(&milestones).Error
	return milestones, err
}

func (r *milestoneRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Milestone, error) {
	return r.List(ctx, MilestoneFilter{StudentID: studentID})
}
