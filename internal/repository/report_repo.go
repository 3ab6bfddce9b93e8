package repository

import (
	"context"

	"gorm.io/gorm"

	"pgss/backend/internal/model"
)

// GroupCount 分组计数结果
type GroupCount struct {
	Key   string
	Count int64
}

// SupervisorLoad 导师负载统计行
type SupervisorLoad struct {
	SupervisorID    string
	Name            string
	Department      string
	Capacity        int
	CurrentStudents int64
}

// ReportRepository 管理员统计报表查询接口
type ReportRepository interface {
	CountUsersByRole(ctx context.Context) ([]GroupCount, error)
	CountUsersByStatus(ctx context.Context) ([]GroupCount, error)
	CountStudents(ctx context.Context) (total, unassigned int64, err error)
	AverageProgress(ctx context.Context) (float64, error)
	SupervisorLoads(ctx context.Context) ([]SupervisorLoad, error)
}

type reportRepo struct {
	db *gorm.DB
}

// NewReportRepo 创建 ReportRepository 实例
func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) countUsersBy(ctx context.Context, column string) ([]GroupCount, error) {
	var rows []GroupCount
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) CountUsersByRole(ctx context.Context) ([]GroupCount, error) {
	return r.countUsersBy(ctx, "role")
}

func (r *reportRepo) CountUsersByStatus(ctx context.Context) ([]GroupCount, error) {
	return r.countUsersBy(ctx, "status")
}

func (r *reportRepo) CountStudents(ctx context.Context) (total, unassigned int64, err error) {
	db := r.db.WithContext(ctx)
	if err = db.Model(&model.Student{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = db.Model(&model.Student{}).Where("supervisor_id IS NULL").Count(&unassigned).Error; err != nil {
		return 0, 0, err
	}
	return total, unassigned, nil
}

func (r *reportRepo) AverageProgress(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Select("COALESCE(AVG(overall_progress), 0)").
		Scan(&avg).Error
	return avg, err
}

func (r *reportRepo) SupervisorLoads(ctx context.Context) ([]SupervisorLoad, error) {
	var rows []SupervisorLoad
	err := r.db.WithContext(ctx).
		Table("supervisors").
		Select(`supervisors.supervisor_id, users.name, supervisors.department, supervisors.capacity,
			(SELECT COUNT(*) FROM students s WHERE s.supervisor_id = supervisors.supervisor_id AND s.deleted_at IS NULL) AS current_students`).
		Joins("JOIN users ON users.user_id = supervisors.user_id AND users.deleted_at IS NULL").
		Where("supervisors.deleted_at IS NULL").
		Order("users.name ASC").
		Scan(&rows).Error
	return rows, err
}
