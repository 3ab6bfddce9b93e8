package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"pgss/backend/internal/access"
	"pgss/backend/internal/model"
)

// StudentFilter 学生列表过滤条件
type StudentFilter struct {
	Scope        access.Filter
	SupervisorID string
	Search       string
	Status       string // 账号状态
	Unassigned   bool
}

// StudentRepository 学生档案数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByUserID(ctx context.Context, userID string) (*model.Student, error)
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filter StudentFilter, offset, limit int) ([]model.Student, int64, error)
	SetSupervisor(ctx context.Context, studentID string, supervisorID *string, updatedBy string) error
	UnassignBySupervisor(ctx context.Context, supervisorID, updatedBy string) (int64, error)
	CountBySupervisor(ctx context.Context, supervisorID string) (int64, error)
	CountBySupervisors(ctx context.Context, supervisorIDs []string) (map[string]int64, error)
	UpdateProgress(ctx context.Context, studentID string, progress int) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Omit("User", "Supervisor").Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Supervisor.User").
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByUserID(ctx context.Context, userID string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", student.StudentID).
		Updates(map[string]interface{}{
			"program":                  student.Program,
			"research_title":           student.ResearchTitle,
			"start_date":               student.StartDate,
			"expected_completion_date": student.ExpectedCompletionDate,
			"updated_by":               student.UpdatedBy,
		}).Error
}

func (r *studentRepo) Delete(ctx context.Context, id, deletedBy string) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Student{}).
		Where("student_id = ?", id).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return db.Where("student_id = ?", id).Delete(&model.Student{}).Error
}

func (r *studentRepo) List(ctx context.Context, filter StudentFilter, offset, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Joins("JOIN users ON users.user_id = students.user_id AND users.deleted_at IS NULL")
	db = applyPairScope(db, filter.Scope, "students.student_id", "students.supervisor_id")

	if filter.SupervisorID != "" {
		db = db.Where("students.supervisor_id = ?", filter.SupervisorID)
	}
	if filter.Unassigned {
		db = db.Where("students.supervisor_id IS NULL")
	}
	if filter.Status != "" {
		db = db.Where("users.status = ?", filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := likePattern(strings.ToLower(s))
		db = db.Where("(LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(students.research_title) LIKE ?)", p, p, p)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("User").
		Preload("Supervisor.User").
		Order("students.created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepo) SetSupervisor(ctx context.Context, studentID string, supervisorID *string, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", studentID).
		Updates(map[string]interface{}{
			"supervisor_id": supervisorID,
			"updated_by":    updatedBy,
		}).Error
}

// UnassignBySupervisor 解除某导师名下全部学生，返回受影响数量
func (r *studentRepo) UnassignBySupervisor(ctx context.Context, supervisorID, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("supervisor_id = ?", supervisorID).
		Updates(map[string]interface{}{
			"supervisor_id": nil,
			"updated_by":    updatedBy,
		})
	return result.RowsAffected, result.Error
}

func (r *studentRepo) CountBySupervisor(ctx context.Context, supervisorID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("supervisor_id = ?", supervisorID).
		Count(&count).Error
	return count, err
}

func (r *studentRepo) CountBySupervisors(ctx context.Context, supervisorIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(supervisorIDs))
	if len(supervisorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SupervisorID string
		Count        int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Select("supervisor_id, COUNT(*) AS count").
		Where("supervisor_id IN ?", supervisorIDs).
		Group("supervisor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SupervisorID] = row.Count
	}
	return counts, nil
}

func (r *studentRepo) UpdateProgress(ctx context.Context, studentID string, progress int) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", studentID).
		Update("overall_progress", progress).Error
}
