package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pgss/backend/internal/model"
	apperrors "pgss/backend/pkg/errors"
)

// SupervisorFilter 导师列表过滤条件
type SupervisorFilter struct {
	Search        string
	Department    string
	AvailableOnly bool // 仅返回仍有名额的导师
}

// SupervisorRepository 导师档案数据访问接口
type SupervisorRepository interface {
	Create(ctx context.Context, supervisor *model.Supervisor) error
	GetByID(ctx context.Context, id string) (*model.Supervisor, error)
	GetByUserID(ctx context.Context, userID string) (*model.Supervisor, error)
	// GetForUpdate 行级锁定导师记录，必须在事务内调用
	GetForUpdate(ctx context.Context, id string) (*model.Supervisor, error)
	Update(ctx context.Context, supervisor *model.Supervisor) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filter SupervisorFilter, offset, limit int) ([]model.Supervisor, int64, error)
}

type supervisorRepo struct {
	db *gorm.DB
}

// NewSupervisorRepo 创建 SupervisorRepository 实例
func NewSupervisorRepo(db *gorm.DB) SupervisorRepository {
	return &supervisorRepo{db: db}
}

func (r *supervisorRepo) Create(ctx context.Context, supervisor *model.Supervisor) error {
	return r.db.WithContext(ctx).Omit("User").Create(supervisor).Error
}

func (r *supervisorRepo) GetByID(ctx context.Context, id string) (*model.Supervisor, error) {
	var supervisor model.Supervisor
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("supervisor_id = ?", id).
		First(&supervisor).Error
	if err != nil {
		return nil, err
	}
	return &supervisor, nil
}

func (r *supervisorRepo) GetByUserID(ctx context.Context, userID string) (*model.Supervisor, error) {
	var supervisor model.Supervisor
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&supervisor).Error
	if err != nil {
		return nil, err
	}
	return &supervisor, nil
}

func (r *supervisorRepo) GetForUpdate(ctx context.Context, id string) (*model.Supervisor, error) {
	var supervisor model.Supervisor
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("supervisor_id = ?", id).
		First(&supervisor).Error
	if err != nil {
		return nil, err
	}
	return &supervisor, nil
}

// Update 带乐观锁的更新，版本不匹配时返回 ErrOptimisticLock
func (r *supervisorRepo) Update(ctx context.Context, supervisor *model.Supervisor) error {
	oldVersion := supervisor.Version
	result := r.db.WithContext(ctx).
		Model(&model.Supervisor{}).
		Where("supervisor_id = ? AND version = ?", supervisor.SupervisorID, oldVersion).
		Updates(map[string]interface{}{
			"department":     supervisor.Department,
			"research_areas": supervisor.ResearchAreas,
			"capacity":       supervisor.Capacity,
			"updated_by":     supervisor.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrOptimisticLock
	}
	supervisor.Version = oldVersion + 1
	return nil
}

func (r *supervisorRepo) Delete(ctx context.Context, id, deletedBy string) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Supervisor{}).
		Where("supervisor_id = ?", id).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return db.Where("supervisor_id = ?", id).Delete(&model.Supervisor{}).Error
}

func (r *supervisorRepo) List(ctx context.Context, filter SupervisorFilter, offset, limit int) ([]model.Supervisor, int64, error) {
	var supervisors []model.Supervisor
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.Supervisor{}).
		Joins("JOIN users ON users.user_id = supervisors.user_id AND users.deleted_at IS NULL")

	if filter.Department != "" {
		db = db.Where("supervisors.department = ?", filter.Department)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := likePattern(strings.ToLower(s))
		db = db.Where("(LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(supervisors.research_areas) LIKE ?)", p, p, p)
	}
	if filter.AvailableOnly {
		db = db.Where("supervisors.capacity > (SELECT COUNT(*) FROM students s WHERE s.supervisor_id = supervisors.supervisor_id AND s.deleted_at IS NULL)")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Preload("User").Order("users.name ASC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	if err := q.Find(&supervisors).Error; err != nil {
		return nil, 0, err
	}

	return supervisors, total, nil
}
