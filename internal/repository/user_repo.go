package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"pgss/backend/internal/model"
)

// UserFilter 用户列表过滤条件
type UserFilter struct {
	Role   string
	Status string
	Search string // 姓名或邮箱模糊匹配，大小写不敏感
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id, deletedBy string) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error)
	ListAdmins(ctx context.Context) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit("Student", "Supervisor").Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Supervisor").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail 邮箱大小写不敏感
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Supervisor").
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", user.UserID).
		Updates(map[string]interface{}{
			"email":      user.Email,
			"name":       user.Name,
			"phone":      user.Phone,
			"status":     user.Status,
			"avatar":     user.Avatar,
			"updated_by": user.UpdatedBy,
		}).Error
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *userRepo) Delete(ctx context.Context, id, deletedBy string) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.User{}).
		Where("user_id = ?", id).
		Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return db.Where("user_id = ?", id).Delete(&model.User{}).Error
}

func (r *userRepo) List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := likePattern(strings.ToLower(s))
		db = db.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", p, p)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Student").
		Preload("Supervisor").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) ListAdmins(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND status = ?", model.RoleAdministrator, model.UserStatusActive).
		Find(&users).Error
	return users, err
}
