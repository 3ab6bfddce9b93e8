package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
	"pgss/backend/internal/repository"
	apperrors "pgss/backend/pkg/errors"
)

// UserService 用户业务接口（管理员）
type UserService interface {
	CreateUser(ctx context.Context, caller *access.Caller, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, caller *access.Caller, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, caller *access.Caller, id string) error
	ParseImportFile(reader io.Reader) ([]ImportStudentRow, error)
	ImportStudents(ctx context.Context, caller *access.Caller, rows []ImportStudentRow) (*dto.ImportStudentResponse, error)
}

// ImportStudentRow Excel 导入解析后的单行数据
type ImportStudentRow struct {
	Row             int
	Name            string
	Email           string
	Program         string
	ResearchTitle   string
	SupervisorEmail string
	Password        string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ── 用户与档案创建（注册、管理员创建、批量导入共用） ──

type profileInput struct {
	Program                string
	ResearchTitle          string
	StartDate              *time.Time
	ExpectedCompletionDate *time.Time
	SupervisorID           *string

	Department    string
	ResearchAreas string
	Capacity      *int
}

type newUserInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     string
	Status   string
	profile  profileInput
}

const defaultSupervisorCapacity = 5

// createUserWithProfile 在同一事务中创建用户与角色档案
// 学生指定导师时按容量规则分配
func createUserWithProfile(ctx context.Context, repo *repository.Repository, logger *zap.Logger, in newUserInput, callerID string) (*model.User, error) {
	p := in.profile
	if p.StartDate != nil && p.ExpectedCompletionDate != nil && p.ExpectedCompletionDate.Before(*p.StartDate) {
		return nil, ErrCompletionBeforeStart
	}

	// 检查邮箱唯一性
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("查询邮箱失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = model.UserStatusActive
	}

	var audit model.BaseModel
	if callerID != "" {
		audit.CreatedBy = &callerID
	}

	user := &model.User{
		Email:           email,
		PasswordHash:    string(hash),
		Name:            strings.TrimSpace(in.Name),
		Phone:           in.Phone,
		Role:            in.Role,
		Status:          status,
		SoftDeleteModel: model.SoftDeleteModel{BaseModel: audit},
	}

	err = runInTx(ctx, repo, logger, func(txRepo *repository.Repository) error {
		if err := txRepo.User.Create(ctx, user); err != nil {
			return err
		}

		switch user.Role {
		case model.RoleStudent:
			student := &model.Student{
				UserID:                 user.UserID,
				Program:                p.Program,
				ResearchTitle:          p.ResearchTitle,
				StartDate:              p.StartDate,
				ExpectedCompletionDate: p.ExpectedCompletionDate,
				SoftDeleteModel:        model.SoftDeleteModel{BaseModel: audit},
			}
			if err := txRepo.Student.Create(ctx, student); err != nil {
				return err
			}
			if p.SupervisorID != nil && *p.SupervisorID != "" {
				if err := lockAndAssign(ctx, txRepo, student.StudentID, *p.SupervisorID, callerID); err != nil {
					return err
				}
			}

		case model.RoleSupervisor:
			capacity := defaultSupervisorCapacity
			if p.Capacity != nil {
				capacity = *p.Capacity
			}
			supervisor := &model.Supervisor{
				UserID:         user.UserID,
				Department:     p.Department,
				ResearchAreas:  p.ResearchAreas,
				Capacity:       capacity,
				VersionedModel: model.VersionedModel{SoftDeleteModel: model.SoftDeleteModel{BaseModel: audit}},
			}
			if err := txRepo.Supervisor.Create(ctx, supervisor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		if _, ok := apperrors.As(err); !ok {
			logger.Error("创建用户失败", zap.String("email", email), zap.Error(err))
		}
		return nil, err
	}

	created, err := repo.User.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ────────────────────── CreateUser ──────────────────────

func (s *userService) CreateUser(ctx context.Context, caller *access.Caller, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	expected, err := parseDate(req.ExpectedCompletionDate)
	if err != nil {
		return nil, err
	}

	password := req.Password
	var tempPassword string
	if password == "" {
		if tempPassword, err = generateTempPassword(10); err != nil {
			s.logger.Error("生成临时密码失败", zap.Error(err))
			return nil, err
		}
		password = tempPassword
	}

	user, err := createUserWithProfile(ctx, s.repo, s.logger, newUserInput{
		Email:    req.Email,
		Password: password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     req.Role,
		Status:   req.Status,
		profile: profileInput{
			Program:                req.Program,
			ResearchTitle:          req.ResearchTitle,
			StartDate:              start,
			ExpectedCompletionDate: expected,
			SupervisorID:           req.SupervisorID,
			Department:             req.Department,
			ResearchAreas:          req.ResearchAreas,
			Capacity:               req.Capacity,
		},
	}, caller.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("管理员创建用户",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role),
		zap.String("operator", caller.UserID),
	)
	return &dto.CreateUserResponse{User: toUserResponse(user), TempPassword: tempPassword}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, repository.UserFilter{
		Role:   req.Role,
		Status: req.Status,
		Search: req.Search,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, toUserResponse(&users[i]))
	}
	return list, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, caller *access.Caller, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != strings.ToLower(user.Email) {
			if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailExists
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.Status != nil {
		if id == caller.UserID && *req.Status != model.UserStatusActive {
			return nil, ErrUserSelfStatus
		}
		user.Status = *req.Status
	}
	user.UpdatedBy = &caller.UserID

	if err := s.repo.User.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 软删除用户及其档案
// 学生档案删除后自动从导师计数中移除；删除导师时解除其全部学生的分配
func (s *userService) Delete(ctx context.Context, caller *access.Caller, id string) error {
	if id == caller.UserID {
		return ErrUserSelfDelete
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if user.Student != nil {
			if err := txRepo.Student.Delete(ctx, user.Student.StudentID, caller.UserID); err != nil {
				return err
			}
		}
		if user.Supervisor != nil {
			if _, err := txRepo.Student.UnassignBySupervisor(ctx, user.Supervisor.SupervisorID, caller.UserID); err != nil {
				return err
			}
			if err := txRepo.Supervisor.Delete(ctx, user.Supervisor.SupervisorID, caller.UserID); err != nil {
				return err
			}
		}
		return txRepo.User.Delete(ctx, user.UserID, caller.UserID)
	})
	if err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("删除用户", zap.String("user_id", id), zap.String("operator", caller.UserID))
	return nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

// ParseImportFile 解析学生导入 Excel 文件，返回解析后的行数据
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportStudentRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		s.logger.Warn("解析导入文件失败", zap.Error(err))
		return nil, ErrImportBadFile
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["name"] < 0 || colIndex["email"] < 0 {
		return nil, ErrImportBadHeader
	}

	cellAt := func(row []string, key string) string {
		if idx := colIndex[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportStudentRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportStudentRow{
			Row:             i + 1,
			Name:            cellAt(row, "name"),
			Email:           cellAt(row, "email"),
			Program:         cellAt(row, "program"),
			ResearchTitle:   cellAt(row, "research_title"),
			SupervisorEmail: cellAt(row, "supervisor_email"),
			Password:        cellAt(row, "password"),
		}

		// 跳过全空行
		if item.Name == "" && item.Email == "" && item.Program == "" && item.SupervisorEmail == "" {
			continue
		}

		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"name":             -1,
		"email":            -1,
		"program":          -1,
		"research_title":   -1,
		"supervisor_email": -1,
		"password":         -1,
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch lower {
		case "姓名", "name":
			idx["name"] = i
		case "邮箱", "email":
			idx["email"] = i
		case "专业", "program":
			idx["program"] = i
		case "研究题目", "research_title":
			idx["research_title"] = i
		case "导师邮箱", "supervisor_email":
			idx["supervisor_email"] = i
		case "初始密码", "password":
			idx["password"] = i
		}
	}
	return idx
}

// ────────────────────── ImportStudents ──────────────────────

// ImportStudents 逐行创建学生账号，每行独立事务，失败行记入错误列表
func (s *userService) ImportStudents(ctx context.Context, caller *access.Caller, rows []ImportStudentRow) (*dto.ImportStudentResponse, error) {
	resp := &dto.ImportStudentResponse{Total: len(rows)}
	seen := make(map[string]int, len(rows))

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportStudentError{Row: row, Reason: reason})
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// 校验必填字段
		if row.Name == "" || row.Email == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		email := strings.ToLower(row.Email)
		if first, dup := seen[email]; dup {
			fail(row.Row, fmt.Sprintf("邮箱与第 %d 行重复", first))
			continue
		}
		seen[email] = row.Row

		// 查找导师
		var supervisorID *string
		if row.SupervisorEmail != "" {
			supUser, err := s.repo.User.GetByEmail(ctx, row.SupervisorEmail)
			if err != nil || supUser.Supervisor == nil {
				fail(row.Row, fmt.Sprintf("导师不存在: %s", row.SupervisorEmail))
				continue
			}
			supervisorID = &supUser.Supervisor.SupervisorID
		}

		password := row.Password
		generated := false
		if password == "" {
			pwd, err := generateTempPassword(10)
			if err != nil {
				return nil, err
			}
			password, generated = pwd, true
		} else if len(password) < 8 {
			fail(row.Row, "初始密码至少 8 位")
			continue
		}

		user, err := createUserWithProfile(ctx, s.repo, s.logger, newUserInput{
			Email:    email,
			Password: password,
			Name:     row.Name,
			Role:     model.RoleStudent,
			Status:   model.UserStatusActive,
			profile: profileInput{
				Program:       row.Program,
				ResearchTitle: row.ResearchTitle,
				SupervisorID:  supervisorID,
			},
		}, caller.UserID)
		if err != nil {
			if appErr, ok := apperrors.As(err); ok {
				fail(row.Row, appErr.Message)
				continue
			}
			fail(row.Row, "写入失败")
			continue
		}

		resp.Success++
		if generated {
			resp.Credentials = append(resp.Credentials, dto.ImportedCredential{
				Row:          row.Row,
				Email:        user.Email,
				TempPassword: password,
			})
		}
	}

	s.logger.Info("批量导入学生完成",
		zap.Int("total", resp.Total),
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed),
		zap.String("operator", caller.UserID),
	)
	return resp, nil
}

// generateTempPassword 生成临时密码（至少含 1 个字母与 1 个数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 8 {
		length = 8
	}

	result := make([]byte, length)

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
