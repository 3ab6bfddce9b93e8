package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/repository"
	apperrors "pgss/backend/pkg/errors"
)

// SupervisorService 导师档案业务接口
type SupervisorService interface {
	List(ctx context.Context, req *dto.SupervisorListRequest) ([]dto.SupervisorResponse, int64, error)
	GetByID(ctx context.Context, id string) (*dto.SupervisorResponse, error)
	Update(ctx context.Context, caller *access.Caller, id string, req *dto.UpdateSupervisorRequest) (*dto.SupervisorResponse, error)
	ListStudents(ctx context.Context, caller *access.Caller, id string, req *dto.PaginationRequest) ([]dto.StudentResponse, int64, error)
}

type supervisorService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSupervisorService 创建 SupervisorService 实例
func NewSupervisorService(repo *repository.Repository, logger *zap.Logger) SupervisorService {
	return &supervisorService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

// List 导师目录对所有登录用户可见，当前学生数实时统计
func (s *supervisorService) List(ctx context.Context, req *dto.SupervisorListRequest) ([]dto.SupervisorResponse, int64, error) {
	supervisors, total, err := s.repo.Supervisor.List(ctx, repository.SupervisorFilter{
		Search:        req.Search,
		Department:    req.Department,
		AvailableOnly: req.AvailableOnly,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询导师列表失败", zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, 0, len(supervisors))
	for _, sup := range supervisors {
		ids = append(ids, sup.SupervisorID)
	}
	counts, err := s.repo.Student.CountBySupervisors(ctx, ids)
	if err != nil {
		s.logger.Error("统计导师学生数失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.SupervisorResponse, 0, len(supervisors))
	for i := range supervisors {
		list = append(list, toSupervisorResponse(&supervisors[i], counts[supervisors[i].SupervisorID]))
	}
	return list, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *supervisorService) GetByID(ctx context.Context, id string) (*dto.SupervisorResponse, error) {
	supervisor, err := s.repo.Supervisor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupervisorNotFound
		}
		s.logger.Error("查询导师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	count, err := s.repo.Student.CountBySupervisor(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toSupervisorResponse(supervisor, count)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

// Update 管理员或导师本人更新档案
// 容量不得低于当前学生数；携带 version 时按乐观锁校验
func (s *supervisorService) Update(ctx context.Context, caller *access.Caller, id string, req *dto.UpdateSupervisorRequest) (*dto.SupervisorResponse, error) {
	supervisor, err := s.repo.Supervisor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupervisorNotFound
		}
		s.logger.Error("查询导师失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !caller.IsAdmin() && caller.SupervisorID != supervisor.SupervisorID {
		return nil, ErrForbidden
	}
	if req.Version != nil && *req.Version != supervisor.Version {
		return nil, apperrors.ErrOptimisticLock
	}

	var count int64
	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		locked, err := txRepo.Supervisor.GetForUpdate(ctx, id)
		if err != nil {
			return notFound(err, ErrSupervisorNotFound)
		}
		if locked.Version != supervisor.Version {
			return apperrors.ErrOptimisticLock
		}

		if count, err = txRepo.Student.CountBySupervisor(ctx, id); err != nil {
			return err
		}
		if req.Capacity != nil {
			if int64(*req.Capacity) < count {
				return ErrCapacityBelowCurrent
			}
			supervisor.Capacity = *req.Capacity
		}
		if req.Department != nil {
			supervisor.Department = *req.Department
		}
		if req.ResearchAreas != nil {
			supervisor.ResearchAreas = *req.ResearchAreas
		}
		supervisor.UpdatedBy = &caller.UserID

		return txRepo.Supervisor.Update(ctx, supervisor)
	})
	if err != nil {
		if _, ok := apperrors.As(err); !ok {
			s.logger.Error("更新导师档案失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	resp := toSupervisorResponse(supervisor, count)
	return &resp, nil
}

// ────────────────────── ListStudents ──────────────────────

func (s *supervisorService) ListStudents(ctx context.Context, caller *access.Caller, id string, req *dto.PaginationRequest) ([]dto.StudentResponse, int64, error) {
	if _, err := s.repo.Supervisor.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrSupervisorNotFound
		}
		return nil, 0, err
	}
	if err := access.Check(caller, access.Resource{SupervisorID: id}, access.Read); err != nil {
		return nil, 0, err
	}

	students, total, err := s.repo.Student.List(ctx, repository.StudentFilter{
		Scope:        access.Scope(caller),
		SupervisorID: id,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询导师学生失败", zap.String("supervisor_id", id), zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		list = append(list, toStudentResponse(&students[i]))
	}
	return list, total, nil
}
