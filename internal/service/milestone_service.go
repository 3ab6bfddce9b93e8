package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
	"pgss/backend/internal/progress"
	"pgss/backend/internal/repository"
)

// MilestoneService 里程碑业务接口
// 每次写操作在同一事务内重算学生总进度（里程碑方案生效时）
type MilestoneService interface {
	List(ctx context.Context, caller *access.Caller, req *dto.MilestoneListRequest) ([]dto.MilestoneResponse, error)
	Create(ctx context.Context, caller *access.Caller, req *dto.CreateMilestoneRequest) (*dto.MilestoneMutationResponse, error)
	GetByID(ctx context.Context, caller *access.Caller, id string) (*dto.MilestoneResponse, error)
	Update(ctx context.Context, caller *access.Caller, id string, req *dto.UpdateMilestoneRequest) (*dto.MilestoneMutationResponse, error)
	Delete(ctx context.Context, caller *access.Caller, id string) (*dto.MilestoneMutationResponse, error)
}

type milestoneService struct {
	repo     *repository.Repository
	progress *progressUpdater
	notifier *notifier
	logger   *zap.Logger
}

// NewMilestoneService 创建 MilestoneService 实例
func NewMilestoneService(repo *repository.Repository, p *progressUpdater, n *notifier, logger *zap.Logger) MilestoneService {
	return &milestoneService{repo: repo, progress: p, notifier: n, logger: logger}
}

// applyProgress 设置进度并派生状态与完成时间
func applyProgress(m *model.Milestone, p int, now time.Time) {
	m.Progress = progress.Clamp(p)
	m.Status = progress.Status(m.Progress)
	if m.Status == model.MilestoneStatusCompleted {
		if m.CompletedAt == nil {
			m.CompletedAt = &now
		}
	} else {
		m.CompletedAt = nil
	}
}

// ────────────────────── List ──────────────────────

func (s *milestoneService) List(ctx context.Context, caller *access.Caller, req *dto.MilestoneListRequest) ([]dto.MilestoneResponse, error) {
	milestones, err := s.repo.Milestone.List(ctx, repository.MilestoneFilter{
		Scope:  access.Narrow(caller, access.Filter{StudentID: req.StudentID}),
		Status: req.Status,
	})
	if err != nil {
		s.logger.Error("查询里程碑列表失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.MilestoneResponse, 0, len(milestones))
	for i := range milestones {
		list = append(list, toMilestoneResponse(&milestones[i]))
	}
	return list, nil
}

// ────────────────────── Create ──────────────────────

func (s *milestoneService) Create(ctx context.Context, caller *access.Caller, req *dto.CreateMilestoneRequest) (*dto.MilestoneMutationResponse, error) {
	student, res, err := studentResource(ctx, s.repo, req.StudentID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, res, access.Write); err != nil {
		return nil, err
	}

	due, err := parseDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	milestone := &model.Milestone{
		StudentID:   student.StudentID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		DueDate:     due,
		BaseModel:   model.BaseModel{CreatedBy: &caller.UserID},
	}
	applyProgress(milestone, req.Progress, time.Now())

	var overall *int
	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Milestone.Create(ctx, milestone); err != nil {
			return err
		}
		overall, err = s.progress.recompute(ctx, txRepo, student.StudentID, progress.SchemeMilestone)
		return err
	})
	if err != nil {
		s.logger.Error("创建里程碑失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}

	s.notifier.send(ctx, appendNotification(nil, student.UserID, model.NotificationMilestoneCreated,
		"新里程碑", milestone.Name, "milestone", milestone.MilestoneID, nil)...)

	return s.mutationResponse(milestone, student, overall), nil
}

func (s *milestoneService) mutationResponse(m *model.Milestone, student *model.Student, overall *int) *dto.MilestoneMutationResponse {
	resp := &dto.MilestoneMutationResponse{OverallProgress: student.OverallProgress}
	if overall != nil {
		resp.OverallProgress = *overall
	}
	if m != nil {
		mr := toMilestoneResponse(m)
		resp.Milestone = &mr
	}
	return resp
}

// load 加载里程碑与所属学生并校验访问权限
func (s *milestoneService) load(ctx context.Context, caller *access.Caller, id string, action access.Action) (*model.Milestone, *model.Student, error) {
	milestone, err := s.repo.Milestone.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, ErrMilestoneNotFound)
	}
	student, res, err := studentResource(ctx, s.repo, milestone.StudentID)
	if err != nil {
		return nil, nil, notFound(err, ErrMilestoneNotFound)
	}
	if err := access.Check(caller, res, action); err != nil {
		return nil, nil, err
	}
	return milestone, student, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *milestoneService) GetByID(ctx context.Context, caller *access.Caller, id string) (*dto.MilestoneResponse, error) {
	milestone, _, err := s.load(ctx, caller, id, access.Read)
	if err != nil {
		return nil, err
	}
	resp := toMilestoneResponse(milestone)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *milestoneService) Update(ctx context.Context, caller *access.Caller, id string, req *dto.UpdateMilestoneRequest) (*dto.MilestoneMutationResponse, error) {
	milestone, student, err := s.load(ctx, caller, id, access.Write)
	if err != nil {
		return nil, err
	}
	// 进度由导师评定，学生只能补充描述
	if caller.IsStudent() && (req.Name != nil || req.Progress != nil || req.DueDate != nil) {
		return nil, ErrMilestoneStaffOnly
	}

	if req.Name != nil {
		milestone.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		milestone.Description = *req.Description
	}
	if req.DueDate != nil {
		if milestone.DueDate, err = parseDate(*req.DueDate); err != nil {
			return nil, err
		}
	}
	if req.Progress != nil {
		applyProgress(milestone, *req.Progress, time.Now())
	}
	milestone.UpdatedBy = &caller.UserID

	var overall *int
	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Milestone.Update(ctx, milestone); err != nil {
			return err
		}
		overall, err = s.progress.recompute(ctx, txRepo, student.StudentID, progress.SchemeMilestone)
		return err
	})
	if err != nil {
		s.logger.Error("更新里程碑失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.mutationResponse(milestone, student, overall), nil
}

// ────────────────────── Delete ──────────────────────

func (s *milestoneService) Delete(ctx context.Context, caller *access.Caller, id string) (*dto.MilestoneMutationResponse, error) {
	milestone, student, err := s.load(ctx, caller, id, access.Write)
	if err != nil {
		return nil, err
	}

	var overall *int
	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.Milestone.Delete(ctx, milestone.MilestoneID); err != nil {
			return err
		}
		overall, err = s.progress.recompute(ctx, txRepo, student.StudentID, progress.SchemeMilestone)
		return err
	})
	if err != nil {
		s.logger.Error("删除里程碑失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.mutationResponse(nil, student, overall), nil
}
