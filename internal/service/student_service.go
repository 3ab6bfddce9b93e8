package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pgss/backend/config"
	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
	"pgss/backend/internal/progress"
	"pgss/backend/internal/repository"
)

// StudentService 学生档案业务接口
type StudentService interface {
	List(ctx context.Context, caller *access.Caller, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	GetByID(ctx context.Context, caller *access.Caller, id string) (*dto.StudentResponse, error)
	Update(ctx context.Context, caller *access.Caller, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	AssignSupervisor(ctx context.Context, caller *access.Caller, id string, req *dto.AssignSupervisorRequest) (*dto.StudentResponse, error)
	Progress(ctx context.Context, caller *access.Caller, id string) (*dto.StudentProgressResponse, error)
}

type studentService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier *notifier
	logger   *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(cfg *config.Config, repo *repository.Repository, n *notifier, logger *zap.Logger) StudentService {
	return &studentService{cfg: cfg, repo: repo, notifier: n, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *studentService) List(ctx context.Context, caller *access.Caller, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	students, total, err := s.repo.Student.List(ctx, repository.StudentFilter{
		Scope:      access.Narrow(caller, access.Filter{SupervisorID: req.SupervisorID}),
		Search:     req.Search,
		Status:     req.Status,
		Unassigned: req.Unassigned,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		list = append(list, toStudentResponse(&students[i]))
	}
	return list, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *studentService) GetByID(ctx context.Context, caller *access.Caller, id string) (*dto.StudentResponse, error) {
	student, res, err := studentResource(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, res, access.Read); err != nil {
		return nil, err
	}

	resp := toStudentResponse(student)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *studentService) Update(ctx context.Context, caller *access.Caller, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	student, res, err := studentResource(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, res, access.Write); err != nil {
		return nil, err
	}

	if req.Program != nil {
		student.Program = *req.Program
	}
	if req.ResearchTitle != nil {
		student.ResearchTitle = *req.ResearchTitle
	}
	if req.StartDate != nil {
		if student.StartDate, err = parseDate(*req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.ExpectedCompletionDate != nil {
		if student.ExpectedCompletionDate, err = parseDate(*req.ExpectedCompletionDate); err != nil {
			return nil, err
		}
	}
	if student.StartDate != nil && student.ExpectedCompletionDate != nil &&
		student.ExpectedCompletionDate.Before(*student.StartDate) {
		return nil, ErrCompletionBeforeStart
	}
	student.UpdatedBy = &caller.UserID

	if err := s.repo.Student.Update(ctx, student); err != nil {
		s.logger.Error("更新学生档案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toStudentResponse(student)
	return &resp, nil
}

// ────────────────────── AssignSupervisor ──────────────────────

// lockAndAssign 锁定导师记录后按实时计数检查容量，必须在事务内调用
func lockAndAssign(ctx context.Context, txRepo *repository.Repository, studentID, supervisorID, updatedBy string) error {
	supervisor, err := txRepo.Supervisor.GetForUpdate(ctx, supervisorID)
	if err != nil {
		return notFound(err, ErrSupervisorNotFound)
	}

	count, err := txRepo.Student.CountBySupervisor(ctx, supervisor.SupervisorID)
	if err != nil {
		return err
	}
	if count >= int64(supervisor.Capacity) {
		return ErrCapacityExceeded
	}

	return txRepo.Student.SetSupervisor(ctx, studentID, &supervisor.SupervisorID, updatedBy)
}

// AssignSupervisor 分配或解除导师（管理员）
// 重复分配同一导师为空操作；名额已满时返回 ErrCapacityExceeded 且不做任何修改
func (s *studentService) AssignSupervisor(ctx context.Context, caller *access.Caller, id string, req *dto.AssignSupervisorRequest) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	target := ""
	if req.SupervisorID != nil {
		target = *req.SupervisorID
	}
	if target == student.AssignedSupervisorID() {
		resp := toStudentResponse(student)
		return &resp, nil
	}

	var supervisor *model.Supervisor
	if target != "" {
		if supervisor, err = s.repo.Supervisor.GetByID(ctx, target); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSupervisorNotFound
			}
			return nil, err
		}
		if supervisor.User != nil && !supervisor.User.IsActive() {
			return nil, ErrSupervisorInactive
		}
	}

	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if target == "" {
			return txRepo.Student.SetSupervisor(ctx, student.StudentID, nil, caller.UserID)
		}
		return lockAndAssign(ctx, txRepo, student.StudentID, target, caller.UserID)
	})
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			s.logger.Warn("导师名额已满", zap.String("student_id", id), zap.String("supervisor_id", target))
			return nil, err
		}
		if errors.Is(err, ErrSupervisorNotFound) {
			return nil, err
		}
		s.logger.Error("分配导师失败", zap.String("student_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("导师分配变更",
		zap.String("student_id", id),
		zap.String("from", student.AssignedSupervisorID()),
		zap.String("to", target),
		zap.String("operator", caller.UserID),
	)

	if supervisor != nil {
		studentName := ""
		if student.User != nil {
			studentName = student.User.Name
		}
		supervisorName := ""
		if supervisor.User != nil {
			supervisorName = supervisor.User.Name
		}
		payload := map[string]interface{}{"student_id": student.StudentID, "supervisor_id": supervisor.SupervisorID}
		var ns []model.Notification
		ns = appendNotification(ns, student.UserID, model.NotificationSupervisorAssigned,
			"导师已分配", "你的导师为 "+supervisorName, "student", student.StudentID, payload)
		ns = appendNotification(ns, supervisor.UserID, model.NotificationSupervisorAssigned,
			"新增指导学生", studentName+" 已分配给你指导", "student", student.StudentID, payload)
		s.notifier.send(ctx, ns...)
	}

	updated, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toStudentResponse(updated)
	return &resp, nil
}

// ────────────────────── Progress ──────────────────────

func (s *studentService) Progress(ctx context.Context, caller *access.Caller, id string) (*dto.StudentProgressResponse, error) {
	student, res, err := studentResource(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(caller, res, access.Read); err != nil {
		return nil, err
	}

	milestones, err := s.repo.Milestone.ListByStudent(ctx, student.StudentID)
	if err != nil {
		s.logger.Error("查询里程碑失败", zap.String("student_id", id), zap.Error(err))
		return nil, err
	}
	submitted, err := s.repo.WeeklySubmission.CountSubmitted(ctx, student.StudentID)
	if err != nil {
		return nil, err
	}
	own := access.Filter{StudentID: student.StudentID}
	pending, err := s.repo.WeeklySubmission.CountPendingFeedback(ctx, own)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.repo.Meeting.CountUpcoming(ctx, own, time.Now())
	if err != nil {
		return nil, err
	}

	updater := newProgressUpdater(&s.cfg.Progress)
	resp := &dto.StudentProgressResponse{
		StudentID:        student.StudentID,
		Scheme:           updater.scheme,
		OverallProgress:  student.OverallProgress,
		Status:           progress.Status(student.OverallProgress),
		Milestones:       make([]dto.MilestoneResponse, 0, len(milestones)),
		SubmittedWeeks:   submitted,
		TotalWeeks:       updater.totalWeeks,
		PendingFeedback:  pending,
		UpcomingMeetings: upcoming,
	}
	for i := range milestones {
		resp.Milestones = append(resp.Milestones, toMilestoneResponse(&milestones[i]))
		if milestones[i].Status == model.MilestoneStatusCompleted {
			resp.CompletedCount++
		}
	}
	return resp, nil
}
