package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pgss/backend/config"
	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
	"pgss/backend/internal/progress"
	"pgss/backend/internal/repository"
	"pgss/backend/pkg/mail"
)

// WeeklySubmissionService 周报业务接口
type WeeklySubmissionService interface {
	List(ctx context.Context, caller *access.Caller, req *dto.WeeklySubmissionListRequest) ([]dto.WeeklySubmissionResponse, error)
	// Submit 学生按 (学生, 周次) 提交周报，已存在时更新原记录；created 表示是否新建
	Submit(ctx context.Context, caller *access.Caller, req *dto.SubmitWeeklyRequest) (resp *dto.WeeklySubmissionResponse, created bool, err error)
	GetByID(ctx context.Context, caller *access.Caller, id string) (*dto.WeeklySubmissionResponse, error)
	Feedback(ctx context.Context, caller *access.Caller, id string, req *dto.FeedbackRequest) (*dto.WeeklySubmissionResponse, error)
	Delete(ctx context.Context, caller *access.Caller, id string) error
}

type weeklySubmissionService struct {
	totalWeeks int
	repo       *repository.Repository
	progress   *progressUpdater
	notifier   *notifier
	mailer     mail.Mailer
	logger     *zap.Logger
}

// NewWeeklySubmissionService 创建 WeeklySubmissionService 实例
func NewWeeklySubmissionService(
	cfg *config.Config,
	repo *repository.Repository,
	p *progressUpdater,
	n *notifier,
	mailer mail.Mailer,
	logger *zap.Logger,
) WeeklySubmissionService {
	totalWeeks := cfg.Progress.TotalWeeks
	if totalWeeks <= 0 {
		totalWeeks = progress.DefaultTotalWeeks
	}
	return &weeklySubmissionService{
		totalWeeks: totalWeeks,
		repo:       repo,
		progress:   p,
		notifier:   n,
		mailer:     mailer,
		logger:     logger,
	}
}

// ────────────────────── List ──────────────────────

func (s *weeklySubmissionService) List(ctx context.Context, caller *access.Caller, req *dto.WeeklySubmissionListRequest) ([]dto.WeeklySubmissionResponse, error) {
	submissions, err := s.repo.WeeklySubmission.List(ctx, repository.WeeklySubmissionFilter{
		Scope:  access.Narrow(caller, access.Filter{StudentID: req.StudentID}),
		Week:   req.Week,
		Status: req.Status,
	})
	if err != nil {
		s.logger.Error("查询周报列表失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.WeeklySubmissionResponse, 0, len(submissions))
	for i := range submissions {
		list = append(list, toWeeklySubmissionResponse(&submissions[i]))
	}
	return list, nil
}

// ────────────────────── Submit ──────────────────────

func (s *weeklySubmissionService) Submit(ctx context.Context, caller *access.Caller, req *dto.SubmitWeeklyRequest) (*dto.WeeklySubmissionResponse, bool, error) {
	if !caller.IsStudent() || caller.StudentID == "" {
		return nil, false, ErrForbidden
	}
	if req.WeekNumber < 1 || req.WeekNumber > s.totalWeeks {
		return nil, false, ErrWeekOutOfRange
	}

	student, err := s.repo.Student.GetByID(ctx, caller.StudentID)
	if err != nil {
		return nil, false, notFound(err, ErrStudentNotFound)
	}

	now := time.Now()
	var (
		submission *model.WeeklySubmission
		created    bool
		overall    *int
	)
	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		existing, err := txRepo.WeeklySubmission.GetByStudentWeek(ctx, student.StudentID, req.WeekNumber)
		switch {
		case err == nil:
			submission = existing
			submission.Description = req.Description
			submission.Status = model.SubmissionStatusSubmitted
			submission.SubmittedAt = &now
			submission.UpdatedBy = &caller.UserID
			if err := txRepo.WeeklySubmission.Update(ctx, submission); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			submission = &model.WeeklySubmission{
				StudentID:   student.StudentID,
				WeekNumber:  req.WeekNumber,
				Status:      model.SubmissionStatusSubmitted,
				Description: req.Description,
				SubmittedAt: &now,
				BaseModel:   model.BaseModel{CreatedBy: &caller.UserID},
			}
			if err := txRepo.WeeklySubmission.Create(ctx, submission); err != nil {
				return err
			}
		default:
			return err
		}

		if len(req.DocumentIDs) > 0 {
			n, err := txRepo.Document.AttachToSubmission(ctx, submission.SubmissionID, student.StudentID, req.DocumentIDs)
			if err != nil {
				return err
			}
			if n != int64(len(req.DocumentIDs)) {
				return ErrDocumentNotOwned
			}
		}

		overall, err = s.progress.recompute(ctx, txRepo, student.StudentID, progress.SchemeWeekly)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, ErrSubmissionConflict
		}
		if !errors.Is(err, ErrDocumentNotOwned) {
			s.logger.Error("提交周报失败", zap.String("student_id", student.StudentID), zap.Int("week", req.WeekNumber), zap.Error(err))
		}
		return nil, false, err
	}

	if student.Supervisor != nil {
		studentName := ""
		if student.User != nil {
			studentName = student.User.Name
		}
		s.notifier.send(ctx, appendNotification(nil, student.Supervisor.UserID, model.NotificationWeeklySubmitted,
			"周报已提交", fmt.Sprintf("%s 提交了第 %d 周周报", studentName, req.WeekNumber),
			"weekly_submission", submission.SubmissionID,
			map[string]interface{}{"student_id": student.StudentID, "week_number": req.WeekNumber})...)
	}

	reloaded, err := s.repo.WeeklySubmission.GetByID(ctx, submission.SubmissionID)
	if err != nil {
		return nil, false, err
	}
	resp := toWeeklySubmissionResponse(reloaded)
	resp.OverallProgress = overall
	return &resp, created, nil
}

// load 加载周报与所属学生并校验访问权限
func (s *weeklySubmissionService) load(ctx context.Context, caller *access.Caller, id string, action access.Action) (*model.WeeklySubmission, *model.Student, error) {
	submission, err := s.repo.WeeklySubmission.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFound(err, ErrSubmissionNotFound)
	}
	student, res, err := studentResource(ctx, s.repo, submission.StudentID)
	if err != nil {
		return nil, nil, notFound(err, ErrSubmissionNotFound)
	}
	if err := access.Check(caller, res, action); err != nil {
		return nil, nil, err
	}
	return submission, student, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *weeklySubmissionService) GetByID(ctx context.Context, caller *access.Caller, id string) (*dto.WeeklySubmissionResponse, error) {
	submission, _, err := s.load(ctx, caller, id, access.Read)
	if err != nil {
		return nil, err
	}
	resp := toWeeklySubmissionResponse(submission)
	return &resp, nil
}

// ────────────────────── Feedback ──────────────────────

func (s *weeklySubmissionService) Feedback(ctx context.Context, caller *access.Caller, id string, req *dto.FeedbackRequest) (*dto.WeeklySubmissionResponse, error) {
	if caller.IsStudent() {
		return nil, ErrForbidden
	}
	submission, student, err := s.load(ctx, caller, id, access.Write)
	if err != nil {
		return nil, err
	}
	if submission.Status != model.SubmissionStatusSubmitted {
		return nil, ErrSubmissionNotSubmitted
	}

	now := time.Now()
	submission.SupervisorFeedback = req.Feedback
	submission.FeedbackAt = &now
	submission.UpdatedBy = &caller.UserID

	if err := s.repo.WeeklySubmission.Update(ctx, submission); err != nil {
		s.logger.Error("保存周报反馈失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	title := fmt.Sprintf("第 %d 周周报收到反馈", submission.WeekNumber)
	s.notifier.send(ctx, appendNotification(nil, student.UserID, model.NotificationFeedbackGiven,
		title, req.Feedback, "weekly_submission", submission.SubmissionID, nil)...)
	sendMail(ctx, s.mailer, s.logger, student.User, title, req.Feedback)

	resp := toWeeklySubmissionResponse(submission)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *weeklySubmissionService) Delete(ctx context.Context, caller *access.Caller, id string) error {
	submission, student, err := s.load(ctx, caller, id, access.Write)
	if err != nil {
		return err
	}

	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.WeeklySubmission.Delete(ctx, submission.SubmissionID); err != nil {
			return err
		}
		_, err := s.progress.recompute(ctx, txRepo, student.StudentID, progress.SchemeWeekly)
		return err
	})
	if err != nil {
		s.logger.Error("删除周报失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
