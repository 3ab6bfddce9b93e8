package service

import (
	"context"

	"go.uber.org/zap"

	"pgss/backend/config"
	"pgss/backend/internal/repository"
	"pgss/backend/pkg/jwt"
	"pgss/backend/pkg/mail"
	pkgredis "pgss/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth             AuthService
	User             UserService
	Student          StudentService
	Supervisor       SupervisorService
	Milestone        MilestoneService
	WeeklySubmission WeeklySubmissionService
	Document         DocumentService
	Meeting          MeetingService
	Message          MessageService
	Notification     NotificationService
	Report           ReportService
}

// NewService 创建 Service 聚合
// rdb 可为 nil（未配置 Redis 时黑名单、限流与缓存降级为空操作）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *pkgredis.Client,
	mailer mail.Mailer,
	logger *zap.Logger,
) *Service {
	n := newNotifier(repo, logger)
	p := newProgressUpdater(&cfg.Progress)

	return &Service{
		Auth:             NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:             NewUserService(repo, logger),
		Student:          NewStudentService(cfg, repo, n, logger),
		Supervisor:       NewSupervisorService(repo, logger),
		Milestone:        NewMilestoneService(repo, p, n, logger),
		WeeklySubmission: NewWeeklySubmissionService(cfg, repo, p, n, mailer, logger),
		Document:         NewDocumentService(&cfg.Storage, repo, n, logger),
		Meeting:          NewMeetingService(&cfg.Meeting, repo, n, mailer, logger),
		Message:          NewMessageService(repo, n, logger),
		Notification:     NewNotificationService(repo, logger),
		Report:           NewReportService(repo, rdb, logger),
	}
}

// runInTx 在事务中执行 fn，fn 返回错误或发生 panic 时回滚
// mock 聚合下 BeginTx 返回 nil，fn 直接在原聚合上执行
func runInTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}
