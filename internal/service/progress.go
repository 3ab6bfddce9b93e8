package service

import (
	"context"

	"pgss/backend/config"
	"pgss/backend/internal/progress"
	"pgss/backend/internal/repository"
)

// progressUpdater 在触发写操作的同一事务内重算学生总进度
// 仅当触发来源与部署配置的方案一致时才写入 overall_progress
type progressUpdater struct {
	scheme     string
	totalWeeks int
}

func newProgressUpdater(cfg *config.ProgressConfig) *progressUpdater {
	p := &progressUpdater{scheme: cfg.Scheme, totalWeeks: cfg.TotalWeeks}
	if p.scheme == "" {
		p.scheme = progress.SchemeMilestone
	}
	if p.totalWeeks <= 0 {
		p.totalWeeks = progress.DefaultTotalWeeks
	}
	return p
}

// compute 按当前方案计算学生总进度
func (p *progressUpdater) compute(ctx context.Context, repo *repository.Repository, studentID string) (int, error) {
	if p.scheme == progress.SchemeWeekly {
		submitted, err := repo.WeeklySubmission.CountSubmitted(ctx, studentID)
		if err != nil {
			return 0, err
		}
		return progress.SubmissionRatio(int(submitted), p.totalWeeks), nil
	}

	milestones, err := repo.Milestone.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}
	values := make([]int, 0, len(milestones))
	for _, m := range milestones {
		values = append(values, m.Progress)
	}
	return progress.MilestoneMean(values), nil
}

// recompute trigger 为 progress.SchemeMilestone 或 progress.SchemeWeekly
// 方案不匹配时返回 nil，不修改总进度
func (p *progressUpdater) recompute(ctx context.Context, txRepo *repository.Repository, studentID, trigger string) (*int, error) {
	if trigger != p.scheme {
		return nil, nil
	}
	value, err := p.compute(ctx, txRepo, studentID)
	if err != nil {
		return nil, err
	}
	if err := txRepo.Student.UpdateProgress(ctx, studentID, value); err != nil {
		return nil, err
	}
	return &value, nil
}
