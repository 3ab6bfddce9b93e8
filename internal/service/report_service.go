package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pgss/backend/internal/access"
	"pgss/backend/internal/dto"
	"pgss/backend/internal/progress"
	"pgss/backend/internal/repository"
	pkgredis "pgss/backend/pkg/redis"
)

// ReportService 管理员报表业务接口
//
// 设计说明：
//   - 总览数据缓存于 Redis，TTL 5 分钟；未配置 Redis 时每次实时统计
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ReportService interface {
	Overview(ctx context.Context, caller *access.Caller) (*dto.OverviewResponse, error)
	// ExportStudents 导出学生进度表为 Excel
	ExportStudents(ctx context.Context, caller *access.Caller) (*bytes.Buffer, string, error)
}

const (
	overviewCacheKey = "report:overview"
	overviewCacheTTL = 5 * time.Minute
)

type reportService struct {
	repo   *repository.Repository
	rdb    *pkgredis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, rdb *pkgredis.Client, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, rdb: rdb, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// Overview 管理员总览
// ═══════════════════════════════════════════════════════════

func (s *reportService) Overview(ctx context.Context, caller *access.Caller) (*dto.OverviewResponse, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	var cached dto.OverviewResponse
	if ok, err := s.rdb.GetJSON(ctx, overviewCacheKey, &cached); err != nil {
		s.logger.Warn("读取总览缓存失败", zap.Error(err))
	} else if ok {
		return &cached, nil
	}

	resp, err := s.buildOverview(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.rdb.SetJSON(ctx, overviewCacheKey, resp, overviewCacheTTL); err != nil {
		s.logger.Warn("写入总览缓存失败", zap.Error(err))
	}
	return resp, nil
}

func (s *reportService) buildOverview(ctx context.Context) (*dto.OverviewResponse, error) {
	byRole, err := s.repo.Report.CountUsersByRole(ctx)
	if err != nil {
		s.logger.Error("统计用户角色失败", zap.Error(err))
		return nil, err
	}
	byStatus, err := s.repo.Report.CountUsersByStatus(ctx)
	if err != nil {
		s.logger.Error("统计用户状态失败", zap.Error(err))
		return nil, err
	}
	total, unassigned, err := s.repo.Report.CountStudents(ctx)
	if err != nil {
		s.logger.Error("统计学生数失败", zap.Error(err))
		return nil, err
	}
	avg, err := s.repo.Report.AverageProgress(ctx)
	if err != nil {
		s.logger.Error("统计平均进度失败", zap.Error(err))
		return nil, err
	}
	pending, err := s.repo.WeeklySubmission.CountPendingFeedback(ctx, access.Filter{})
	if err != nil {
		s.logger.Error("统计待反馈周报失败", zap.Error(err))
		return nil, err
	}
	now := s.now()
	upcoming, err := s.repo.Meeting.CountUpcoming(ctx, access.Filter{}, now)
	if err != nil {
		s.logger.Error("统计即将进行的会议失败", zap.Error(err))
		return nil, err
	}
	loads, err := s.repo.Report.SupervisorLoads(ctx)
	if err != nil {
		s.logger.Error("统计导师负载失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.OverviewResponse{
		UsersByRole:        groupMap(byRole),
		UsersByStatus:      groupMap(byStatus),
		TotalStudents:      total,
		UnassignedStudents: unassigned,
		AverageProgress:    avg,
		PendingFeedback:    pending,
		UpcomingMeetings:   upcoming,
		SupervisorLoad:     make([]dto.SupervisorLoadDTO, 0, len(loads)),
		GeneratedAt:        now.Format(dto.TimeLayout),
	}
	for _, l := range loads {
		resp.SupervisorLoad = append(resp.SupervisorLoad, dto.SupervisorLoadDTO{
			SupervisorID:    l.SupervisorID,
			Name:            l.Name,
			Department:      l.Department,
			Capacity:        l.Capacity,
			CurrentStudents: l.CurrentStudents,
		})
	}
	return resp, nil
}

func groupMap(rows []repository.GroupCount) map[string]int64 {
	m := make(map[string]int64, len(rows))
	for _, r := range rows {
		m[r.Key] = r.Count
	}
	return m
}

// ═══════════════════════════════════════════════════════════
// ExportStudents 导出学生进度表
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet "学生进度"
//   - 第 1 行标题，第 2 行表头，其后每名学生一行

var studentExportHeaders = []string{"姓名", "邮箱", "专业", "研究题目", "导师", "总体进度", "状态", "开始日期", "预计完成"}

func (s *reportService) ExportStudents(ctx context.Context, caller *access.Caller) (*bytes.Buffer, string, error) {
	if !caller.IsAdmin() {
		return nil, "", ErrForbidden
	}

	students, _, err := s.repo.Student.List(ctx, repository.StudentFilter{Scope: access.Scope(caller)}, 0, 0)
	if err != nil {
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "学生进度"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []float64{12, 28, 18, 36, 12, 10, 10, 12, 12}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	generated := s.now()
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("学生进度报表（%s）", generated.Format("2006-01-02 15:04")))
	f.MergeCell(sheetName, "A1", cell(colName(len(studentExportHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	for i, h := range studentExportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(studentExportHeaders)-1), row), headerStyle)

	for i := range students {
		st := &students[i]
		row++

		name, email := "", ""
		if st.User != nil {
			name, email = st.User.Name, st.User.Email
		}
		supervisor := "未分配"
		if st.Supervisor != nil && st.Supervisor.User != nil {
			supervisor = st.Supervisor.User.Name
		}

		values := []interface{}{
			name,
			email,
			st.Program,
			st.ResearchTitle,
			supervisor,
			st.OverallProgress,
			progress.Status(st.OverallProgress),
			formatDate(st.StartDate),
			formatDate(st.ExpectedCompletionDate),
		}
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("学生进度_%s.xlsx", generated.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
