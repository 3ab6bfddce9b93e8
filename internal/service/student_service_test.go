package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestStudentService() (StudentService, *mockStore) {
	repo, store := newMockRepository()
	logger := zap.NewNop()
	return NewStudentService(newTestConfig(), repo, newNotifier(repo, logger), logger), store
}

func countOf(store *mockStore, supervisorID string) int64 {
	n, _ := (&mockStudentRepo{store}).CountBySupervisor(context.Background(), supervisorID)
	return n
}

// ── 访问控制 ──

func TestStudentService_GetByID_Access(t *testing.T) {
	svc, store := setupTestStudentService()
	_, admin := seedAdmin(store)
	sup, supCaller := seedSupervisor(store, "王老师", 5)
	mine, mineCaller := seedStudent(store, "张三", sup.SupervisorID)
	other, _ := seedStudent(store, "李四", "")
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  string
		id      string
		wantErr error
	}{
		{"学生查看本人", "student", mine.StudentID, nil},
		{"学生查看他人", "student", other.StudentID, ErrForbidden},
		{"导师查看名下学生", "supervisor", mine.StudentID, nil},
		{"导师查看未分配学生", "supervisor", other.StudentID, ErrForbidden},
		{"管理员查看任意学生", "admin", other.StudentID, nil},
		{"管理员查看不存在学生", "admin", "stu-missing", ErrStudentNotFound},
		{"学生查看不存在学生", "student", "stu-missing", ErrStudentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := mineCaller
			switch tt.caller {
			case "supervisor":
				caller = supCaller
			case "admin":
				caller = admin
			}
			resp, err := svc.GetByID(ctx, caller, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("期望成功，实际: %v", err)
			}
			if resp.ID != tt.id {
				t.Errorf("期望 ID=%s，实际=%s", tt.id, resp.ID)
			}
		})
	}
}

func TestStudentService_List_ScopedBySupervisor(t *testing.T) {
	svc, store := setupTestStudentService()
	supA, callerA := seedSupervisor(store, "王老师", 5)
	supB, _ := seedSupervisor(store, "赵老师", 5)
	seedStudent(store, "甲", supA.SupervisorID)
	seedStudent(store, "乙", supA.SupervisorID)
	seedStudent(store, "丙", supB.SupervisorID)
	seedStudent(store, "丁", "")
	ctx := context.Background()

	list, total, err := svc.List(ctx, callerA, &dto.StudentListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("导师仅应看到名下 2 名学生，实际=%d", total)
	}

	// 请求其他导师的学生时结果为空
	_, total, _ = svc.List(ctx, callerA, &dto.StudentListRequest{SupervisorID: supB.SupervisorID})
	if total != 0 {
		t.Errorf("越权过滤期望 0 条，实际=%d", total)
	}
}

func TestStudentService_List_StudentSeesSelf(t *testing.T) {
	svc, store := setupTestStudentService()
	me, caller := seedStudent(store, "甲", "")
	seedStudent(store, "乙", "")

	list, total, _ := svc.List(context.Background(), caller, &dto.StudentListRequest{})
	if total != 1 || list[0].ID != me.StudentID {
		t.Errorf("学生仅应看到本人，实际 total=%d", total)
	}
}

// ── Update 测试 ──

func TestStudentService_Update(t *testing.T) {
	svc, store := setupTestStudentService()
	st, caller := seedStudent(store, "张三", "")

	resp, err := svc.Update(context.Background(), caller, st.StudentID, &dto.UpdateStudentRequest{
		ResearchTitle: strPtr("图神经网络"),
		StartDate:     strPtr("2025-09-01"),
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.ResearchTitle != "图神经网络" || resp.StartDate != "2025-09-01" {
		t.Errorf("字段未更新: %+v", resp)
	}

	_, err = svc.Update(context.Background(), caller, st.StudentID, &dto.UpdateStudentRequest{
		ExpectedCompletionDate: strPtr("2024-01-01"),
	})
	if !errors.Is(err, ErrCompletionBeforeStart) {
		t.Errorf("期望 ErrCompletionBeforeStart，实际: %v", err)
	}
}

// ── AssignSupervisor 测试 ──

func TestStudentService_AssignSupervisor_Success(t *testing.T) {
	svc, store := setupTestStudentService()
	_, admin := seedAdmin(store)
	sup, _ := seedSupervisor(store, "王老师", 2)
	st, _ := seedStudent(store, "张三", "")

	resp, err := svc.AssignSupervisor(context.Background(), admin, st.StudentID, &dto.AssignSupervisorRequest{SupervisorID: &sup.SupervisorID})
	if err != nil {
		t.Fatalf("AssignSupervisor 应成功: %v", err)
	}
	if resp.Supervisor == nil || resp.Supervisor.ID != sup.SupervisorID {
		t.Errorf("响应中应包含新导师: %+v", resp.Supervisor)
	}
	if countOf(store, sup.SupervisorID) != 1 {
		t.Error("导师学生数应为 1")
	}
	if len(store.notificationsFor(st.UserID)) != 1 || len(store.notificationsFor(sup.UserID)) != 1 {
		t.Error("双方均应收到分配通知")
	}
}

func TestStudentService_AssignSupervisor_CapacityFull(t *testing.T) {
	svc, store := setupTestStudentService()
	_, admin := seedAdmin(store)
	sup, _ := seedSupervisor(store, "王老师", 10)
	for i := 0; i < 10; i++ {
		seedStudent(store, fmt.Sprintf("学生%d", i), sup.SupervisorID)
	}
	extra, _ := seedStudent(store, "第十一人", "")

	_, err := svc.AssignSupervisor(context.Background(), admin, extra.StudentID, &dto.AssignSupervisorRequest{SupervisorID: &sup.SupervisorID})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("期望 ErrCapacityExceeded，实际: %v", err)
	}
	if got := countOf(store, sup.SupervisorID); got != 10 {
		t.Errorf("学生数应保持 10，实际=%d", got)
	}
	if store.students[extra.StudentID].SupervisorID != nil {
		t.Error("失败时学生不应被分配")
	}
}

func TestStudentService_AssignSupervisor_SameSupervisorNoop(t *testing.T) {
	svc, store := setupTestStudentService()
	_, admin := seedAdmin(store)
	sup, _ := seedSupervisor(store, "王老师", 1)
	st, _ := seedStudent(store, "张三", sup.SupervisorID)

	// 名额已满但重复分配同一导师仍成功
	if _, err := svc.AssignSupervisor(context.Background(), admin, st.StudentID, &dto.AssignSupervisorRequest{SupervisorID: &sup.SupervisorID}); err != nil {
		t.Fatalf("重复分配应为空操作: %v", err)
	}
	if countOf(store, sup.SupervisorID) != 1 {
		t.Error("学生数不应变化")
	}
	if len(store.notifications) != 0 {
		t.Error("空操作不应发送通知")
	}
}

func TestStudentService_AssignSupervisor_Unassign(t *testing.T) {
	svc, store := setupTestStudentService()
	_, admin := seedAdmin(store)
	sup, _ := seedSupervisor(store, "王老师", 1)
	st, _ := seedStudent(store, "张三", sup.SupervisorID)

	resp, err := svc.AssignSupervisor(context.Background(), admin, st.StudentID, &dto.AssignSupervisorRequest{SupervisorID: nil})
	if err != nil {
		t.Fatalf("解除分配应成功: %v", err)
	}
	if resp.Supervisor != nil || countOf(store, sup.SupervisorID) != 0 {
		t.Error("学生应已无导师")
	}
}

func TestStudentService_AssignSupervisor_Errors(t *testing.T) {
	svc, store := setupTestStudentService()
	_, admin := seedAdmin(store)
	inactive, _ := seedSupervisor(store, "停用导师", 5)
	store.users[inactive.UserID].Status = model.UserStatusInactive
	st, _ := seedStudent(store, "张三", "")
	ctx := context.Background()

	if _, err := svc.AssignSupervisor(ctx, admin, "stu-missing", &dto.AssignSupervisorRequest{}); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
	if _, err := svc.AssignSupervisor(ctx, admin, st.StudentID, &dto.AssignSupervisorRequest{SupervisorID: strPtr("sup-missing")}); !errors.Is(err, ErrSupervisorNotFound) {
		t.Errorf("期望 ErrSupervisorNotFound，实际: %v", err)
	}
	if _, err := svc.AssignSupervisor(ctx, admin, st.StudentID, &dto.AssignSupervisorRequest{SupervisorID: &inactive.SupervisorID}); !errors.Is(err, ErrSupervisorInactive) {
		t.Errorf("期望 ErrSupervisorInactive，实际: %v", err)
	}
}

// ── Progress 测试 ──

func TestStudentService_Progress(t *testing.T) {
	svc, store := setupTestStudentService()
	sup, supCaller := seedSupervisor(store, "王老师", 5)
	st, _ := seedStudent(store, "张三", sup.SupervisorID)
	store.students[st.StudentID].OverallProgress = 50
	store.milestones["ms-a"] = &model.Milestone{MilestoneID: "ms-a", StudentID: st.StudentID, Progress: 100, Status: model.MilestoneStatusCompleted}
	store.milestones["ms-b"] = &model.Milestone{MilestoneID: "ms-b", StudentID: st.StudentID, Progress: 0, Status: model.MilestoneStatusPending}
	store.submissions["ws-1"] = &model.WeeklySubmission{SubmissionID: "ws-1", StudentID: st.StudentID, WeekNumber: 1, Status: model.SubmissionStatusSubmitted}

	resp, err := svc.Progress(context.Background(), supCaller, st.StudentID)
	if err != nil {
		t.Fatalf("Progress 应成功: %v", err)
	}
	if resp.OverallProgress != 50 || resp.Status != "in-progress" {
		t.Errorf("总进度错误: %d %s", resp.OverallProgress, resp.Status)
	}
	if len(resp.Milestones) != 2 || resp.CompletedCount != 1 {
		t.Errorf("里程碑统计错误: len=%d completed=%d", len(resp.Milestones), resp.CompletedCount)
	}
	if resp.SubmittedWeeks != 1 || resp.PendingFeedback != 1 || resp.TotalWeeks != 6 {
		t.Errorf("周报统计错误: %+v", resp)
	}
	if resp.Scheme != "milestone" {
		t.Errorf("期望方案 milestone，实际=%s", resp.Scheme)
	}
}
