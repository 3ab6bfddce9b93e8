package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"unicode"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pgss/backend/internal/dto"
	"pgss/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestUserService() (UserService, *mockStore) {
	repo, store := newMockRepository()
	return NewUserService(repo, zap.NewNop()), store
}

func buildImportFile(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			f.SetCellValue("Sheet1", cell(colName(j), i+1), v)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("生成测试文件失败: %v", err)
	}
	return buf
}

// ── CreateUser 测试 ──

func TestUserService_CreateUser_GeneratesTempPassword(t *testing.T) {
	svc, store := setupTestUserService()
	_, admin := seedAdmin(store)

	resp, err := svc.CreateUser(context.Background(), admin, &dto.CreateUserRequest{
		Email: "stu@test.com",
		Name:  "新同学",
		Role:  model.RoleStudent,
	})
	if err != nil {
		t.Fatalf("CreateUser 应成功: %v", err)
	}
	if len(resp.TempPassword) < 8 {
		t.Fatalf("期望返回临时密码，实际=%q", resp.TempPassword)
	}

	stored := store.users[resp.User.ID]
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(resp.TempPassword)); err != nil {
		t.Error("临时密码与存储哈希不匹配")
	}
	if stored.CreatedBy == nil || *stored.CreatedBy != admin.UserID {
		t.Error("期望记录创建人")
	}
}

func TestUserService_CreateUser_DuplicateEmail(t *testing.T) {
	svc, store := setupTestUserService()
	_, admin := seedAdmin(store)
	seedStudent(store, "张三", "")
	before := len(store.users)

	_, err := svc.CreateUser(context.Background(), admin, &dto.CreateUserRequest{
		Email:    "张三@stu.test.com",
		Password: "password123",
		Name:     "张三",
		Role:     model.RoleStudent,
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
	if len(store.users) != before {
		t.Error("重复邮箱不应新增用户")
	}
}

func TestUserService_CreateUser_StudentWithSupervisor(t *testing.T) {
	svc, store := setupTestUserService()
	_, admin := seedAdmin(store)
	sup, _ := seedSupervisor(store, "王老师", 2)

	resp, err := svc.CreateUser(context.Background(), admin, &dto.CreateUserRequest{
		Email:        "stu@test.com",
		Password:     "password123",
		Name:         "新同学",
		Role:         model.RoleStudent,
		SupervisorID: &sup.SupervisorID,
	})
	if err != nil {
		t.Fatalf("CreateUser 应成功: %v", err)
	}
	if got := store.students[resp.User.StudentID].AssignedSupervisorID(); got != sup.SupervisorID {
		t.Errorf("期望分配导师 %s，实际=%s", sup.SupervisorID, got)
	}
}

func TestUserService_CreateUser_InvalidDate(t *testing.T) {
	svc, store := setupTestUserService()
	_, admin := seedAdmin(store)

	_, err := svc.CreateUser(context.Background(), admin, &dto.CreateUserRequest{
		Email:                  "stu@test.com",
		Name:                   "新同学",
		Role:                   model.RoleStudent,
		StartDate:              "2025-09-01",
		ExpectedCompletionDate: "2025-01-01",
	})
	if !errors.Is(err, ErrCompletionBeforeStart) {
		t.Errorf("期望 ErrCompletionBeforeStart，实际: %v", err)
	}
}

// ── GetByID / List 测试 ──

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestUserService()

	_, err := svc.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestUserService_List_FilterAndSearch(t *testing.T) {
	svc, store := setupTestUserService()
	seedAdmin(store)
	seedSupervisor(store, "王老师", 3)
	seedStudent(store, "张三", "")
	seedStudent(store, "张四", "")

	list, total, err := svc.List(context.Background(), &dto.UserListRequest{Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("期望 2 名学生，实际 total=%d len=%d", total, len(list))
	}

	_, total, _ = svc.List(context.Background(), &dto.UserListRequest{Search: "王"})
	if total != 1 {
		t.Errorf("搜索「王」期望 1 条，实际=%d", total)
	}
}

// ── Update 测试 ──

func TestUserService_Update_EmailConflict(t *testing.T) {
	svc, store := setupTestUserService()
	_, admin := seedAdmin(store)
	st, _ := seedStudent(store, "张三", "")
	seedStudent(store, "李四", "")

	_, err := svc.Update(context.Background(), admin, st.UserID, &dto.UpdateUserRequest{Email: strPtr("李四@stu.test.com")})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

func TestUserService_Update_CannotDisableSelf(t *testing.T) {
	svc, store := setupTestUserService()
	u, admin := seedAdmin(store)

	_, err := svc.Update(context.Background(), admin, u.UserID, &dto.UpdateUserRequest{Status: strPtr(model.UserStatusSuspended)})
	if !errors.Is(err, ErrUserSelfStatus) {
		t.Errorf("期望 ErrUserSelfStatus，实际: %v", err)
	}
}

func TestUserService_Update_Status(t *testing.T) {
	svc, store := setupTestUserService()
	_, admin := seedAdmin(store)
	st, _ := seedStudent(store, "张三", "")

	resp, err := svc.Update(context.Background(), admin, st.UserID, &dto.UpdateUserRequest{Status: strPtr(model.UserStatusInactive)})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Status != model.UserStatusInactive || store.users[st.UserID].Status != model.UserStatusInactive {
		t.Error("状态未更新")
	}
}

// ── Delete 测试 ──

func TestUserService_Delete_Self(t *testing.T) {
	svc, store := setupTestUserService()
	u, admin := seedAdmin(store)

	if err := svc.Delete(context.Background(), admin, u.UserID); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("期望 ErrUserSelfDelete，实际: %v", err)
	}
}

func TestUserService_Delete_SupervisorUnassignsStudents(t *testing.T) {
	svc, store := setupTestUserService()
	_, admin := seedAdmin(store)
	sup, _ := seedSupervisor(store, "王老师", 3)
	st1, _ := seedStudent(store, "张三", sup.SupervisorID)
	st2, _ := seedStudent(store, "李四", sup.SupervisorID)

	if err := svc.Delete(context.Background(), admin, sup.UserID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if !store.users[sup.UserID].DeletedAt.Valid || !store.supervisors[sup.SupervisorID].DeletedAt.Valid {
		t.Error("导师用户与档案应被软删除")
	}
	if store.students[st1.StudentID].SupervisorID != nil || store.students[st2.StudentID].SupervisorID != nil {
		t.Error("名下学生应解除分配")
	}
}

func TestUserService_Delete_StudentFreesCapacity(t *testing.T) {
	svc, store := setupTestUserService()
	_, admin := seedAdmin(store)
	sup, _ := seedSupervisor(store, "王老师", 1)
	st, _ := seedStudent(store, "张三", sup.SupervisorID)

	if err := svc.Delete(context.Background(), admin, st.UserID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	n, _ := (&mockStudentRepo{store}).CountBySupervisor(context.Background(), sup.SupervisorID)
	if n != 0 {
		t.Errorf("删除学生后导师学生数应为 0，实际=%d", n)
	}
}

// ── Import 测试 ──

func TestUserService_ParseImportFile(t *testing.T) {
	svc, _ := setupTestUserService()
	buf := buildImportFile(t, [][]string{
		{"邮箱", "姓名", "专业", "导师邮箱"},
		{"a@test.com", "甲", "软件工程", "prof@test.com"},
		{"", "", "", ""},
		{"b@test.com", "乙", "", ""},
	})

	rows, err := svc.ParseImportFile(buf)
	if err != nil {
		t.Fatalf("ParseImportFile 应成功: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望跳过空行后 2 行，实际=%d", len(rows))
	}
	if rows[0].Name != "甲" || rows[0].SupervisorEmail != "prof@test.com" || rows[0].Row != 2 {
		t.Errorf("第 1 行解析错误: %+v", rows[0])
	}
	if rows[1].Row != 4 {
		t.Errorf("期望保留原始行号 4，实际=%d", rows[1].Row)
	}
}

func TestUserService_ParseImportFile_BadHeader(t *testing.T) {
	svc, _ := setupTestUserService()
	buf := buildImportFile(t, [][]string{{"foo", "bar"}, {"1", "2"}})

	if _, err := svc.ParseImportFile(buf); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("期望 ErrImportBadHeader，实际: %v", err)
	}
}

func TestUserService_ParseImportFile_NotExcel(t *testing.T) {
	svc, _ := setupTestUserService()

	if _, err := svc.ParseImportFile(strings.NewReader("not a spreadsheet")); !errors.Is(err, ErrImportBadFile) {
		t.Errorf("期望 ErrImportBadFile，实际: %v", err)
	}
}

func TestUserService_ImportStudents(t *testing.T) {
	svc, store := setupTestUserService()
	_, admin := seedAdmin(store)
	sup, _ := seedSupervisor(store, "王老师", 5)
	seedStudent(store, "已存在", "")

	resp, err := svc.ImportStudents(context.Background(), admin, []ImportStudentRow{
		{Row: 2, Name: "甲", Email: "a@test.com", SupervisorEmail: "王老师@sup.test.com"},
		{Row: 3, Name: "乙", Email: "A@test.com"},
		{Row: 4, Name: "丙", Email: "c@test.com", SupervisorEmail: "ghost@test.com"},
		{Row: 5, Name: "丁", Email: "已存在@stu.test.com"},
		{Row: 6, Name: "", Email: "e@test.com"},
		{Row: 7, Name: "戊", Email: "f@test.com", Password: "short"},
		{Row: 8, Name: "己", Email: "g@test.com", Password: "longenough1"},
	})
	if err != nil {
		t.Fatalf("ImportStudents 应成功: %v", err)
	}
	if resp.Total != 7 || resp.Success != 2 || resp.Failed != 5 {
		t.Errorf("期望 7/2/5，实际 total=%d success=%d failed=%d", resp.Total, resp.Success, resp.Failed)
	}
	if len(resp.Credentials) != 1 || resp.Credentials[0].Row != 2 {
		t.Errorf("仅生成的临时密码需返回，实际=%+v", resp.Credentials)
	}

	n, _ := (&mockStudentRepo{store}).CountBySupervisor(context.Background(), sup.SupervisorID)
	if n != 1 {
		t.Errorf("期望导师名下 1 名学生，实际=%d", n)
	}
}

func TestGenerateTempPassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		pwd, err := generateTempPassword(10)
		if err != nil {
			t.Fatalf("生成失败: %v", err)
		}
		if len(pwd) != 10 {
			t.Fatalf("期望长度 10，实际=%d", len(pwd))
		}
		var hasLetter, hasDigit bool
		for _, r := range pwd {
			hasLetter = hasLetter || unicode.IsLetter(r)
			hasDigit = hasDigit || unicode.IsDigit(r)
		}
		if !hasLetter || !hasDigit {
			t.Errorf("密码需同时包含字母与数字: %s", pwd)
		}
	}
}
