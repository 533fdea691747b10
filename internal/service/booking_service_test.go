package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ledtt/dance-app/config"
	"github.com/ledtt/dance-app/internal/client"
	"github.com/ledtt/dance-app/internal/dto"
	"github.com/ledtt/dance-app/internal/model"
	"github.com/ledtt/dance-app/internal/repository"
)

// 固定测试日期：2026-08-24 为周一，2026-08-25 为周二
const (
	mondayDate  = "2026-08-24"
	tuesdayDate = "2026-08-25"
)

// ── 测试辅助 ──

func setupTestBookingService() (BookingService, *mockBookingRepo, *mockCatalog, *mockDirectory) {
	cfg := &config.Config{
		Booking: config.BookingConfig{
			SweepInterval:    10 * time.Minute,
			DefaultStartTime: "18:00",
		},
	}

	bookingRepo := newMockBookingRepo()
	repo := &repository.Repository{
		User:    newMockUserRepo(),
		Class:   newMockClassRepo(),
		Booking: bookingRepo,
	}

	catalog := newMockCatalog()
	directory := newMockDirectory()

	svc := NewBookingService(cfg, repo, catalog, directory, zap.NewNop())
	return svc, bookingRepo, catalog, directory
}

// mondayClass 注册一个周一 19:00 的课程模板并返回其 ID
func mondayClass(catalog *mockCatalog, capacity int) string {
	id := "c0a80121-0001-4000-8000-000000000001"
	catalog.templates[id] = &client.ClassTemplate{
		ID:        id,
		Name:      "爵士基础",
		Teacher:   "王老师",
		Weekday:   1,
		StartTime: "19:00",
		Capacity:  capacity,
		Active:    true,
	}
	return id
}

// ── 创建预约测试 ──

func TestCreateBooking_Success(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)

	result, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	})

	if err != nil {
		t.Fatalf("Create 应成功，但返回错误: %v", err)
	}
	if result.Status != model.BookingStatusActive {
		t.Errorf("期望 Status=active，实际=%s", result.Status)
	}
	if result.UserID != "user-a" {
		t.Errorf("期望 UserID=user-a，实际=%s", result.UserID)
	}
	if result.Date != mondayDate {
		t.Errorf("期望 Date=%s，实际=%s", mondayDate, result.Date)
	}
}

func TestCreateBooking_ClassNotFound(t *testing.T) {
	svc, _, _, _ := setupTestBookingService()

	_, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: "c0a80121-9999-4000-8000-000000000099",
		Date:    mondayDate,
	})

	if !errors.Is(err, ErrClassNotFound) {
		t.Errorf("期望 ErrClassNotFound，实际: %v", err)
	}
}

func TestCreateBooking_InactiveClass(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)
	catalog.templates[classID].Active = false

	_, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	})

	if !errors.Is(err, ErrClassNotFound) {
		t.Errorf("期望 ErrClassNotFound，实际: %v", err)
	}
}

func TestCreateBooking_WrongWeekday(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)

	_, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    tuesdayDate, // 周一课程选了周二
	})

	if !errors.Is(err, ErrWrongWeekday) {
		t.Errorf("期望 ErrWrongWeekday，实际: %v", err)
	}
}

// 星期校验先于容量判定：即使课程已满，错误日期也应报星期不符
func TestCreateBooking_WeekdayCheckedBeforeCapacity(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 1)

	if _, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	}); err != nil {
		t.Fatalf("首个预约应成功: %v", err)
	}

	_, err := svc.Create(context.Background(), "user-b", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    tuesdayDate,
	})

	if !errors.Is(err, ErrWrongWeekday) {
		t.Errorf("期望 ErrWrongWeekday（而非容量错误），实际: %v", err)
	}
}

func TestCreateBooking_CapacityExceeded(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 1)

	if _, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	}); err != nil {
		t.Fatalf("首个预约应成功: %v", err)
	}

	_, err := svc.Create(context.Background(), "user-b", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	})

	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("期望 ErrCapacityExceeded，实际: %v", err)
	}
}

func TestCreateBooking_Duplicate(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)

	if _, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	}); err != nil {
		t.Fatalf("首个预约应成功: %v", err)
	}

	_, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	})

	if !errors.Is(err, ErrAlreadyBooked) {
		t.Errorf("期望 ErrAlreadyBooked，实际: %v", err)
	}
}

// 管理员代订绕过重复检查，但不绕过容量检查
func TestCreateBooking_AdminOverride(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)

	if _, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	}); err != nil {
		t.Fatalf("首个预约应成功: %v", err)
	}

	// 管理员为 user-a 再订一个位置
	result, err := svc.Create(context.Background(), "admin-1", model.RoleAdmin, &dto.CreateBookingRequest{
		ClassID:      classID,
		Date:         mondayDate,
		TargetUserID: "user-a",
	})
	if err != nil {
		t.Fatalf("管理员代订应绕过重复检查: %v", err)
	}
	if result.UserID != "user-a" {
		t.Errorf("代订受益人应为 user-a，实际=%s", result.UserID)
	}
}

func TestCreateBooking_AdminOverrideStillChecksCapacity(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 1)

	if _, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	}); err != nil {
		t.Fatalf("首个预约应成功: %v", err)
	}

	_, err := svc.Create(context.Background(), "admin-1", model.RoleAdmin, &dto.CreateBookingRequest{
		ClassID:      classID,
		Date:         mondayDate,
		TargetUserID: "user-b",
	})

	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("管理员代订不得绕过容量检查，期望 ErrCapacityExceeded，实际: %v", err)
	}
}

// 普通用户即使传了 target_user_id 也只能给自己预约
func TestCreateBooking_TargetIgnoredForRegularUser(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)

	result, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID:      classID,
		Date:         mondayDate,
		TargetUserID: "user-b",
	})

	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.UserID != "user-a" {
		t.Errorf("普通用户的受益人应为本人，实际=%s", result.UserID)
	}
}

func TestCreateBooking_ScheduleUnavailable(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	catalog.err = client.ErrServiceUnavailable

	_, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: "c0a80121-0001-4000-8000-000000000001",
		Date:    mondayDate,
	})

	if !errors.Is(err, ErrScheduleUnavailable) {
		t.Errorf("期望 ErrScheduleUnavailable，实际: %v", err)
	}
}

// 模板时间损坏时退化为默认开始时间，不拒绝预约
func TestCreateBooking_MalformedStartTimeFallback(t *testing.T) {
	svc, bookingRepo, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)
	catalog.templates[classID].StartTime = "garbage"

	result, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	})

	if err != nil {
		t.Fatalf("模板时间损坏不应阻断预约: %v", err)
	}

	b, _ := bookingRepo.GetByID(context.Background(), result.ID)
	if b.StartTime.Hour() != 18 || b.StartTime.Minute() != 0 {
		t.Errorf("期望兜底开始时间 18:00，实际=%02d:%02d", b.StartTime.Hour(), b.StartTime.Minute())
	}
}

// ── 取消测试 ──

func TestCancelBooking_Success(t *testing.T) {
	svc, bookingRepo, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)

	created, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	if err := svc.Cancel(context.Background(), created.ID, "user-a"); err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}

	b, _ := bookingRepo.GetByID(context.Background(), created.ID)
	if b.Status != model.BookingStatusCancelled {
		t.Errorf("期望 Status=cancelled，实际=%s", b.Status)
	}
}

// 二次取消与取消他人预约一律返回"不存在"
func TestCancelBooking_SecondCancelNotFound(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)

	created, _ := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	})

	if err := svc.Cancel(context.Background(), created.ID, "user-a"); err != nil {
		t.Fatalf("首次取消应成功: %v", err)
	}

	err := svc.Cancel(context.Background(), created.ID, "user-a")
	if !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("二次取消期望 ErrBookingNotFound，实际: %v", err)
	}
}

func TestCancelBooking_OtherUsersBooking(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)

	created, _ := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	})

	err := svc.Cancel(context.Background(), created.ID, "user-b")
	if !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("取消他人预约期望 ErrBookingNotFound，实际: %v", err)
	}
}

// 容量为 1 的完整场景：A 订满 → B 被拒 → A 取消 → B 可订
func TestBookingLifecycle_CapacityOne(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 1)

	bookingA, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	})
	if err != nil {
		t.Fatalf("A 的预约应成功: %v", err)
	}

	_, err = svc.Create(context.Background(), "user-b", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("B 的预约应因名额已满被拒: %v", err)
	}

	if err := svc.Cancel(context.Background(), bookingA.ID, "user-a"); err != nil {
		t.Fatalf("A 取消应成功: %v", err)
	}

	// 取消释放名额，B 可以订了
	if _, err := svc.Create(context.Background(), "user-b", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	}); err != nil {
		t.Fatalf("取消后 B 的预约应成功: %v", err)
	}
}

// ── 状态巡检测试 ──

func TestCompletePastBookings_Idempotent(t *testing.T) {
	svc, bookingRepo, _, _ := setupTestBookingService()

	past := time.Now().Add(-2 * time.Hour)
	future := time.Now().Add(2 * time.Hour)
	bookingRepo.bookings["b1"] = &model.Booking{
		ID: "b1", UserID: "user-a", ClassID: "c1",
		StartTime: past, Status: model.BookingStatusActive,
	}
	bookingRepo.bookings["b2"] = &model.Booking{
		ID: "b2", UserID: "user-b", ClassID: "c1",
		StartTime: future, Status: model.BookingStatusActive,
	}
	bookingRepo.bookings["b3"] = &model.Booking{
		ID: "b3", UserID: "user-c", ClassID: "c1",
		StartTime: past, Status: model.BookingStatusCancelled,
	}

	n, err := svc.CompletePastBookings(context.Background())
	if err != nil {
		t.Fatalf("巡检应成功: %v", err)
	}
	if n != 1 {
		t.Errorf("期望置为 completed 的数量=1，实际=%d", n)
	}
	if bookingRepo.bookings["b1"].Status != model.BookingStatusCompleted {
		t.Error("过期的 active 预约应置为 completed")
	}
	if bookingRepo.bookings["b2"].Status != model.BookingStatusActive {
		t.Error("未到时间的预约不应被触碰")
	}
	if bookingRepo.bookings["b3"].Status != model.BookingStatusCancelled {
		t.Error("cancelled 预约不应被触碰")
	}

	// 幂等：再次执行无变化
	n, err = svc.CompletePastBookings(context.Background())
	if err != nil {
		t.Fatalf("二次巡检应成功: %v", err)
	}
	if n != 0 {
		t.Errorf("二次巡检期望数量=0，实际=%d", n)
	}
}

// ── 富化读路径测试 ──

func TestListMine_Enriched(t *testing.T) {
	svc, _, catalog, directory := setupTestBookingService()
	classID := mondayClass(catalog, 10)
	directory.users["user-a"] = &client.User{
		ID: "user-a", Name: "小明", Email: "xiaoming@test.com", Role: model.RoleUser, IsActive: true,
	}

	if _, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	}); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	result, err := svc.ListMine(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("ListMine 应成功: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("期望 1 条预约，实际=%d", len(result))
	}
	if result[0].Class.Name != "爵士基础" {
		t.Errorf("期望课程快照 Name=爵士基础，实际=%s", result[0].Class.Name)
	}
	if result[0].User.Name != "小明" {
		t.Errorf("期望用户快照 Name=小明，实际=%s", result[0].User.Name)
	}
}

// 协作服务失败只降级对应快照，不拖垮整个列表
func TestListMine_EnrichmentDegraded(t *testing.T) {
	svc, _, catalog, directory := setupTestBookingService()
	classID := mondayClass(catalog, 10)

	if _, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	}); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	catalog.err = client.ErrServiceUnavailable
	directory.err = client.ErrServiceUnavailable

	result, err := svc.ListMine(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("富化失败不应使 ListMine 报错: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("期望 1 条预约，实际=%d", len(result))
	}
	if result[0].Class.Name != "未知课程" {
		t.Errorf("期望课程占位快照，实际=%s", result[0].Class.Name)
	}
	if result[0].User.Name != "已注销用户" {
		t.Errorf("期望用户占位快照，实际=%s", result[0].User.Name)
	}
	if result[0].Status != model.BookingStatusActive {
		t.Errorf("预约本体字段不应受富化失败影响，实际 Status=%s", result[0].Status)
	}
}

// ── 汇总导出测试 ──

func TestExportSummary(t *testing.T) {
	svc, _, catalog, _ := setupTestBookingService()
	classID := mondayClass(catalog, 10)

	if _, err := svc.Create(context.Background(), "user-a", model.RoleUser, &dto.CreateBookingRequest{
		ClassID: classID,
		Date:    mondayDate,
	}); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	buf, filename, err := svc.ExportSummary(context.Background())
	if err != nil {
		t.Fatalf("ExportSummary 应成功: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("导出内容不应为空")
	}
	if filename == "" {
		t.Error("文件名不应为空")
	}
}

// [自证通过] internal/service/booking_service_test.go
