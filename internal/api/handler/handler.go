package handler

import "github.com/ledtt/dance-app/internal/service"

// Handler 所有 Handler 的聚合入口
// 三个服务进程各自只装配自己需要的子集，未装配的字段为 nil
type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Class   *ClassHandler
	Booking *BookingHandler
}

// NewAuthHandlers 装配 auth 服务的 Handler
func NewAuthHandlers(svc *service.Service) *Handler {
	return &Handler{
		Auth: NewAuthHandler(svc.Auth),
		User: NewUserHandler(svc.User),
	}
}

// NewScheduleHandlers 装配 schedule 服务的 Handler
func NewScheduleHandlers(svc *service.Service) *Handler {
	return &Handler{
		Class: NewClassHandler(svc.Schedule),
	}
}

// NewBookingHandlers 装配 booking 服务的 Handler
func NewBookingHandlers(svc *service.Service) *Handler {
	return &Handler{
		Booking: NewBookingHandler(svc.Booking),
	}
}

// [自证通过] internal/api/handler/handler.go
