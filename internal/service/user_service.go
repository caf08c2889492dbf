package service

import (
	"context"
	"donation-backend/internal/cache"
	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"
	stderrors "errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo  interfaces.UserRepository
	blacklist cache.TokenBlacklist
	now       func() time.Time
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository, blacklist cache.TokenBlacklist) *UserService {
	return &UserService{
		userRepo:  userRepo,
		blacklist: blacklist,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	UserType model.UserType
}

type ProfileUpdate struct {
	Name    string
	Phone   string
	Address *model.Address
}

// Register 注册新用户
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if existing != nil {
		return nil, errors.New(errors.ErrResourceExists, "User already exists with this email")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}

	userType := in.UserType
	if userType == "" {
		userType = model.UserTypeIndividual
	}
	now := s.now()
	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hashedPassword),
		UserType:     userType,
		Role:         model.RoleUser,
		Status:       model.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// 并发注册同一个邮箱
		if stderrors.Is(err, interfaces.ErrDuplicate) {
			return nil, errors.New(errors.ErrResourceExists, "User already exists with this email")
		}
		return nil, errors.Wrap(errors.ErrDatabase, "创建用户失败", err)
	}

	util.Logger.Info("用户注册成功", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login 用户登录
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		util.Logger.Info("用户登录失败，未找到用户", zap.String("email", email))
		return nil, errors.New(errors.ErrInvalidCredentials, "Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Logger.Info("用户登录失败，密码不正确", zap.Int64("user_id", user.ID))
		return nil, errors.New(errors.ErrInvalidCredentials, "Invalid credentials")
	}

	if user.Status == model.UserStatusSuspended {
		return nil, errors.New(errors.ErrAccountSuspended, "Your account has been suspended")
	}

	util.Logger.Info("用户登录成功", zap.Int64("user_id", user.ID))
	return user, nil
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "User not found")
	}
	return user, nil
}

// UpdateProfile 只更新传入的非空字段
func (s *UserService) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(update.Name); name != "" {
		user.Name = name
	}
	if update.Phone != "" {
		user.Phone = update.Phone
	}
	if update.Address != nil {
		addr := *update.Address
		user.Address = &addr
	}
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "更新用户失败", err)
	}
	return user, nil
}

// ChangePassword 校验当前密码后修改
func (s *UserService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return errors.New(errors.ErrInvalidCredentials, "Current password is incorrect")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, id, string(hashed)); err != nil {
		return errors.Wrap(errors.ErrDatabase, "更新密码失败", err)
	}
	util.Logger.Info("用户修改密码", zap.Int64("user_id", id))
	return nil
}

// Logout 令牌在过期前一直留在黑名单中
func (s *UserService) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	if expiresAt.IsZero() {
		expiresAt = s.now().Add(24 * time.Hour)
	}
	if err := s.blacklist.Add(ctx, token, expiresAt); err != nil {
		return errors.Wrap(errors.ErrInternal, "注销失败", err)
	}
	return nil
}

// IsTokenBlacklisted 黑名单不可用时放行，只记录日志
func (s *UserService) IsTokenBlacklisted(ctx context.Context, token string) bool {
	revoked, err := s.blacklist.Contains(ctx, token)
	if err != nil {
		util.Logger.Warn("查询令牌黑名单失败", zap.Error(err))
		return false
	}
	return revoked
}

// UserServiceInterface 定义了用户服务的接口
type UserServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error
	Logout(ctx context.Context, token string, expiresAt time.Time) error
	IsTokenBlacklisted(ctx context.Context, token string) bool
}

// 确保 UserService 实现了 UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)
