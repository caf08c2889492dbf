package service

import (
	"context"
	"donation-backend/internal/errors"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"

	"go.uber.org/zap"
)

// userDetailLimit 用户详情页展示的最近捐赠和支付条数
const userDetailLimit = 20

// AdminService 管理后台的用户管理
type AdminService struct {
	userRepo     interfaces.UserRepository
	donationRepo interfaces.DonationRepository
	paymentRepo  interfaces.PaymentRepository
}

// NewAdminService 创建一个新的 AdminService 实例
func NewAdminService(userRepo interfaces.UserRepository, donationRepo interfaces.DonationRepository, paymentRepo interfaces.PaymentRepository) *AdminService {
	return &AdminService{
		userRepo:     userRepo,
		donationRepo: donationRepo,
		paymentRepo:  paymentRepo,
	}
}

// UserDetail 用户及其最近的捐赠和支付
type UserDetail struct {
	User      *model.User
	Donations []*model.Donation
	Payments  []*model.Payment
}

func (s *AdminService) ListUsers(ctx context.Context, filter interfaces.UserFilter, p util.Pagination) (Page[*model.User], error) {
	users, err := s.userRepo.List(ctx, filter, p.Limit, p.Offset())
	if err != nil {
		return Page[*model.User]{}, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		return Page[*model.User]{}, errors.Wrap(errors.ErrDatabase, "统计用户失败", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return Page[*model.User]{Items: users, Total: total}, nil
}

func (s *AdminService) GetUserDetail(ctx context.Context, id int64) (*UserDetail, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	donations, err := s.donationRepo.List(ctx, interfaces.DonationFilter{DonorID: id}, userDetailLimit, 0)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户捐赠失败", err)
	}
	payments, err := s.paymentRepo.ListByUser(ctx, id, userDetailLimit, 0)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户支付失败", err)
	}
	if donations == nil {
		donations = []*model.Donation{}
	}
	if payments == nil {
		payments = []*model.Payment{}
	}
	return &UserDetail{User: user, Donations: donations, Payments: payments}, nil
}

// UpdateUserStatus 封禁后该用户的令牌在下一次请求时失效
func (s *AdminService) UpdateUserStatus(ctx context.Context, id int64, status model.UserStatus) (*model.User, error) {
	if !status.IsValid() {
		return nil, errors.New(errors.ErrValidation, "Invalid user status")
	}
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "更新用户状态失败", err)
	}
	util.Logger.Info("用户状态已更新",
		zap.Int64("user_id", id),
		zap.String("from", string(user.Status)),
		zap.String("to", string(status)))
	user.Status = status
	return user, nil
}

func (s *AdminService) findUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "User not found")
	}
	return user, nil
}

type AdminServiceInterface interface {
	ListUsers(ctx context.Context, filter interfaces.UserFilter, p util.Pagination) (Page[*model.User], error)
	GetUserDetail(ctx context.Context, id int64) (*UserDetail, error)
	UpdateUserStatus(ctx context.Context, id int64, status model.UserStatus) (*model.User, error)
}

var _ AdminServiceInterface = (*AdminService)(nil)
