package interfaces

import (
	"context"
	"donation-backend/internal/model"
)

// UserFilter 管理后台的用户筛选条件
type UserFilter struct {
	UserType model.UserType
	Status   model.UserStatus
	Search   string // 姓名或邮箱模糊匹配
}

// UserRepository 接口定义了用户仓库应该实现的方法
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	// FindByID 和 FindByEmail 在记录不存在时返回 nil, nil
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateStatus(ctx context.Context, id int64, status model.UserStatus) error
	// IncrementDonationStats 原子累加捐赠次数和金额
	IncrementDonationStats(ctx context.Context, id int64, count int64, amount float64) error
	List(ctx context.Context, filter UserFilter, limit, offset int) ([]*model.User, error)
	Count(ctx context.Context, filter UserFilter) (int, error)
	TopDonors(ctx context.Context, limit int) ([]model.TopDonor, error)
}
