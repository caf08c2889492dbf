package interfaces

import (
	"context"
	"donation-backend/internal/model"
	"time"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	// 查找方法在记录不存在时返回 nil, nil
	FindByID(ctx context.Context, id int64) (*model.Payment, error)
	FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	// FindByOrderIDForUpdate 在事务中锁定订单，防止同一订单被重复结算
	FindByOrderIDForUpdate(ctx context.Context, orderID string) (*model.Payment, error)
	Update(ctx context.Context, payment *model.Payment) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.Payment, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
	// ExpireCreatedBefore 把 before 之前创建且仍为 created 的订单标记为失败，返回影响行数
	ExpireCreatedBefore(ctx context.Context, before time.Time, reason string, now time.Time) (int64, error)
}
