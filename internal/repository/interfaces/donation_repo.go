package interfaces

import (
	"context"
	"donation-backend/internal/model"
	"time"
)

// DonationFilter 捐赠查询条件，零值字段不参与过滤
type DonationFilter struct {
	DonorID       int64
	Type          model.DonationType
	Statuses      []model.DonationStatus
	Search        string // donationId 或 foodItem 模糊匹配
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
}

type DonationRepository interface {
	// Create 写入捐赠以及现有的全部时间线
	Create(ctx context.Context, donation *model.Donation) error
	// FindByID 和 FindByDonationID 在记录不存在时返回 nil, nil
	FindByID(ctx context.Context, id int64) (*model.Donation, error)
	FindByDonationID(ctx context.Context, donationID string) (*model.Donation, error)
	// FindByIDForUpdate 在事务中锁定记录，保证状态和时间线一起变化
	FindByIDForUpdate(ctx context.Context, id int64) (*model.Donation, error)
	// Update 只更新状态相关的可变字段，类型和内容不可修改
	Update(ctx context.Context, donation *model.Donation) error
	AppendTimeline(ctx context.Context, donationID int64, entry model.TimelineEntry) error
	List(ctx context.Context, filter DonationFilter, limit, offset int) ([]*model.Donation, error)
	Count(ctx context.Context, filter DonationFilter) (int, error)

	// 统计
	SumMonetary(ctx context.Context, statuses []model.DonationStatus) (float64, error)
	CountByType(ctx context.Context) ([]model.GroupCount, error)
	CountByStatus(ctx context.Context) ([]model.GroupCount, error)
	CountByMonth(ctx context.Context, limit int) ([]model.MonthlyCount, error)
}
