package service

import (
	"context"
	"donation-backend/internal/cache"
	"donation-backend/internal/errors"
	"donation-backend/internal/events"
	"donation-backend/internal/idgen"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"
	stderrors "errors"
	"time"

	"go.uber.org/zap"
)

type DonationService struct {
	donationRepo interfaces.DonationRepository
	userRepo     interfaces.UserRepository
	tx           interfaces.Transactor
	ids          *idgen.Generator
	tracking     cache.TrackingCache
	publisher    events.Publisher
	now          func() time.Time
}

func NewDonationService(
	donationRepo interfaces.DonationRepository,
	userRepo interfaces.UserRepository,
	tx interfaces.Transactor,
	ids *idgen.Generator,
	tracking cache.TrackingCache,
	publisher events.Publisher,
) *DonationService {
	return &DonationService{
		donationRepo: donationRepo,
		userRepo:     userRepo,
		tx:           tx,
		ids:          ids,
		tracking:     tracking,
		publisher:    publisher,
		now:          time.Now,
	}
}

// CreateDonationInput 按 Type 只使用对应的字段组
type CreateDonationInput struct {
	Type          model.DonationType
	FoodItem      string
	Quantity      string
	BestBefore    string
	Amount        float64
	PaymentMethod model.PaymentMethod
	Purpose       model.DonationPurpose
	SupplyItems   []model.SupplyItem
	Location      *model.Location
	Notes         string
}

// StatusUpdate 管理员更新捐赠状态
type StatusUpdate struct {
	Status      model.DonationStatus
	Description string
	Recipient   *model.Recipient
}

func validateDonationInput(in CreateDonationInput) error {
	if !in.Type.IsValid() {
		return errors.New(errors.ErrValidation, "Invalid donation type")
	}
	switch in.Type {
	case model.DonationTypeFood:
		if in.FoodItem == "" || in.Quantity == "" {
			return errors.New(errors.ErrValidation, "Food donations require foodItem and quantity")
		}
	case model.DonationTypeMonetary:
		if in.Amount <= 0 {
			return errors.New(errors.ErrValidation, "Monetary donations require an amount")
		}
	case model.DonationTypeSupplies:
		for _, item := range in.SupplyItems {
			if item.Condition != "" && !item.Condition.IsValid() {
				return errors.New(errors.ErrValidation, "Invalid supply item condition")
			}
		}
	}
	if in.PaymentMethod != "" && !in.PaymentMethod.IsValid() {
		return errors.New(errors.ErrValidation, "Invalid payment method")
	}
	if in.Purpose != "" && !in.Purpose.IsValid() {
		return errors.New(errors.ErrValidation, "Invalid donation purpose")
	}
	return nil
}

// Create 创建捐赠并原子累加捐赠者统计
func (s *DonationService) Create(ctx context.Context, donorID int64, in CreateDonationInput) (*model.Donation, error) {
	if err := validateDonationInput(in); err != nil {
		return nil, err
	}

	purpose := in.Purpose
	if purpose == "" {
		purpose = model.PurposeGeneral
	}

	var donation *model.Donation
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		donationID, err := s.ids.DonationID(ctx)
		if err != nil {
			return errors.Wrap(errors.ErrDatabase, "生成捐赠编号失败", err)
		}

		d := model.NewDonation(donationID, donorID, in.Type, s.now())
		d.FoodItem = in.FoodItem
		d.Quantity = in.Quantity
		d.BestBefore = in.BestBefore
		d.Amount = in.Amount
		d.PaymentMethod = in.PaymentMethod
		d.Purpose = purpose
		d.SupplyItems = in.SupplyItems
		d.Location = in.Location
		d.Notes = in.Notes

		if err := s.donationRepo.Create(ctx, d); err != nil {
			return errors.Wrap(errors.ErrDatabase, "创建捐赠失败", err)
		}

		var amount float64
		if d.Type == model.DonationTypeMonetary {
			amount = d.Amount
		}
		if err := s.userRepo.IncrementDonationStats(ctx, donorID, 1, amount); err != nil {
			return errors.Wrap(errors.ErrDatabase, "更新用户统计失败", err)
		}
		donation = d
		return nil
	})
	if err != nil {
		util.Logger.Error("创建捐赠失败", zap.Int64("donor_id", donorID), zap.Error(err))
		return nil, err
	}

	util.Logger.Info("捐赠创建成功",
		zap.String("donation_id", donation.DonationID),
		zap.Int64("donor_id", donorID),
		zap.String("type", string(donation.Type)))
	publish(ctx, s.publisher, events.TopicDonationCreated, donation.DonationID, donationEvent(donation))
	return donation, nil
}

// ListByDonor 捐赠者自己的捐赠，按创建时间倒序
func (s *DonationService) ListByDonor(ctx context.Context, donorID int64, p util.Pagination) (Page[*model.Donation], error) {
	return s.list(ctx, interfaces.DonationFilter{DonorID: donorID}, p)
}

// AdminList 管理后台按状态、类型、关键字筛选
func (s *DonationService) AdminList(ctx context.Context, filter interfaces.DonationFilter, p util.Pagination) (Page[*model.Donation], error) {
	return s.list(ctx, filter, p)
}

func (s *DonationService) list(ctx context.Context, filter interfaces.DonationFilter, p util.Pagination) (Page[*model.Donation], error) {
	donations, err := s.donationRepo.List(ctx, filter, p.Limit, p.Offset())
	if err != nil {
		return Page[*model.Donation]{}, errors.Wrap(errors.ErrDatabase, "查询捐赠失败", err)
	}
	total, err := s.donationRepo.Count(ctx, filter)
	if err != nil {
		return Page[*model.Donation]{}, errors.Wrap(errors.ErrDatabase, "统计捐赠失败", err)
	}
	if donations == nil {
		donations = []*model.Donation{}
	}
	return Page[*model.Donation]{Items: donations, Total: total}, nil
}

// GetByID 本人或管理员可见
func (s *DonationService) GetByID(ctx context.Context, id int64, requester Requester) (*model.Donation, error) {
	d, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(d.DonorID) {
		return nil, errors.New(errors.ErrForbidden, "Not authorized to view this donation")
	}
	return d, nil
}

func (s *DonationService) findByID(ctx context.Context, id int64) (*model.Donation, error) {
	d, err := s.donationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询捐赠失败", err)
	}
	if d == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "Donation not found")
	}
	return d, nil
}

// Track 公开接口，凭捐赠编号查询完整记录
func (s *DonationService) Track(ctx context.Context, donationID string) (*model.Donation, error) {
	if d, ok := s.tracking.Get(ctx, donationID); ok {
		return d, nil
	}
	d, err := s.donationRepo.FindByDonationID(ctx, donationID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询捐赠失败", err)
	}
	if d == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "Donation not found. Please check the donation ID.")
	}
	s.tracking.Set(ctx, d)
	return d, nil
}

// Cancel 本人或管理员取消，只允许 pending / pickup-scheduled
func (s *DonationService) Cancel(ctx context.Context, id int64, requester Requester, reason string) (*model.Donation, error) {
	var donation *model.Donation
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.lockByID(ctx, id)
		if err != nil {
			return err
		}
		if !requester.CanAccess(d.DonorID) {
			return errors.New(errors.ErrForbidden, "Not authorized to cancel this donation")
		}

		entry, err := d.Cancel(reason, s.now())
		if stderrors.Is(err, model.ErrNotCancellable) {
			return errors.New(errors.ErrInvalidState, "Cannot cancel donation at this stage")
		}
		if err != nil {
			return err
		}

		if err := s.persistTransition(ctx, d, entry); err != nil {
			return err
		}
		donation = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.Logger.Info("捐赠已取消",
		zap.String("donation_id", donation.DonationID),
		zap.Int64("by", requester.UserID))
	// 直接写入新记录，覆盖并发 Track 可能回填的旧快照
	s.tracking.Set(ctx, donation)
	publish(ctx, s.publisher, events.TopicDonationCancelled, donation.DonationID, donationEvent(donation))
	return donation, nil
}

// UpdateStatus 管理员更新状态，不限制来源状态，每次都会追加时间线
func (s *DonationService) UpdateStatus(ctx context.Context, id int64, update StatusUpdate) (*model.Donation, error) {
	if !update.Status.IsValid() {
		return nil, errors.New(errors.ErrValidation, "Invalid donation status")
	}
	if update.Recipient != nil && update.Recipient.Type != "" && !update.Recipient.Type.IsValid() {
		return nil, errors.New(errors.ErrValidation, "Invalid recipient type")
	}

	var donation *model.Donation
	var previous model.DonationStatus
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.lockByID(ctx, id)
		if err != nil {
			return err
		}
		previous = d.Status
		entry := d.TransitionTo(update.Status, update.Description, update.Recipient, s.now())
		if err := s.persistTransition(ctx, d, entry); err != nil {
			return err
		}
		donation = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.Logger.Info("捐赠状态已更新",
		zap.String("donation_id", donation.DonationID),
		zap.String("from", string(previous)),
		zap.String("to", string(donation.Status)))
	s.tracking.Set(ctx, donation)
	payload := donationEvent(donation)
	payload["previousStatus"] = previous
	publish(ctx, s.publisher, events.TopicDonationStatusChanged, donation.DonationID, payload)
	return donation, nil
}

func (s *DonationService) lockByID(ctx context.Context, id int64) (*model.Donation, error) {
	d, err := s.donationRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询捐赠失败", err)
	}
	if d == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "Donation not found")
	}
	return d, nil
}

// persistTransition 状态和新增的时间线在同一事务里写入
func (s *DonationService) persistTransition(ctx context.Context, d *model.Donation, entry model.TimelineEntry) error {
	if err := s.donationRepo.Update(ctx, d); err != nil {
		return errors.Wrap(errors.ErrDatabase, "更新捐赠失败", err)
	}
	if err := s.donationRepo.AppendTimeline(ctx, d.ID, entry); err != nil {
		return errors.Wrap(errors.ErrDatabase, "写入时间线失败", err)
	}
	return nil
}

func donationEvent(d *model.Donation) map[string]interface{} {
	return map[string]interface{}{
		"donationId": d.DonationID,
		"donor":      d.DonorID,
		"type":       d.Type,
		"status":     d.Status,
		"amount":     d.Amount,
	}
}

// DonationServiceInterface 供 HTTP 层使用
type DonationServiceInterface interface {
	Create(ctx context.Context, donorID int64, in CreateDonationInput) (*model.Donation, error)
	ListByDonor(ctx context.Context, donorID int64, p util.Pagination) (Page[*model.Donation], error)
	AdminList(ctx context.Context, filter interfaces.DonationFilter, p util.Pagination) (Page[*model.Donation], error)
	GetByID(ctx context.Context, id int64, requester Requester) (*model.Donation, error)
	Track(ctx context.Context, donationID string) (*model.Donation, error)
	Cancel(ctx context.Context, id int64, requester Requester, reason string) (*model.Donation, error)
	UpdateStatus(ctx context.Context, id int64, update StatusUpdate) (*model.Donation, error)
}

var _ DonationServiceInterface = (*DonationService)(nil)
