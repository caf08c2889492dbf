package service

import (
	"context"
	"donation-backend/internal/errors"
	"donation-backend/internal/events"
	"donation-backend/internal/idgen"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSimulationDelay = 1500 * time.Millisecond
	defaultSuccessRate     = 0.95
	simulatedUPIID         = "user@upi"
	simulatedBankName      = "Sample Bank"
)

// PaymentService 模拟支付：下单、结算、生成关联的资金捐赠
type PaymentService struct {
	paymentRepo  interfaces.PaymentRepository
	donationRepo interfaces.DonationRepository
	userRepo     interfaces.UserRepository
	tx           interfaces.Transactor
	ids          *idgen.Generator

	publisher events.Publisher
	notifier  Notifier
	receipts  ReceiptArchiver

	delay   time.Duration
	outcome func() bool
	sleep   func(time.Duration)
	now     func() time.Time
}

type PaymentOption func(*PaymentService)

func WithPublisher(p events.Publisher) PaymentOption {
	return func(s *PaymentService) { s.publisher = p }
}

func WithNotifier(n Notifier) PaymentOption {
	return func(s *PaymentService) { s.notifier = n }
}

func WithReceiptArchiver(r ReceiptArchiver) PaymentOption {
	return func(s *PaymentService) { s.receipts = r }
}

func WithSimulationDelay(d time.Duration) PaymentOption {
	return func(s *PaymentService) { s.delay = d }
}

// WithSuccessRate 按固定概率决定结算结果
func WithSuccessRate(rate float64) PaymentOption {
	return func(s *PaymentService) { s.outcome = RandomOutcome(rate) }
}

// WithOutcome 测试中用来固定成功或失败
func WithOutcome(outcome func() bool) PaymentOption {
	return func(s *PaymentService) { s.outcome = outcome }
}

func WithClock(now func() time.Time) PaymentOption {
	return func(s *PaymentService) { s.now = now }
}

func WithSleep(sleep func(time.Duration)) PaymentOption {
	return func(s *PaymentService) { s.sleep = sleep }
}

// RandomOutcome 每次调用独立抽取
func RandomOutcome(rate float64) func() bool {
	return func() bool { return rand.Float64() < rate }
}

func NewPaymentService(
	paymentRepo interfaces.PaymentRepository,
	donationRepo interfaces.DonationRepository,
	userRepo interfaces.UserRepository,
	tx interfaces.Transactor,
	ids *idgen.Generator,
	opts ...PaymentOption,
) *PaymentService {
	s := &PaymentService{
		paymentRepo:  paymentRepo,
		donationRepo: donationRepo,
		userRepo:     userRepo,
		tx:           tx,
		ids:          ids,
		publisher:    events.NopPublisher{},
		notifier:     NopNotifier{},
		receipts:     NopReceiptArchiver{},
		delay:        defaultSimulationDelay,
		outcome:      RandomOutcome(defaultSuccessRate),
		sleep:        time.Sleep,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateOrderInput struct {
	Amount       float64
	DonationType string
	Description  string
}

type VerifyInput struct {
	OrderID       string
	PaymentMethod model.PaymentMethod
	DonationType  string
}

// CreateOrder 只记账，不发生资金流动；每次调用都会生成新的订单号
func (s *PaymentService) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (*model.Payment, error) {
	if in.Amount < 1 {
		return nil, errors.New(errors.ErrValidation, "Amount must be at least ₹1")
	}

	p := model.NewOrder(s.ids.PaymentID(), s.ids.OrderID(), userID, in.Amount, in.DonationType, in.Description, s.now())
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		util.Logger.Error("创建支付订单失败", zap.Int64("user_id", userID), zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "创建支付订单失败", err)
	}

	util.Logger.Info("支付订单已创建",
		zap.String("order_id", p.OrderID),
		zap.String("payment_id", p.PaymentID),
		zap.Float64("amount", p.Amount))
	return p, nil
}

// VerifyPayment 模拟网关结算。调用方会一直等待模拟延迟结束；
// 成功时关联捐赠在返回前已经落库并写回订单
func (s *PaymentService) VerifyPayment(ctx context.Context, userID int64, in VerifyInput) (*model.Payment, error) {
	if in.PaymentMethod != "" && !in.PaymentMethod.IsValid() {
		return nil, errors.New(errors.ErrValidation, "Invalid payment method")
	}

	p, err := s.paymentRepo.FindByOrderID(ctx, in.OrderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询支付订单失败", err)
	}
	if p == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "Payment order not found")
	}
	if !p.IsOwnedBy(userID) {
		return nil, errors.New(errors.ErrForbidden, "Not authorized to verify this payment")
	}
	if p.Status != model.PaymentStatusCreated {
		return nil, errors.New(errors.ErrInvalidState, "Payment order has already been processed")
	}

	s.sleep(s.delay)
	success := s.outcome()

	// 延迟结束后客户端断开也要把结果写完
	ctx = context.WithoutCancel(ctx)

	method := in.PaymentMethod
	if method == "" {
		method = model.PaymentMethodCard
	}

	var settled *model.Payment
	var donation *model.Donation
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := s.paymentRepo.FindByOrderIDForUpdate(ctx, in.OrderID)
		if err != nil {
			return errors.Wrap(errors.ErrDatabase, "锁定支付订单失败", err)
		}
		if locked == nil {
			return errors.New(errors.ErrResourceNotFound, "Payment order not found")
		}
		now := s.now()

		if !success {
			if err := locked.MarkFailed(model.SimulatedFailureReason, now); err != nil {
				return errors.New(errors.ErrInvalidState, "Payment order has already been processed")
			}
			if err := s.paymentRepo.Update(ctx, locked); err != nil {
				return errors.Wrap(errors.ErrDatabase, "更新支付订单失败", err)
			}
			settled = locked
			return nil
		}

		if err := locked.MarkPaid(s.ids.ReceiptID(), method, s.simulatedDetails(method), now); err != nil {
			return errors.New(errors.ErrInvalidState, "Payment order has already been processed")
		}

		donationID, err := s.ids.DonationID(ctx)
		if err != nil {
			return errors.Wrap(errors.ErrDatabase, "生成捐赠编号失败", err)
		}
		d := model.NewPaymentDonation(donationID, locked.UserID, locked.Amount, method,
			purposeOf(in.DonationType, locked.DonationType), locked.Description, now)
		if err := s.donationRepo.Create(ctx, d); err != nil {
			return errors.Wrap(errors.ErrDatabase, "创建捐赠失败", err)
		}

		locked.LinkDonation(d)
		if err := s.paymentRepo.Update(ctx, locked); err != nil {
			return errors.Wrap(errors.ErrDatabase, "更新支付订单失败", err)
		}
		if err := s.userRepo.IncrementDonationStats(ctx, locked.UserID, 1, locked.Amount); err != nil {
			return errors.Wrap(errors.ErrDatabase, "更新用户统计失败", err)
		}
		settled, donation = locked, d
		return nil
	})
	if err != nil {
		util.Logger.Error("结算支付订单失败", zap.String("order_id", in.OrderID), zap.Error(err))
		return nil, err
	}

	if !success {
		util.Logger.Info("模拟支付失败", zap.String("order_id", settled.OrderID))
		publish(ctx, s.publisher, events.TopicPaymentFailed, settled.PaymentID, paymentEvent(settled))
		return nil, errors.New(errors.ErrPaymentFailed, "Payment failed. Please try again.")
	}

	util.Logger.Info("模拟支付成功",
		zap.String("order_id", settled.OrderID),
		zap.String("receipt_id", settled.ReceiptID),
		zap.String("donation_id", donation.DonationID))
	s.afterPaid(ctx, settled)
	return settled, nil
}

// afterPaid 事件、收据归档和邮件都不影响结算结果
func (s *PaymentService) afterPaid(ctx context.Context, p *model.Payment) {
	publish(ctx, s.publisher, events.TopicPaymentCompleted, p.PaymentID, paymentEvent(p))

	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil || user == nil {
		util.Logger.Warn("查询付款用户失败，跳过收据", zap.Int64("user_id", p.UserID), zap.Error(err))
		return
	}
	if location, err := s.receipts.Archive(ctx, user, p); err != nil {
		util.Logger.Warn("归档收据失败", zap.String("receipt_id", p.ReceiptID), zap.Error(err))
	} else if location != "" {
		util.Logger.Info("收据已归档", zap.String("receipt_id", p.ReceiptID), zap.String("location", location))
	}
	s.notifier.SendPaymentReceipt(user, p)
}

func (s *PaymentService) simulatedDetails(method model.PaymentMethod) model.SimulatedDetails {
	details := model.SimulatedDetails{TransactionRef: s.ids.TransactionRef()}
	switch method {
	case model.PaymentMethodUPI:
		details.UPIID = simulatedUPIID
	case model.PaymentMethodCard:
		details.CardLast4 = s.ids.CardLast4()
	case model.PaymentMethodBank:
		details.BankName = simulatedBankName
	case model.PaymentMethodCash:
	}
	return details
}

// purposeOf 结算时传入的用途优先，其次是下单时的用途
func purposeOf(candidates ...string) model.DonationPurpose {
	for _, c := range candidates {
		if p := model.DonationPurpose(c); p.IsValid() {
			return p
		}
	}
	return model.PurposeGeneral
}

// GetPayment 本人或管理员可见
func (s *PaymentService) GetPayment(ctx context.Context, id int64, requester Requester) (*model.Payment, error) {
	p, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询支付记录失败", err)
	}
	if p == nil {
		return nil, errors.New(errors.ErrResourceNotFound, "Payment not found")
	}
	if !requester.CanAccess(p.UserID) {
		return nil, errors.New(errors.ErrForbidden, "Not authorized to view this payment")
	}
	return p, nil
}

func (s *PaymentService) ListUserPayments(ctx context.Context, userID int64, p util.Pagination) (Page[*model.Payment], error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID, p.Limit, p.Offset())
	if err != nil {
		return Page[*model.Payment]{}, errors.Wrap(errors.ErrDatabase, "查询支付记录失败", err)
	}
	total, err := s.paymentRepo.CountByUser(ctx, userID)
	if err != nil {
		return Page[*model.Payment]{}, errors.Wrap(errors.ErrDatabase, "统计支付记录失败", err)
	}
	if payments == nil {
		payments = []*model.Payment{}
	}
	return Page[*model.Payment]{Items: payments, Total: total}, nil
}

// ExpireStaleOrders 把超过 ttl 仍未结算的订单标记为失败
func (s *PaymentService) ExpireStaleOrders(ctx context.Context, ttl time.Duration) (int64, error) {
	now := s.now()
	n, err := s.paymentRepo.ExpireCreatedBefore(ctx, now.Add(-ttl), model.OrderExpiredReason, now)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, "清理过期订单失败", err)
	}
	if n > 0 {
		util.Logger.Info("已清理过期支付订单", zap.Int64("count", n))
	}
	return n, nil
}

func paymentEvent(p *model.Payment) map[string]interface{} {
	return map[string]interface{}{
		"paymentId":  p.PaymentID,
		"orderId":    p.OrderID,
		"user":       p.UserID,
		"amount":     p.Amount,
		"status":     p.Status,
		"receiptId":  p.ReceiptID,
		"donationId": p.DonationRef,
	}
}

type PaymentServiceInterface interface {
	CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (*model.Payment, error)
	VerifyPayment(ctx context.Context, userID int64, in VerifyInput) (*model.Payment, error)
	GetPayment(ctx context.Context, id int64, requester Requester) (*model.Payment, error)
	ListUserPayments(ctx context.Context, userID int64, p util.Pagination) (Page[*model.Payment], error)
	ExpireStaleOrders(ctx context.Context, ttl time.Duration) (int64, error)
}

var _ PaymentServiceInterface = (*PaymentService)(nil)
