package model

import (
	"errors"
	"strconv"
	"time"
)

// PaymentStatus 模拟支付状态
type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusAttempted PaymentStatus = "attempted"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodBank PaymentMethod = "bank"
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodUPI, PaymentMethodBank, PaymentMethodCard, PaymentMethodCash:
		return true
	}
	return false
}

const (
	CurrencyINR = "INR"

	SimulatedFailureReason = "Simulated payment failure"
	OrderExpiredReason     = "Order expired"
)

// ErrPaymentNotPending 订单已经处理过，不能再次结算
var ErrPaymentNotPending = errors.New("payment order has already been processed")

// SimulatedDetails 模拟的支付渠道信息，仅用于展示
type SimulatedDetails struct {
	UPIID          string `json:"upiId,omitempty"`
	CardLast4      string `json:"cardLast4,omitempty"`
	BankName       string `json:"bankName,omitempty"`
	TransactionRef string `json:"transactionRef,omitempty"`
}

// Payment 一次模拟支付
type Payment struct {
	ID               int64            `json:"id"`
	PaymentID        string           `json:"paymentId"`
	UserID           int64            `json:"user"`
	DonationID       *int64           `json:"donation,omitempty"`
	DonationRef      string           `json:"donationId,omitempty"` // 关联捐赠的业务 ID，仅查询时填充
	OrderID          string           `json:"orderId"`
	Amount           float64          `json:"amount"`
	Currency         string           `json:"currency"`
	Status           PaymentStatus    `json:"status"`
	PaymentMethod    PaymentMethod    `json:"paymentMethod,omitempty"`
	DonationType     string           `json:"donationType,omitempty"`
	Description      string           `json:"description,omitempty"`
	ReceiptID        string           `json:"receiptId,omitempty"`
	SimulatedDetails SimulatedDetails `json:"simulatedDetails"`
	PaidAt           *time.Time       `json:"paidAt,omitempty"`
	FailedAt         *time.Time       `json:"failedAt,omitempty"`
	FailureReason    string           `json:"failureReason,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// NewOrder 创建一笔待支付订单
func NewOrder(paymentID, orderID string, userID int64, amount float64, donationType, description string, now time.Time) *Payment {
	return &Payment{
		PaymentID:    paymentID,
		UserID:       userID,
		OrderID:      orderID,
		Amount:       amount,
		Currency:     CurrencyINR,
		Status:       PaymentStatusCreated,
		DonationType: donationType,
		Description:  description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// MarkPaid 只允许从 created 转为 paid
func (p *Payment) MarkPaid(receiptID string, method PaymentMethod, details SimulatedDetails, now time.Time) error {
	if p.Status != PaymentStatusCreated {
		return ErrPaymentNotPending
	}
	t := now
	p.Status = PaymentStatusPaid
	p.PaidAt = &t
	p.ReceiptID = receiptID
	p.PaymentMethod = method
	p.SimulatedDetails = details
	p.UpdatedAt = now
	return nil
}

// MarkFailed 只允许从 created 转为 failed
func (p *Payment) MarkFailed(reason string, now time.Time) error {
	if p.Status != PaymentStatusCreated {
		return ErrPaymentNotPending
	}
	t := now
	p.Status = PaymentStatusFailed
	p.FailedAt = &t
	p.FailureReason = reason
	p.UpdatedAt = now
	return nil
}

func (p *Payment) LinkDonation(d *Donation) {
	id := d.ID
	p.DonationID = &id
	p.DonationRef = d.DonationID
}

func (p *Payment) IsOwnedBy(userID int64) bool {
	return p.UserID == userID
}

// FormatAmount 金额去掉多余的小数位，500 -> "500"，99.5 -> "99.5"
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
