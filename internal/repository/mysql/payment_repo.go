package mysql

import (
	"context"
	"database/sql"
	"donation-backend/internal/model"
	"donation-backend/internal/util"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// 关联捐赠的业务编号通过 LEFT JOIN 带出
const paymentSelect = `SELECT p.id, p.payment_id, p.user_id, p.donation_id, COALESCE(d.donation_id, ''),
	p.order_id, p.amount, p.currency, p.status, p.payment_method, p.donation_type, p.description,
	p.receipt_id, p.simulated_details, p.paid_at, p.failed_at, p.failure_reason, p.created_at, p.updated_at
	FROM payments p LEFT JOIN donations d ON d.id = p.donation_id`

func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	util.Logger.Info("开始创建支付订单",
		zap.Int64("user_id", payment.UserID),
		zap.String("order_id", payment.OrderID),
		zap.Float64("amount", payment.Amount))

	details, err := jsonColumn(payment.SimulatedDetails, false)
	if err != nil {
		return fmt.Errorf("failed to encode simulated details: %w", err)
	}

	result, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO payments (payment_id, user_id, donation_id, order_id, amount, currency, status,
			payment_method, donation_type, description, receipt_id, simulated_details,
			paid_at, failed_at, failure_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.PaymentID, payment.UserID, nullInt64(payment.DonationID), payment.OrderID, payment.Amount,
		payment.Currency, payment.Status, payment.PaymentMethod, payment.DonationType, payment.Description,
		payment.ReceiptID, details, nullTime(payment.PaidAt), nullTime(payment.FailedAt), payment.FailureReason,
		payment.CreatedAt, payment.UpdatedAt)
	if err != nil {
		util.Logger.Error("创建支付订单失败",
			zap.Error(err),
			zap.String("error_type", fmt.Sprintf("%T", err)))
		return fmt.Errorf("failed to create payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取支付记录ID失败", zap.Error(err))
		return fmt.Errorf("failed to get payment ID: %w", err)
	}
	payment.ID = id
	util.Logger.Info("支付订单创建成功", zap.Int64("id", payment.ID), zap.String("payment_id", payment.PaymentID))
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*model.Payment, error) {
	return r.findOne(ctx, "p.id = ?", id)
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return r.findOne(ctx, "p.order_id = ?", orderID)
}

// FindByOrderIDForUpdate 只锁 payments 表的行
func (r *PaymentRepository) FindByOrderIDForUpdate(ctx context.Context, orderID string) (*model.Payment, error) {
	return r.findOne(ctx, "p.order_id = ? FOR UPDATE OF p", orderID)
}

func (r *PaymentRepository) findOne(ctx context.Context, cond string, arg interface{}) (*model.Payment, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, paymentSelect+" WHERE "+cond, arg)
	payment, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查询支付记录失败", zap.Error(err))
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return payment, nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	details, err := jsonColumn(payment.SimulatedDetails, false)
	if err != nil {
		return fmt.Errorf("failed to encode simulated details: %w", err)
	}
	_, err = conn(ctx, r.db).ExecContext(ctx, `
		UPDATE payments
		SET donation_id = ?, status = ?, payment_method = ?, receipt_id = ?, simulated_details = ?,
			paid_at = ?, failed_at = ?, failure_reason = ?, updated_at = ?
		WHERE id = ?`,
		nullInt64(payment.DonationID), payment.Status, payment.PaymentMethod, payment.ReceiptID, details,
		nullTime(payment.PaidAt), nullTime(payment.FailedAt), payment.FailureReason, payment.UpdatedAt, payment.ID)
	if err != nil {
		util.Logger.Error("更新支付记录失败", zap.Int64("id", payment.ID), zap.Error(err))
		return fmt.Errorf("failed to update payment: %w", err)
	}
	util.Logger.Info("支付记录更新成功",
		zap.Int64("id", payment.ID),
		zap.String("status", string(payment.Status)))
	return nil
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*model.Payment, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		paymentSelect+" WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx, "SELECT COUNT(*) FROM payments WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}

// ExpireCreatedBefore 条件里带上 status，与正在进行的验证互不覆盖
func (r *PaymentRepository) ExpireCreatedBefore(ctx context.Context, before time.Time, reason string, now time.Time) (int64, error) {
	result, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE payments
		SET status = ?, failed_at = ?, failure_reason = ?, updated_at = ?
		WHERE status = ? AND created_at < ?`,
		model.PaymentStatusFailed, now, reason, now, model.PaymentStatusCreated, before)
	if err != nil {
		util.Logger.Error("过期订单清理失败", zap.Error(err))
		return 0, fmt.Errorf("failed to expire payments: %w", err)
	}
	return result.RowsAffected()
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	var p model.Payment
	var donationID sql.NullInt64
	var details []byte
	var paidAt, failedAt sql.NullTime
	err := row.Scan(
		&p.ID, &p.PaymentID, &p.UserID, &donationID, &p.DonationRef,
		&p.OrderID, &p.Amount, &p.Currency, &p.Status, &p.PaymentMethod, &p.DonationType, &p.Description,
		&p.ReceiptID, &details, &paidAt, &failedAt, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := scanJSON(details, &p.SimulatedDetails); err != nil {
		return nil, fmt.Errorf("failed to decode simulated details: %w", err)
	}
	p.DonationID = int64Ptr(donationID)
	p.PaidAt = timePtr(paidAt)
	p.FailedAt = timePtr(failedAt)
	return &p, nil
}
