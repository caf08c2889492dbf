package service

import (
	"context"
	"donation-backend/internal/model"
	"donation-backend/internal/storage"
	"fmt"
	"strings"
)

// ReceiptArchiver 保存支付收据
type ReceiptArchiver interface {
	Archive(ctx context.Context, user *model.User, payment *model.Payment) (string, error)
}

type ReceiptService struct {
	store storage.ObjectStore
}

func NewReceiptService(store storage.ObjectStore) *ReceiptService {
	return &ReceiptService{store: store}
}

// ReceiptKey receipts/{year}/{receiptId}.txt
func ReceiptKey(p *model.Payment) string {
	year := p.CreatedAt.Year()
	if p.PaidAt != nil {
		year = p.PaidAt.Year()
	}
	return fmt.Sprintf("receipts/%d/%s.txt", year, p.ReceiptID)
}

func (s *ReceiptService) Archive(ctx context.Context, user *model.User, p *model.Payment) (string, error) {
	if p.Status != model.PaymentStatusPaid || p.ReceiptID == "" {
		return "", fmt.Errorf("payment %s has no receipt", p.PaymentID)
	}
	return s.store.Put(ctx, ReceiptKey(p), []byte(RenderReceipt(user, p)), "text/plain; charset=utf-8")
}

// RenderReceipt 纯文本收据
func RenderReceipt(user *model.User, p *model.Payment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DONATION RECEIPT (SIMULATED PAYMENT)\n")
	fmt.Fprintf(&b, "Receipt ID:   %s\n", p.ReceiptID)
	fmt.Fprintf(&b, "Payment ID:   %s\n", p.PaymentID)
	fmt.Fprintf(&b, "Order ID:     %s\n", p.OrderID)
	if p.DonationRef != "" {
		fmt.Fprintf(&b, "Donation ID:  %s\n", p.DonationRef)
	}
	if user != nil {
		fmt.Fprintf(&b, "Donor:        %s <%s>\n", user.Name, user.Email)
	}
	fmt.Fprintf(&b, "Amount:       %s %s\n", p.Currency, model.FormatAmount(p.Amount))
	fmt.Fprintf(&b, "Method:       %s\n", p.PaymentMethod)
	if p.SimulatedDetails.TransactionRef != "" {
		fmt.Fprintf(&b, "Reference:    %s\n", p.SimulatedDetails.TransactionRef)
	}
	if p.PaidAt != nil {
		fmt.Fprintf(&b, "Paid at:      %s\n", p.PaidAt.Format("2006-01-02 15:04:05 MST"))
	}
	return b.String()
}

// NopReceiptArchiver 未配置存储时使用
type NopReceiptArchiver struct{}

func (NopReceiptArchiver) Archive(context.Context, *model.User, *model.Payment) (string, error) {
	return "", nil
}
