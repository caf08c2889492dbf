package service

import (
	"crypto/tls"
	"donation-backend/config"
	"donation-backend/internal/model"
	"donation-backend/internal/util"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// Notifier 邮件通知，发送失败不影响业务
type Notifier interface {
	SendTicketAcknowledgement(contact *model.Contact)
	SendPaymentReceipt(user *model.User, payment *model.Payment)
}

// Mailer 由 *mail.Dialer 实现
type Mailer interface {
	DialAndSend(m ...*mail.Message) error
}

type EmailService struct {
	from   string
	mailer Mailer
	wg     sync.WaitGroup
}

// NewEmailService 未配置 SMTP 时返回 nil，调用方应改用 NopNotifier
func NewEmailService(cfg config.Config) *EmailService {
	if !cfg.SMTPEnabled() {
		return nil
	}
	d := mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	d.Timeout = 20 * time.Second
	d.SSL = cfg.SMTPPort == 465
	d.TLSConfig = &tls.Config{ServerName: cfg.SMTPHost}
	return NewEmailServiceWithMailer(cfg.SMTPUsername, d)
}

func NewEmailServiceWithMailer(from string, mailer Mailer) *EmailService {
	return &EmailService{from: from, mailer: mailer}
}

// 姓名等字段来自用户输入，必须经过 html/template 转义
var (
	ticketAckTemplate = template.Must(template.New("ticket_ack").Parse(`<p>Hi {{.Name}},</p>
<p>Thank you for contacting us. Your ticket <strong>{{.TicketID}}</strong> has been created with {{.Priority}} priority.</p>
<p>We will get back to you within 24 hours.</p>`))

	receiptTemplate = template.Must(template.New("receipt").Parse(`<p>Dear {{.Name}},</p>
<p>Thank you for your donation of <strong>₹{{.Amount}}</strong>.</p>
<p>Receipt: {{.ReceiptID}}<br>Donation ID: {{.DonationID}}<br>Payment method: {{.Method}}</p>
<p>This receipt was generated by a simulated payment and is not a tax document.</p>`))
)

func renderHTML(t *template.Template, data interface{}) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *EmailService) SendTicketAcknowledgement(c *model.Contact) {
	subject := fmt.Sprintf("We received your message [%s]", c.TicketID)
	body, err := renderHTML(ticketAckTemplate, c)
	if err != nil {
		util.Logger.Error("渲染工单确认邮件失败", zap.Error(err), zap.String("ticket_id", c.TicketID))
		return
	}
	s.sendEmailAsync(c.Email, subject, body)
}

func (s *EmailService) SendPaymentReceipt(user *model.User, p *model.Payment) {
	subject := fmt.Sprintf("Donation receipt %s", p.ReceiptID)
	body, err := renderHTML(receiptTemplate, map[string]interface{}{
		"Name":       user.Name,
		"Amount":     model.FormatAmount(p.Amount),
		"ReceiptID":  p.ReceiptID,
		"DonationID": p.DonationRef,
		"Method":     p.PaymentMethod,
	})
	if err != nil {
		util.Logger.Error("渲染收据邮件失败", zap.Error(err), zap.String("receipt_id", p.ReceiptID))
		return
	}
	s.sendEmailAsync(user.Email, subject, body)
}

func (s *EmailService) sendEmailAsync(to, subject, body string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sendEmail(to, subject, body); err != nil {
			util.Logger.Error("异步发送邮件失败", zap.Error(err), zap.String("to", to))
		}
	}()
}

// Wait 等待已经发出的邮件结束，关闭服务时调用
func (s *EmailService) Wait() {
	s.wg.Wait()
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	util.Logger.Info("开始发送邮件",
		zap.String("to", to),
		zap.String("subject", subject))

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	util.Logger.Info("邮件发送成功", zap.String("to", to))
	return nil
}

// NopNotifier 未配置 SMTP 时使用
type NopNotifier struct{}

func (NopNotifier) SendTicketAcknowledgement(*model.Contact)       {}
func (NopNotifier) SendPaymentReceipt(*model.User, *model.Payment) {}
