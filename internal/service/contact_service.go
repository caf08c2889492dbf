package service

import (
	"context"
	"donation-backend/internal/errors"
	"donation-backend/internal/events"
	"donation-backend/internal/idgen"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ContactService struct {
	contactRepo interfaces.ContactRepository
	tx          interfaces.Transactor
	ids         *idgen.Generator
	notifier    Notifier
	publisher   events.Publisher
	now         func() time.Time
}

func NewContactService(contactRepo interfaces.ContactRepository, tx interfaces.Transactor, ids *idgen.Generator, notifier Notifier, publisher events.Publisher) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		tx:          tx,
		ids:         ids,
		notifier:    notifier,
		publisher:   publisher,
		now:         time.Now,
	}
}

type ContactInput struct {
	Name    string
	Email   string
	Subject model.ContactSubject
	Message string
}

// ContactUpdate 管理员处理工单，零值字段保持不变
type ContactUpdate struct {
	Status          model.ContactStatus
	ResponseMessage string
}

// Submit 创建工单；确认邮件和事件发送失败不影响结果
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*model.Contact, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	message := strings.TrimSpace(in.Message)
	if name == "" || email == "" || in.Subject == "" || message == "" {
		return nil, errors.New(errors.ErrValidation, "Please provide name, email, subject, and message")
	}
	if !in.Subject.IsValid() {
		return nil, errors.New(errors.ErrValidation, "Invalid subject")
	}

	ticketID, err := s.ids.TicketID(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "生成工单编号失败", err)
	}
	now := s.now()
	contact := &model.Contact{
		TicketID:  ticketID,
		Name:      name,
		Email:     email,
		Subject:   in.Subject,
		Message:   message,
		Status:    model.ContactStatusNew,
		Priority:  in.Subject.Priority(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		util.Logger.Error("保存工单失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrDatabase, "保存工单失败", err)
	}

	util.Logger.Info("工单已创建",
		zap.String("ticket_id", contact.TicketID),
		zap.String("priority", string(contact.Priority)))
	s.notifier.SendTicketAcknowledgement(contact)
	publish(ctx, s.publisher, events.TopicContactCreated, contact.TicketID, map[string]interface{}{
		"ticketId": contact.TicketID,
		"subject":  contact.Subject,
		"priority": contact.Priority,
	})
	return contact, nil
}

// ListByEmail 按邮箱查询自己的工单，最新的在前
func (s *ContactService) ListByEmail(ctx context.Context, email string) ([]*model.Contact, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New(errors.ErrValidation, "Please provide an email")
	}
	contacts, err := s.contactRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询工单失败", err)
	}
	if contacts == nil {
		contacts = []*model.Contact{}
	}
	return contacts, nil
}

func (s *ContactService) AdminList(ctx context.Context, filter interfaces.ContactFilter, p util.Pagination) (Page[*model.Contact], error) {
	contacts, err := s.contactRepo.List(ctx, filter, p.Limit, p.Offset())
	if err != nil {
		return Page[*model.Contact]{}, errors.Wrap(errors.ErrDatabase, "查询工单失败", err)
	}
	total, err := s.contactRepo.Count(ctx, filter)
	if err != nil {
		return Page[*model.Contact]{}, errors.Wrap(errors.ErrDatabase, "统计工单失败", err)
	}
	if contacts == nil {
		contacts = []*model.Contact{}
	}
	return Page[*model.Contact]{Items: contacts, Total: total}, nil
}

// Update 在事务内锁定工单，避免并发处理互相覆盖；填写回复时记录回复人和回复时间，优先级不会重新计算
func (s *ContactService) Update(ctx context.Context, id int64, adminID int64, update ContactUpdate) (*model.Contact, error) {
	if update.Status != "" && !update.Status.IsValid() {
		return nil, errors.New(errors.ErrValidation, "Invalid contact status")
	}

	var contact *model.Contact
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.contactRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return errors.Wrap(errors.ErrDatabase, "查询工单失败", err)
		}
		if c == nil {
			return errors.New(errors.ErrResourceNotFound, "Contact inquiry not found")
		}

		now := s.now()
		if update.Status != "" {
			c.Status = update.Status
		}
		if update.ResponseMessage != "" {
			respondedAt := now
			respondedBy := adminID
			c.ResponseMessage = update.ResponseMessage
			c.RespondedAt = &respondedAt
			c.RespondedBy = &respondedBy
		}
		c.UpdatedAt = now

		if err := s.contactRepo.Update(ctx, c); err != nil {
			return errors.Wrap(errors.ErrDatabase, "更新工单失败", err)
		}
		contact = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	util.Logger.Info("工单已更新",
		zap.String("ticket_id", contact.TicketID),
		zap.String("status", string(contact.Status)),
		zap.Int64("admin_id", adminID))
	return contact, nil
}

type ContactServiceInterface interface {
	Submit(ctx context.Context, in ContactInput) (*model.Contact, error)
	ListByEmail(ctx context.Context, email string) ([]*model.Contact, error)
	AdminList(ctx context.Context, filter interfaces.ContactFilter, p util.Pagination) (Page[*model.Contact], error)
	Update(ctx context.Context, id int64, adminID int64, update ContactUpdate) (*model.Contact, error)
}

var _ ContactServiceInterface = (*ContactService)(nil)
