package interfaces

import (
	"context"
	"donation-backend/internal/model"
)

type ContactFilter struct {
	Status  model.ContactStatus
	Subject model.ContactSubject
}

type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	// FindByIDForUpdate 在事务内加行锁读取，记录不存在时返回 nil, nil
	FindByIDForUpdate(ctx context.Context, id int64) (*model.Contact, error)
	FindByEmail(ctx context.Context, email string) ([]*model.Contact, error)
	Update(ctx context.Context, contact *model.Contact) error
	List(ctx context.Context, filter ContactFilter, limit, offset int) ([]*model.Contact, error)
	Count(ctx context.Context, filter ContactFilter) (int, error)
}
