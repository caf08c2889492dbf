package mysql

import (
	"context"
	"database/sql"
	"donation-backend/internal/model"
	"donation-backend/internal/repository/interfaces"
	"donation-backend/internal/util"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `id, ticket_id, name, email, subject, message, status, priority,
	response_message, responded_at, responded_by, created_at, updated_at`

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	result, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO contacts (ticket_id, name, email, subject, message, status, priority,
			response_message, responded_at, responded_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.TicketID, c.Name, c.Email, c.Subject, c.Message, c.Status, c.Priority,
		c.ResponseMessage, nullTime(c.RespondedAt), nullInt64(c.RespondedBy), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		util.Logger.Error("保存咨询失败", zap.Error(err))
		return fmt.Errorf("failed to create contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get contact ID: %w", err)
	}
	c.ID = id
	return nil
}

// FindByIDForUpdate 必须在事务内调用
func (r *ContactRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.Contact, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, "SELECT "+contactColumns+" FROM contacts WHERE id = ? FOR UPDATE", id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query contact: %w", err)
	}
	return c, nil
}

func (r *ContactRepository) FindByEmail(ctx context.Context, email string) ([]*model.Contact, error) {
	return r.query(ctx, "SELECT "+contactColumns+" FROM contacts WHERE email = ? ORDER BY created_at DESC, id DESC", email)
}

func (r *ContactRepository) Update(ctx context.Context, c *model.Contact) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE contacts
		SET status = ?, response_message = ?, responded_at = ?, responded_by = ?, updated_at = ?
		WHERE id = ?`,
		c.Status, c.ResponseMessage, nullTime(c.RespondedAt), nullInt64(c.RespondedBy), c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) List(ctx context.Context, filter interfaces.ContactFilter, limit, offset int) ([]*model.Contact, error) {
	where, args := contactWhere(filter)
	args = append(args, limit, offset)
	return r.query(ctx,
		"SELECT "+contactColumns+" FROM contacts"+where+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?", args...)
}

func (r *ContactRepository) Count(ctx context.Context, filter interfaces.ContactFilter) (int, error) {
	where, args := contactWhere(filter)
	var count int
	if err := conn(ctx, r.db).QueryRowContext(ctx, "SELECT COUNT(*) FROM contacts"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

func (r *ContactRepository) query(ctx context.Context, query string, args ...interface{}) ([]*model.Contact, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func contactWhere(f interfaces.ContactFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Subject != "" {
		conds = append(conds, "subject = ?")
		args = append(args, f.Subject)
	}
	return whereClause(conds), args
}

func scanContact(row rowScanner) (*model.Contact, error) {
	var c model.Contact
	var respondedAt sql.NullTime
	var respondedBy sql.NullInt64
	err := row.Scan(
		&c.ID, &c.TicketID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.Status, &c.Priority,
		&c.ResponseMessage, &respondedAt, &respondedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.RespondedAt = timePtr(respondedAt)
	c.RespondedBy = int64Ptr(respondedBy)
	return &c, nil
}
